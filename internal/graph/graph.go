// Package graph derives the root -> mechanism -> parameter dependency
// structure handed to external diagram renderers.
package graph

import (
	"errors"

	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/models"
)

// RootLabel of the failure root node
const RootLabel = "Piping failure"

// ErrNoEvaluation is returned when an evidence graph is requested before anything was evaluated
var ErrNoEvaluation = errors.New("no evaluation available")

// Build the evidence map: root, every canonical mechanism, and one
// parameter node per outcome labeled with its level. Parameters that were
// not evaluated produce no node.
func Build(cat *catalog.Catalog, outcomes []models.Outcome) models.Graph {
	g := skeleton(cat)
	for _, o := range outcomes {
		level := o.Level
		g.Nodes = append(g.Nodes, models.GraphNode{
			ID:    o.Parameter,
			Type:  models.NodeParameter,
			Label: parameterLabel(cat, o.Parameter),
			Level: &level,
		})
		g.Edges = append(g.Edges, models.GraphEdge{
			From: string(o.Mechanism),
			To:   o.Parameter,
			Type: models.EdgeMechanismParameter,
		})
	}
	return g
}

// Structure is the static schema view: every catalog parameter under its
// mechanism, no evaluation input and no levels.
func Structure(cat *catalog.Catalog) models.Graph {
	g := skeleton(cat)
	for _, r := range cat.Rules() {
		g.Nodes = append(g.Nodes, models.GraphNode{
			ID:    r.Key,
			Type:  models.NodeParameter,
			Label: parameterLabel(cat, r.Key),
		})
		g.Edges = append(g.Edges, models.GraphEdge{
			From: string(r.Mechanism),
			To:   r.Key,
			Type: models.EdgeMechanismParameter,
		})
	}
	return g
}

// skeleton root and mechanism tier
func skeleton(cat *catalog.Catalog) models.Graph {
	mechanisms := cat.Mechanisms()
	g := models.Graph{
		Nodes: make([]models.GraphNode, 0, 1+len(mechanisms)),
		Edges: make([]models.GraphEdge, 0, len(mechanisms)),
	}
	g.Nodes = append(g.Nodes, models.GraphNode{
		ID:    models.RootNodeID,
		Type:  models.NodeRoot,
		Label: RootLabel,
	})
	for _, m := range mechanisms {
		g.Nodes = append(g.Nodes, models.GraphNode{
			ID:    string(m),
			Type:  models.NodeMechanism,
			Label: string(m) + " " + m.Name(),
		})
		g.Edges = append(g.Edges, models.GraphEdge{
			From: models.RootNodeID,
			To:   string(m),
			Type: models.EdgeRootMechanism,
		})
	}
	return g
}

func parameterLabel(cat *catalog.Catalog, key string) string {
	if r, ok := cat.Lookup(key); ok && r.Label != "" {
		return r.Label
	}
	return key
}
