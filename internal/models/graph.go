package models

// NodeType in a dependency graph
type NodeType string

const (
	NodeRoot      NodeType = "root"
	NodeMechanism NodeType = "mechanism"
	NodeParameter NodeType = "parameter"
)

// EdgeType in a dependency graph
type EdgeType string

const (
	EdgeRootMechanism      EdgeType = "root_mechanism"
	EdgeMechanismParameter EdgeType = "mechanism_parameter"
)

// RootNodeID of every dependency graph
const RootNodeID = "root"

// GraphNode is a render-only node
type GraphNode struct {
	ID    string   `json:"id"`
	Type  NodeType `json:"type"`
	Label string   `json:"label"`
	Level *Level   `json:"level,omitempty"` // parameter nodes in evidence graphs only
}

// GraphEdge is a directed edge From -> To
type GraphEdge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeType `json:"type"`
}

// Graph is the root -> mechanism -> parameter structure
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Node by id
func (g Graph) Node(id string) (GraphNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}

// NodesOfType in emission order
func (g Graph) NodesOfType(t NodeType) []GraphNode {
	var out []GraphNode
	for _, n := range g.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}
