package differ

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/engine"
	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/wI2L/jsondiff"
)

func report(t *testing.T, readings ...models.Reading) *models.Report {
	t.Helper()
	r, err := engine.Analyze(catalog.MustDefault(), models.NewAssignment(readings...))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return r
}

func num(key string, v float64) models.Reading {
	return models.Reading{Key: key, Value: models.Number(v)}
}

func flag(key string, v bool) models.Reading {
	return models.Reading{Key: key, Value: models.Bool(v)}
}

func findDrift(r *Result, typ DriftType, id string) (DriftItem, bool) {
	for _, d := range r.Drifts {
		if d.Type == typ && d.Identifier == id {
			return d, true
		}
	}
	return DriftItem{}, false
}

func TestCompare_NoChange(t *testing.T) {
	base := report(t, num("ph", 5.5), flag("deadlegs", true))
	cur := report(t, num("ph", 5.5), flag("deadlegs", true))

	result := Compare(base, cur)
	if result.HasDrift {
		t.Errorf("expected no drift, got %+v", result.Drifts)
	}
	if result.MaxSeverity() != SeveritySafe {
		t.Errorf("MaxSeverity = %s", SeverityString(result.MaxSeverity()))
	}
}

func TestCompare_EscalationToCritical(t *testing.T) {
	base := report(t, num("pco2", 0.5))
	cur := report(t, num("pco2", 1.5))

	result := Compare(base, cur)
	d, ok := findDrift(result, DriftSeverityEscalated, "M1")
	if !ok {
		t.Fatalf("expected M1 escalation, got %+v", result.Drifts)
	}
	if d.Severity != SeverityCritical || d.Old != "alert" || d.New != "critical" {
		t.Errorf("unexpected drift: %+v", d)
	}
	if _, ok := findDrift(result, DriftDominantChanged, "dominant"); ok {
		t.Error("dominant stays M1")
	}
	if _, ok := findDrift(result, DriftValueChanged, "pco2"); !ok {
		t.Error("expected pco2 value change")
	}
}

func TestCompare_NewAlertAndDriver(t *testing.T) {
	base := report(t, num("ph", 7))
	cur := report(t, num("ph", 7), flag("aislamiento", true))

	result := Compare(base, cur)

	esc, ok := findDrift(result, DriftSeverityEscalated, "M4")
	if !ok || esc.Severity != SeverityModerate {
		t.Errorf("M4 escalation = %+v, want moderate", esc)
	}
	drv, ok := findDrift(result, DriftDriverAdded, "M4")
	if !ok || drv.New != "aislamiento" || drv.Severity != SeverityModerate {
		t.Errorf("M4 driver = %+v", drv)
	}
	dom, ok := findDrift(result, DriftDominantChanged, "dominant")
	if !ok || dom.Severity != SeverityCritical || dom.Old != "" || dom.New != "M4" {
		t.Errorf("dominant drift = %+v", dom)
	}
	if !strings.Contains(dom.Message, "from none to M4") {
		t.Errorf("message = %q", dom.Message)
	}
	if _, ok := findDrift(result, DriftValueAdded, "aislamiento"); !ok {
		t.Error("expected aislamiento value added")
	}
	if result.MaxSeverity() != SeverityCritical {
		t.Errorf("MaxSeverity = %s", SeverityString(result.MaxSeverity()))
	}
}

func TestCompare_Deescalation(t *testing.T) {
	base := report(t, num("pco2", 2), num("ph", 5))
	cur := report(t, num("pco2", 0.1), num("ph", 5))

	result := Compare(base, cur)

	d, ok := findDrift(result, DriftSeverityDeescalated, "M1")
	if !ok || d.Severity != SeveritySafe || d.Old != "critical" || d.New != "alert" {
		t.Errorf("de-escalation = %+v", d)
	}
	r, ok := findDrift(result, DriftDriverRemoved, "M1")
	if !ok || r.Old != "pco2" || r.Severity != SeveritySafe {
		t.Errorf("driver removed = %+v", r)
	}
	if result.MaxSeverity() != SeveritySafe {
		t.Errorf("improvements only should be info, got %s", SeverityString(result.MaxSeverity()))
	}
}

func TestCompare_Order(t *testing.T) {
	base := report(t)
	cur := report(t, flag("patron_rotura", true), flag("deadlegs", true))

	result := Compare(base, cur)
	var ids []string
	for _, d := range result.Drifts {
		ids = append(ids, string(d.Type)+":"+d.Identifier)
	}
	want := []string{
		"DOMINANT_CHANGED:dominant",
		"SEVERITY_ESCALATED:M2",
		"DRIVER_ADDED:M2",
		"SEVERITY_ESCALATED:M12",
		"DRIVER_ADDED:M12",
		"VALUE_ADDED:patron_rotura",
		"VALUE_ADDED:deadlegs",
	}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("order:\n got %v\nwant %v", ids, want)
	}
}

func TestCompare_CatalogChanged(t *testing.T) {
	base := report(t, num("ph", 7))
	cur := report(t, num("ph", 7))
	cur.CatalogDigest = "sha256:other"

	d, ok := findDrift(Compare(base, cur), DriftCatalogChanged, "catalog")
	if !ok || d.Severity != SeveritySafe {
		t.Errorf("catalog drift = %+v", d)
	}
}

func TestCompare_ReportsRoundTripFromJSON(t *testing.T) {
	base := report(t, num("ph", 5.5))
	data, err := json.Marshal(base)
	if err != nil {
		t.Fatal(err)
	}
	var loaded models.Report
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("failed to load report: %v", err)
	}

	if result := Compare(base, &loaded); result.HasDrift {
		t.Errorf("report loaded from JSON should not drift: %+v", result.Drifts)
	}
}

func TestPatch(t *testing.T) {
	base := report(t, num("ph", 7))
	cur := report(t, num("ph", 5.5), flag("deadlegs", true))

	patch, err := Patch(base, cur)
	if err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	if len(patch) == 0 {
		t.Fatal("expected a non-empty patch")
	}

	var paths []string
	for _, op := range patch {
		paths = append(paths, op.Path)
	}
	joined := strings.Join(paths, " ")
	for _, want := range []string{"/values/ph", "/values/deadlegs", "/dominant"} {
		if !strings.Contains(joined, want) {
			t.Errorf("patch paths %v missing %s", paths, want)
		}
	}

	same, err := Patch(base, base)
	if err != nil {
		t.Fatal(err)
	}
	if len(same) != 0 {
		t.Errorf("identical reports should produce an empty patch, got %v", same)
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		op   jsondiff.Operation
		want string
	}{
		{"dominant", jsondiff.Operation{Type: jsondiff.OperationReplace, Path: "/dominant"}, "⚠️  CRITICAL: Dominant mechanism changed."},
		{"value added", jsondiff.Operation{Type: jsondiff.OperationAdd, Path: "/values/ph"}, "Value 'ph' added."},
		{"value removed", jsondiff.Operation{Type: jsondiff.OperationRemove, Path: "/values/ph"}, "Value 'ph' removed."},
		{"value changed", jsondiff.Operation{Type: jsondiff.OperationReplace, Path: "/values/ph"}, "Value 'ph' changed."},
		{"severity", jsondiff.Operation{Type: jsondiff.OperationReplace, Path: "/summaries/0/severity"}, "Mechanism severity changed."},
		{"driver added", jsondiff.Operation{Type: jsondiff.OperationAdd, Path: "/summaries/1/drivers/0"}, "New driver added to a mechanism."},
		{"driver removed", jsondiff.Operation{Type: jsondiff.OperationRemove, Path: "/summaries/1/drivers/0"}, "Driver removed from a mechanism."},
		{"catalog", jsondiff.Operation{Type: jsondiff.OperationReplace, Path: "/catalogDigest"}, "Rule catalog changed."},
		{"outcomes", jsondiff.Operation{Type: jsondiff.OperationAdd, Path: "/outcomes/2"}, "Parameter outcomes changed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(jsondiff.Patch{tt.op})
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("Translate = %v, want [%q]", got, tt.want)
			}
		})
	}

	t.Run("derived and duplicate", func(t *testing.T) {
		got := Translate(jsondiff.Patch{
			{Type: jsondiff.OperationReplace, Path: "/recommendations/0/action"},
			{Type: jsondiff.OperationReplace, Path: "/summaries/0/activatedCount"},
			{Type: jsondiff.OperationReplace, Path: "/summaries/0/severity"},
			{Type: jsondiff.OperationReplace, Path: "/summaries/3/severity"},
		})
		if len(got) != 1 || got[0] != "Mechanism severity changed." {
			t.Errorf("Translate = %v", got)
		}
	})

	if Translate(nil) != nil {
		t.Error("empty patch should translate to nil")
	}
}
