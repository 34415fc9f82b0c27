package scenario

import (
	"encoding/json"
	"os"
	"testing"
)

func tempJSON(t *testing.T, value any) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "scenarios-*.json")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return f.Name()
}

func validScenario(id string) Scenario {
	return Scenario{
		ID:        id,
		Title:     "Basic Drive",
		Objective: "Observe SOC drop.",
		Steps:     []string{"Run the drive.", "Record values."},
		Metrics: []Metric{
			{Name: "peak_speed", Label: "Peak Speed", Unit: "km/h"},
		},
	}
}

func TestNewCatalog(t *testing.T) {
	easy := tempJSON(t, []Scenario{validScenario("E1"), validScenario("E2")})
	advanced := tempJSON(t, []Scenario{validScenario("1")})

	catalog, err := NewCatalog(easy, advanced)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	if catalog.Len() != 3 {
		t.Fatalf("expected 3 scenarios, got %d", catalog.Len())
	}
	if got := len(catalog.List(DifficultyEasy)); got != 2 {
		t.Fatalf("expected 2 easy scenarios, got %d", got)
	}
	if got := len(catalog.List(DifficultyAdvanced)); got != 1 {
		t.Fatalf("expected 1 advanced scenario, got %d", got)
	}
	if got := len(catalog.List("")); got != 3 {
		t.Fatalf("expected unfiltered list of 3, got %d", got)
	}

	sc, ok := catalog.Get("e1")
	if !ok {
		t.Fatalf("case-insensitive lookup failed")
	}
	if sc.Difficulty != DifficultyEasy {
		t.Fatalf("expected easy difficulty tag, got %q", sc.Difficulty)
	}
	if _, ok := catalog.Get("E9"); ok {
		t.Fatalf("unexpected hit for unknown id")
	}
}

func TestNewCatalogRejectsDuplicateIDs(t *testing.T) {
	easy := tempJSON(t, []Scenario{validScenario("E1")})
	advanced := tempJSON(t, []Scenario{validScenario("e1")})

	if _, err := NewCatalog(easy, advanced); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"missing id", func(sc *Scenario) { sc.ID = "  " }},
		{"missing title", func(sc *Scenario) { sc.Title = "" }},
		{"no steps", func(sc *Scenario) { sc.Steps = nil }},
		{"empty metric name", func(sc *Scenario) { sc.Metrics[0].Name = "" }},
		{"duplicate metric", func(sc *Scenario) {
			sc.Metrics = append(sc.Metrics, sc.Metrics[0])
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc := validScenario("E1")
			tc.mutate(&sc)
			easy := tempJSON(t, []Scenario{sc})
			advanced := tempJSON(t, []Scenario{validScenario("1")})
			if _, err := NewCatalog(easy, advanced); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.json", DifficultyEasy); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
