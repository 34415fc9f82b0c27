package report

import (
	"strings"
	"testing"

	"sdv-lab/backend/internal/scenario"
)

func sampleScenario() scenario.Scenario {
	return scenario.Scenario{
		ID:        "E1",
		Title:     "Basic Drive & SOC Drop",
		Objective: "Understand how speed and battery SOC change during a simple drive.",
		Steps: []string{
			"Driving Dashboard: Mode = Normal, Throttle = 40%, Brake = 0%.",
			"Steps = 10, Duration = 0.5 sec, press Run.",
			"Record Peak Speed, SOC before, SOC after.",
		},
		Metrics: []scenario.Metric{
			{Name: "peak_speed", Label: "Peak Speed", Unit: "km/h"},
			{Name: "soc_before", Label: "SOC Before", Unit: "%"},
			{Name: "soc_after", Label: "SOC After", Unit: "%"},
		},
		Difficulty: scenario.DifficultyEasy,
	}
}

func TestRenderSections(t *testing.T) {
	r := ScenarioReport{
		Scenario: sampleScenario(),
		Metrics: map[string]string{
			"peak_speed": "57",
			"soc_before": "94.3",
			"soc_after":  "93.8",
		},
		Observations:    "Smooth acceleration; SOC reduced by ~0.5%.",
		Interpretation:  "Higher throttle increases energy usage.",
		Recommendations: "Repeat the test in Sport mode.",
	}

	md := r.Render()

	headers := []string{
		"# Scenario E1: Basic Drive & SOC Drop",
		"## Objective",
		"## Steps (as performed)",
		"## Collected Metrics",
		"## Observations",
		"## Interpretation",
		"## Recommendations",
	}
	last := -1
	for _, h := range headers {
		idx := strings.Index(md, h)
		if idx < 0 {
			t.Fatalf("missing header %q in:\n%s", h, md)
		}
		if idx <= last {
			t.Fatalf("header %q out of order", h)
		}
		last = idx
	}

	for _, line := range []string{
		"- **Peak Speed** : 57 km/h",
		"- **SOC Before** : 94.3 %",
		"- **SOC After** : 93.8 %",
		"1. Driving Dashboard: Mode = Normal, Throttle = 40%, Brake = 0%.",
		"3. Record Peak Speed, SOC before, SOC after.",
	} {
		if !strings.Contains(md, line) {
			t.Fatalf("missing line %q in:\n%s", line, md)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := ScenarioReport{
		Scenario: sampleScenario(),
		Metrics: map[string]string{
			"soc_after":  "93.8",
			"peak_speed": "57",
			"soc_before": "94.3",
			"zz_custom":  "1",
			"aa_custom":  "2",
		},
	}

	first := r.Render()
	for i := 0; i < 20; i++ {
		if got := r.Render(); got != first {
			t.Fatalf("render not deterministic on iteration %d", i)
		}
	}
}

func TestRenderExtraMetricsSorted(t *testing.T) {
	r := ScenarioReport{
		Scenario: sampleScenario(),
		Metrics: map[string]string{
			"peak_speed": "57",
			"zz_custom":  "1",
			"aa_custom":  "2",
		},
	}

	md := r.Render()
	aa := strings.Index(md, "- **aa_custom** : 2")
	zz := strings.Index(md, "- **zz_custom** : 1")
	declared := strings.Index(md, "- **Peak Speed** : 57 km/h")
	if aa < 0 || zz < 0 {
		t.Fatalf("extra metrics missing in:\n%s", md)
	}
	if !(declared < aa && aa < zz) {
		t.Fatalf("expected declared metrics first, then extras sorted; got aa=%d zz=%d declared=%d", aa, zz, declared)
	}
}

func TestRenderUnitlessMetricHasNoTrailingSpace(t *testing.T) {
	sc := sampleScenario()
	sc.Metrics = append(sc.Metrics, scenario.Metric{Name: "lane_depart", Label: "Lane Departure Alert (YES/NO)"})
	r := ScenarioReport{Scenario: sc, Metrics: map[string]string{"lane_depart": "NO"}}

	md := r.Render()
	if !strings.Contains(md, "- **Lane Departure Alert (YES/NO)** : NO\n") {
		t.Fatalf("unexpected unitless metric rendering:\n%s", md)
	}
	if strings.Contains(md, "NO \n") {
		t.Fatalf("trailing space after unitless metric:\n%s", md)
	}
}

func TestRenderMissingMetricRendersEmpty(t *testing.T) {
	r := ScenarioReport{Scenario: sampleScenario()}
	md := r.Render()
	if !strings.Contains(md, "- **Peak Speed** :  km/h") {
		t.Fatalf("expected empty value for missing metric:\n%s", md)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"E1", "scenario_E1_report.md"},
		{" 4 ", "scenario_4_report.md"},
		{"8", "scenario_8_report.md"},
	}
	for _, tc := range tests {
		if got := Filename(tc.id); got != tc.expected {
			t.Fatalf("Filename(%q) = %q, expected %q", tc.id, got, tc.expected)
		}
	}

	r := ScenarioReport{Scenario: sampleScenario()}
	if got := r.Filename(); got != "scenario_E1_report.md" {
		t.Fatalf("report filename = %q", got)
	}
}
