package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"sdv-lab/backend/internal/scenario"
)

// ScenarioReport binds a catalogue scenario to the answers a trainee entered
// into the report form. Metric values are kept exactly as supplied so the
// rendered document preserves the trainee's precision.
type ScenarioReport struct {
	Scenario        scenario.Scenario
	Metrics         map[string]string
	Observations    string
	Interpretation  string
	Recommendations string
}

// Render produces the Markdown submission document. Output is deterministic:
// identical input yields byte-identical Markdown.
func (r ScenarioReport) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Scenario %s: %s\n\n", r.Scenario.ID, r.Scenario.Title)

	b.WriteString("## Objective\n")
	b.WriteString(r.Scenario.Objective)
	b.WriteString("\n\n")

	b.WriteString("## Steps (as performed)\n")
	for i, step := range r.Scenario.Steps {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(step)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("## Collected Metrics\n")
	for _, m := range r.Scenario.Metrics {
		writeMetricLine(&b, m.Label, r.Metrics[m.Name], m.Unit)
	}
	for _, name := range r.extraMetrics() {
		writeMetricLine(&b, name, r.Metrics[name], "")
	}
	b.WriteString("\n")

	b.WriteString("## Observations\n")
	b.WriteString(r.Observations)
	b.WriteString("\n\n")

	b.WriteString("## Interpretation\n")
	b.WriteString(r.Interpretation)
	b.WriteString("\n\n")

	b.WriteString("## Recommendations\n")
	b.WriteString(r.Recommendations)
	b.WriteString("\n")

	return b.String()
}

// extraMetrics returns supplied metric names the scenario does not declare,
// sorted so rendering stays deterministic.
func (r ScenarioReport) extraMetrics() []string {
	declared := make(map[string]struct{}, len(r.Scenario.Metrics))
	for _, m := range r.Scenario.Metrics {
		declared[m.Name] = struct{}{}
	}
	var extras []string
	for name := range r.Metrics {
		if _, ok := declared[name]; !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	return extras
}

func writeMetricLine(b *strings.Builder, label, value, unit string) {
	b.WriteString("- **")
	b.WriteString(label)
	b.WriteString("** : ")
	b.WriteString(value)
	if unit != "" {
		b.WriteString(" ")
		b.WriteString(unit)
	}
	b.WriteString("\n")
}

// Filename returns the conventional download name for a scenario report.
func Filename(scenarioID string) string {
	return fmt.Sprintf("scenario_%s_report.md", strings.TrimSpace(scenarioID))
}

// Filename is the convention-based name for this report's download.
func (r ScenarioReport) Filename() string {
	return Filename(r.Scenario.ID)
}

// Template is the blank report skeleton offered for offline work.
const Template = `# Scenario X: <Title>

## Objective
<Write the objective in your own words.>

## Steps (as performed)
1. ...
2. ...
3. ...

## Collected Metrics
- **Metric 1** : <value> <unit>
- **Metric 2** : <value> <unit>

## Observations
<Free-text>

## Interpretation
<Free-text - why does the result matter for a supplier?>

## Recommendations
<Free-text>
`
