package telemetry

import (
	"math"
	"strings"
	"testing"
	"time"
)

const sampleCSV = `timestamp,voltage,current,temperature,soc
2026-01-05T10:00:00Z,398.2,12.5,24.1,94.3
2026-01-05T10:00:30Z,397.8,13.0,24.4,94.1
2026-01-05T10:01:00Z,396.9,14.2,25.0,93.8
`

func TestParseCSV(t *testing.T) {
	samples, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	first := samples[0]
	if first.Values["voltage"] != 398.2 {
		t.Fatalf("voltage = %v", first.Values["voltage"])
	}
	if first.Values["soc"] != 94.3 {
		t.Fatalf("soc = %v", first.Values["soc"])
	}
	expected := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(expected) {
		t.Fatalf("timestamp = %v", first.Timestamp)
	}
}

func TestParseCSVAcceptsBOMAndAliases(t *testing.T) {
	csv := "\ufefftime,Voltage\n2026-01-05 10:00:00,398.2\n"
	samples, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0].Values["voltage"] != 398.2 {
		t.Fatalf("voltage = %v", samples[0].Values["voltage"])
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"no timestamp column", "voltage,current\n398.2,12.5\n"},
		{"no known columns", "timestamp,pressure\n2026-01-05T10:00:00Z,1.2\n"},
		{"header only", "timestamp,voltage\n"},
		{"bad timestamp", "timestamp,voltage\nnot-a-time,398.2\n"},
		{"bad number", "timestamp,voltage\n2026-01-05T10:00:00Z,abc\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCSV(strings.NewReader(tc.csv)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseCSVSkipsBlankCells(t *testing.T) {
	csv := "timestamp,voltage,temperature\n2026-01-05T10:00:00Z,398.2,\n2026-01-05T10:00:30Z,,24.4\n"
	samples, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := samples[0].Values["temperature"]; ok {
		t.Fatalf("blank temperature cell should be absent")
	}
	if _, ok := samples[1].Values["voltage"]; ok {
		t.Fatalf("blank voltage cell should be absent")
	}
}

func TestSummarize(t *testing.T) {
	samples, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	summary := Summarize(samples)
	if summary.Rows != 3 {
		t.Fatalf("rows = %d", summary.Rows)
	}
	if summary.Span() != time.Minute {
		t.Fatalf("span = %v", summary.Span())
	}

	voltage, ok := summary.Columns["voltage"]
	if !ok {
		t.Fatalf("missing voltage column")
	}
	if voltage.Count != 3 {
		t.Fatalf("voltage count = %d", voltage.Count)
	}
	if voltage.Min != 396.9 || voltage.Max != 398.2 {
		t.Fatalf("voltage min/max = %v/%v", voltage.Min, voltage.Max)
	}
	if voltage.First != 398.2 || voltage.Last != 396.9 {
		t.Fatalf("voltage first/last = %v/%v", voltage.First, voltage.Last)
	}
	wantMean := (398.2 + 397.8 + 396.9) / 3
	if math.Abs(voltage.Mean-wantMean) > 1e-9 {
		t.Fatalf("voltage mean = %v, expected %v", voltage.Mean, wantMean)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.Rows != 0 || len(summary.Columns) != 0 {
		t.Fatalf("unexpected summary for empty input: %+v", summary)
	}
	if summary.Span() != 0 {
		t.Fatalf("span = %v", summary.Span())
	}
}

func TestSummarizeUnorderedTimestamps(t *testing.T) {
	later := time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	summary := Summarize([]Sample{
		{Timestamp: later, Values: map[string]float64{"soc": 93.0}},
		{Timestamp: earlier, Values: map[string]float64{"soc": 94.0}},
	})
	if !summary.Start.Equal(earlier) || !summary.End.Equal(later) {
		t.Fatalf("start/end = %v/%v", summary.Start, summary.End)
	}
}
