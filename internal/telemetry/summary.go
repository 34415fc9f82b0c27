package telemetry

import "time"

// ColumnSummary holds the descriptive statistics of one telemetry column.
type ColumnSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	First float64 `json:"first"`
	Last  float64 `json:"last"`
}

// Summary is the descriptive overview of an uploaded telemetry set. It makes
// no judgement about battery health; trainees copy the numbers into their
// scenario reports.
type Summary struct {
	Rows    int                      `json:"rows"`
	Start   time.Time                `json:"start"`
	End     time.Time                `json:"end"`
	Columns map[string]ColumnSummary `json:"columns"`
}

// Summarize computes per-column statistics over the parsed samples. Samples
// are expected in file order; Start/End reflect the earliest and latest
// timestamps regardless of ordering.
func Summarize(samples []Sample) Summary {
	summary := Summary{
		Rows:    len(samples),
		Columns: make(map[string]ColumnSummary),
	}
	if len(samples) == 0 {
		return summary
	}

	summary.Start = samples[0].Timestamp
	summary.End = samples[0].Timestamp
	sums := make(map[string]float64)

	for _, s := range samples {
		if s.Timestamp.Before(summary.Start) {
			summary.Start = s.Timestamp
		}
		if s.Timestamp.After(summary.End) {
			summary.End = s.Timestamp
		}
		for name, v := range s.Values {
			col, seen := summary.Columns[name]
			if !seen {
				col = ColumnSummary{Min: v, Max: v, First: v}
			}
			if v < col.Min {
				col.Min = v
			}
			if v > col.Max {
				col.Max = v
			}
			col.Last = v
			col.Count++
			sums[name] += v
			summary.Columns[name] = col
		}
	}

	for name, col := range summary.Columns {
		if col.Count > 0 {
			col.Mean = sums[name] / float64(col.Count)
			summary.Columns[name] = col
		}
	}
	return summary
}

// Span returns the covered time range.
func (s Summary) Span() time.Duration {
	if s.Rows == 0 {
		return 0
	}
	return s.End.Sub(s.Start)
}
