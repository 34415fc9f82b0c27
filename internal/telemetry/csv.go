package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// KnownColumns lists the numeric telemetry columns the parser understands, in
// reporting order. Unknown columns are ignored.
var KnownColumns = []string{"voltage", "current", "temperature", "soc", "cycles"}

// Sample is one telemetry row: a timestamp plus whichever known numeric
// columns the file carries.
type Sample struct {
	Timestamp time.Time
	Values    map[string]float64
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseCSV reads a battery telemetry CSV. The first row must be a header
// containing a timestamp column and at least one known numeric column.
func ParseCSV(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	tsCol := -1
	numeric := make(map[string]int)
	for idx, raw := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		if name == "timestamp" || name == "time" || name == "ts" {
			tsCol = idx
			continue
		}
		for _, known := range KnownColumns {
			if name == known {
				numeric[known] = idx
			}
		}
	}
	if tsCol < 0 {
		return nil, errors.New("timestamp column is required")
	}
	if len(numeric) == 0 {
		return nil, fmt.Errorf("no known telemetry columns found (expected one of %s)", strings.Join(KnownColumns, ", "))
	}

	var samples []Sample
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row+1, err)
		}
		row++
		if len(record) == 0 {
			continue
		}
		if tsCol >= len(record) {
			return nil, fmt.Errorf("row %d: missing timestamp", row)
		}

		ts, err := parseTimestamp(record[tsCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		values := make(map[string]float64, len(numeric))
		for name, idx := range numeric {
			if idx >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[idx])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: column %s: %w", row, name, err)
			}
			values[name] = v
		}

		samples = append(samples, Sample{Timestamp: ts, Values: values})
	}

	if len(samples) == 0 {
		return nil, errors.New("csv contains no data rows")
	}
	return samples, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", trimmed)
}
