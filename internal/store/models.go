package store

import (
	"encoding/json"
	"strings"
	"time"

	"sdv-lab/backend/internal/telemetry"
)

// Report is a generated scenario report persisted for listing and download.
type Report struct {
	ID              uint   `gorm:"primaryKey"`
	ScenarioID      string `gorm:"size:32;index"`
	Title           string `gorm:"size:255"`
	Difficulty      string `gorm:"size:16;index"`
	MetricsJSON     string `gorm:"type:text"`
	Observations    string `gorm:"type:text"`
	Interpretation  string `gorm:"type:text"`
	Recommendations string `gorm:"type:text"`
	Markdown        string `gorm:"type:text"`
	Filename        string `gorm:"size:128"`
	RenderTimeMs    int64
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

// SetMetrics persists the collected metric values as JSON.
func (r *Report) SetMetrics(metrics map[string]string) {
	if metrics == nil {
		r.MetricsJSON = "{}"
		return
	}
	payload, _ := json.Marshal(metrics)
	r.MetricsJSON = string(payload)
}

// Metrics returns the unmarshalled metric values.
func (r *Report) Metrics() map[string]string {
	if strings.TrimSpace(r.MetricsJSON) == "" {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(r.MetricsJSON), &out); err != nil {
		return nil
	}
	return out
}

// InstalledApp is one entry of the vehicle's installed demo app set.
type InstalledApp struct {
	AppID       string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:128"`
	Version     string `gorm:"size:32"`
	Icon        string `gorm:"size:16"`
	Description string `gorm:"size:256"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MissionProgress tracks completion of a catalogue mission.
type MissionProgress struct {
	MissionID   string `gorm:"primaryKey;size:16"`
	Completed   bool
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// TelemetryBatch records an uploaded telemetry CSV together with its
// computed summary.
type TelemetryBatch struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:128;index"`
	OriginalFilename string `gorm:"size:256"`
	RowCount         int
	StartAt          time.Time
	EndAt            time.Time
	SummaryJSON      string    `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

// SetSummary stores the telemetry summary as JSON and mirrors its shape into
// the queryable columns.
func (b *TelemetryBatch) SetSummary(summary telemetry.Summary) {
	payload, _ := json.Marshal(summary)
	b.SummaryJSON = string(payload)
	b.RowCount = summary.Rows
	b.StartAt = summary.Start
	b.EndAt = summary.End
}

// Summary returns the decoded telemetry summary.
func (b *TelemetryBatch) Summary() (telemetry.Summary, error) {
	var out telemetry.Summary
	if strings.TrimSpace(b.SummaryJSON) == "" {
		return out, nil
	}
	err := json.Unmarshal([]byte(b.SummaryJSON), &out)
	return out, err
}
