package api

import (
	"encoding/json"
	"strings"
	"time"

	"sdv-lab/backend/internal/apps"
	"sdv-lab/backend/internal/missions"
	"sdv-lab/backend/internal/scenario"
	"sdv-lab/backend/internal/store"
	"sdv-lab/backend/internal/telemetry"
)

// MetricValue keeps a submitted metric exactly as it appeared in the request
// body. JSON numbers are preserved verbatim so "94.30" is not re-rendered as
// "94.3" in the report.
type MetricValue string

// UnmarshalJSON accepts strings, numbers and booleans.
func (v *MetricValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = MetricValue(s)
		return nil
	}
	*v = MetricValue(trimmed)
	return nil
}

// MarshalJSON renders the value back as a JSON string.
func (v MetricValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

// GenerateReportRequest is the report form submission payload.
type GenerateReportRequest struct {
	ScenarioID      string                 `json:"scenario_id"`
	Metrics         map[string]MetricValue `json:"metrics"`
	Observations    string                 `json:"observations"`
	Interpretation  string                 `json:"interpretation"`
	Recommendations string                 `json:"recommendations"`
	Filename        string                 `json:"filename,omitempty"`
}

// MetricStrings converts the raw metric values into plain strings.
func (r GenerateReportRequest) MetricStrings() map[string]string {
	if r.Metrics == nil {
		return nil
	}
	out := make(map[string]string, len(r.Metrics))
	for name, value := range r.Metrics {
		out[name] = string(value)
	}
	return out
}

// ReportDTO is the API representation for a persisted report.
type ReportDTO struct {
	ID              uint              `json:"id"`
	ScenarioID      string            `json:"scenario_id"`
	Title           string            `json:"title"`
	Difficulty      string            `json:"difficulty"`
	Metrics         map[string]string `json:"metrics"`
	Observations    string            `json:"observations"`
	Interpretation  string            `json:"interpretation"`
	Recommendations string            `json:"recommendations"`
	Markdown        string            `json:"markdown,omitempty"`
	Filename        string            `json:"filename"`
	RenderTimeMs    int64             `json:"render_time_ms"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ReportFromModel converts a store.Report into the DTO representation.
// Markdown is included only when requested to keep listings light.
func ReportFromModel(r store.Report, includeMarkdown bool) ReportDTO {
	dto := ReportDTO{
		ID:              r.ID,
		ScenarioID:      r.ScenarioID,
		Title:           r.Title,
		Difficulty:      r.Difficulty,
		Metrics:         r.Metrics(),
		Observations:    r.Observations,
		Interpretation:  r.Interpretation,
		Recommendations: r.Recommendations,
		Filename:        r.Filename,
		RenderTimeMs:    r.RenderTimeMs,
		CreatedAt:       r.CreatedAt,
	}
	if includeMarkdown {
		dto.Markdown = r.Markdown
	}
	return dto
}

// ReportsResponse is the paginated report listing payload.
type ReportsResponse struct {
	Items []ReportDTO `json:"items"`
	Total int64       `json:"total"`
}

// ScenarioDTO mirrors a catalogue scenario for API clients.
type ScenarioDTO struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Objective  string            `json:"objective"`
	Steps      []string          `json:"steps"`
	Metrics    []scenario.Metric `json:"metrics"`
	Difficulty string            `json:"difficulty"`
}

// ScenarioFromModel converts a scenario.Scenario to its DTO.
func ScenarioFromModel(sc scenario.Scenario) ScenarioDTO {
	return ScenarioDTO{
		ID:         sc.ID,
		Title:      sc.Title,
		Objective:  sc.Objective,
		Steps:      sc.Steps,
		Metrics:    sc.Metrics,
		Difficulty: sc.Difficulty,
	}
}

// ScenariosResponse lists catalogue scenarios.
type ScenariosResponse struct {
	Items []ScenarioDTO `json:"items"`
	Total int           `json:"total"`
}

// CatalogAppDTO is a play-store catalogue entry with install state.
type CatalogAppDTO struct {
	apps.App
	Installed        bool   `json:"installed"`
	InstalledVersion string `json:"installed_version,omitempty"`
}

// InstalledAppDTO is the API representation of an installed app.
type InstalledAppDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	InstalledAt time.Time `json:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InstalledAppFromModel converts a store.InstalledApp to its DTO.
func InstalledAppFromModel(row store.InstalledApp) InstalledAppDTO {
	return InstalledAppDTO{
		ID:          row.AppID,
		Name:        row.Name,
		Version:     row.Version,
		Icon:        row.Icon,
		Description: row.Description,
		InstalledAt: row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// UpdateAppResponse reports a version bump.
type UpdateAppResponse struct {
	App        InstalledAppDTO `json:"app"`
	OldVersion string          `json:"old_version"`
	NewVersion string          `json:"new_version"`
}

// MissionDTO pairs a mission with its completion state.
type MissionDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Steps       string     `json:"steps"`
	Badge       string     `json:"badge"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MissionFromStatus converts a missions.Status to its DTO.
func MissionFromStatus(s missions.Status) MissionDTO {
	return MissionDTO{
		ID:          s.ID,
		Title:       s.Title,
		Steps:       s.Steps,
		Badge:       s.Badge,
		Completed:   s.Completed,
		CompletedAt: s.CompletedAt,
	}
}

// BadgeDTO reports a badge and whether it is unlocked.
type BadgeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unlocked bool   `json:"unlocked"`
}

// TelemetryBatchDTO describes an uploaded telemetry batch.
type TelemetryBatchDTO struct {
	ID               uint               `json:"id"`
	Name             string             `json:"name"`
	OriginalFilename string             `json:"original_filename"`
	Rows             int                `json:"rows"`
	Start            time.Time          `json:"start"`
	End              time.Time          `json:"end"`
	Summary          *telemetry.Summary `json:"summary,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// TelemetryBatchFromModel converts a store.TelemetryBatch to its DTO.
func TelemetryBatchFromModel(b store.TelemetryBatch, includeSummary bool) (TelemetryBatchDTO, error) {
	dto := TelemetryBatchDTO{
		ID:               b.ID,
		Name:             b.Name,
		OriginalFilename: b.OriginalFilename,
		Rows:             b.RowCount,
		Start:            b.StartAt,
		End:              b.EndAt,
		CreatedAt:        b.CreatedAt,
	}
	if includeSummary {
		summary, err := b.Summary()
		if err != nil {
			return dto, err
		}
		dto.Summary = &summary
	}
	return dto, nil
}

// TelemetryBatchesResponse is the paginated telemetry listing payload.
type TelemetryBatchesResponse struct {
	Items []TelemetryBatchDTO `json:"items"`
	Total int64               `json:"total"`
}
