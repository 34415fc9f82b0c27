package missions

import (
	"errors"
	"fmt"
	"time"

	"sdv-lab/backend/internal/store"
)

// Mission is a guided hands-on challenge. Completing it unlocks a badge.
type Mission struct {
	ID    string
	Title string
	Steps string
	Badge string
}

// ErrUnknownMission is returned for ids outside the catalogue.
var ErrUnknownMission = errors.New("mission not in catalogue")

var catalogue = []Mission{
	{
		ID:    "m1",
		Title: "Mission 1 - Install & update an app",
		Steps: "1) Play Store: install EcoDrive & Battery.\n2) Installed Apps: update EcoDrive.\n3) Infotainment: verify version bump.",
		Badge: "ota_expert",
	},
	{
		ID:    "m2",
		Title: "Mission 2 - Eco vs Sport battery impact",
		Steps: "1) Driving Dashboard: Eco mode, throttle 40%, run 40 steps.\n2) Record SOC.\n3) Switch to Sport, same throttle, run 40 steps.\n4) Compare SOC drop.",
		Badge: "eco_champion",
	},
	{
		ID:    "m3",
		Title: "Mission 3 - ADAS lane-departure demo",
		Steps: "1) Drive in mixed mode for ~80 steps.\n2) Open ECU Monitor > ADAS.\n3) Observe lane-offset & departure warnings.",
		Badge: "adas_specialist",
	},
	{
		ID:    "m4",
		Title: "Mission 4 - Predictive battery risk",
		Steps: "1) Drive Eco + Sport (>=60 steps total).\n2) Predictive: use Driving Log.\n3) View risk score & component breakdown.",
		Badge: "battery_guru",
	},
	{
		ID:    "m5",
		Title: "Mission 5 - Telemetry upload & summary",
		Steps: "1) Export a drive log as CSV.\n2) Upload it on the Telemetry page.\n3) Read min/max/mean for voltage and temperature.",
		Badge: "data_analyst",
	},
	{
		ID:    "m6",
		Title: "Mission 6 - Submit a scenario report",
		Steps: "1) Run scenario E1 end to end.\n2) Fill the report form with your metrics.\n3) Generate and download the Markdown report.",
		Badge: "fleet_engineer",
	},
}

var badgeNames = map[string]string{
	"eco_champion":    "Eco Champion",
	"ota_expert":      "OTA Expert",
	"adas_specialist": "ADAS Specialist",
	"battery_guru":    "Battery Guru",
	"drive_master":    "Drive Master",
	"data_analyst":    "Data Analyst",
	"fleet_engineer":  "Fleet Engineer",
}

var badgeOrder = []string{
	"eco_champion",
	"ota_expert",
	"adas_specialist",
	"battery_guru",
	"drive_master",
	"data_analyst",
	"fleet_engineer",
}

// Status pairs a mission with its persisted completion state.
type Status struct {
	Mission
	Completed   bool
	CompletedAt *time.Time
}

// BadgeStatus reports whether a badge has been unlocked.
type BadgeStatus struct {
	ID       string
	Name     string
	Unlocked bool
}

// Tracker persists mission progress and derives badges from it.
type Tracker struct {
	db *store.Database
}

// NewTracker builds a tracker over the shared database.
func NewTracker(db *store.Database) *Tracker {
	return &Tracker{db: db}
}

// Catalogue returns the fixed mission list.
func Catalogue() []Mission {
	out := make([]Mission, len(catalogue))
	copy(out, catalogue)
	return out
}

// List returns every mission with its completion state.
func (t *Tracker) List() ([]Status, error) {
	progress, err := t.db.ListMissionProgress()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]store.MissionProgress, len(progress))
	for _, row := range progress {
		byID[row.MissionID] = row
	}

	out := make([]Status, 0, len(catalogue))
	for _, m := range catalogue {
		status := Status{Mission: m}
		if row, ok := byID[m.ID]; ok && row.Completed {
			status.Completed = true
			status.CompletedAt = row.CompletedAt
		}
		out = append(out, status)
	}
	return out, nil
}

// Complete marks a mission done. Completing an already completed mission is a
// no-op and returns the stored state.
func (t *Tracker) Complete(id string) (Status, error) {
	mission, ok := find(id)
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrUnknownMission, id)
	}

	row, err := t.db.GetMissionProgress(mission.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Status{}, err
	}
	if row != nil && row.Completed {
		return Status{Mission: mission, Completed: true, CompletedAt: row.CompletedAt}, nil
	}

	now := time.Now().UTC()
	saved := store.MissionProgress{MissionID: mission.ID, Completed: true, CompletedAt: &now}
	if err := t.db.SaveMissionProgress(&saved); err != nil {
		return Status{}, err
	}
	return Status{Mission: mission, Completed: true, CompletedAt: saved.CompletedAt}, nil
}

// Badges derives the badge wall from mission completion.
func (t *Tracker) Badges() ([]BadgeStatus, error) {
	statuses, err := t.List()
	if err != nil {
		return nil, err
	}
	unlocked := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		if s.Completed {
			unlocked[s.Badge] = true
		}
	}

	out := make([]BadgeStatus, 0, len(badgeOrder))
	for _, id := range badgeOrder {
		out = append(out, BadgeStatus{ID: id, Name: badgeNames[id], Unlocked: unlocked[id]})
	}
	return out, nil
}

func find(id string) (Mission, bool) {
	for _, m := range catalogue {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}
