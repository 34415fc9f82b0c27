package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Difficulty tiers for the lab scenario catalogues.
const (
	DifficultyEasy     = "easy"
	DifficultyAdvanced = "advanced"
)

// Metric describes one value the trainee collects while running a scenario.
type Metric struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Unit  string `json:"unit"`
}

// Scenario is a single lab exercise: what to do in the dashboard and which
// numbers to bring back.
type Scenario struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Objective  string   `json:"objective"`
	Steps      []string `json:"steps"`
	Metrics    []Metric `json:"metrics"`
	Difficulty string   `json:"difficulty,omitempty"`
}

// Catalog holds the loaded scenario sets keyed by id, preserving file order.
type Catalog struct {
	scenarios []Scenario
	byID      map[string]int
}

// Load reads one catalogue file and tags every scenario with the difficulty.
func Load(path, difficulty string) ([]Scenario, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var scenarios []Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("unmarshal scenarios: %w", err)
	}
	for i := range scenarios {
		scenarios[i].Difficulty = difficulty
	}
	return scenarios, nil
}

// NewCatalog loads the easy and advanced catalogue files and validates the
// combined set.
func NewCatalog(easyPath, advancedPath string) (*Catalog, error) {
	easy, err := Load(easyPath, DifficultyEasy)
	if err != nil {
		return nil, fmt.Errorf("easy catalogue: %w", err)
	}
	advanced, err := Load(advancedPath, DifficultyAdvanced)
	if err != nil {
		return nil, fmt.Errorf("advanced catalogue: %w", err)
	}

	all := make([]Scenario, 0, len(easy)+len(advanced))
	all = append(all, easy...)
	all = append(all, advanced...)
	if len(all) == 0 {
		return nil, errors.New("no scenarios loaded")
	}

	byID := make(map[string]int, len(all))
	for i, sc := range all {
		if err := validate(sc); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.ID, err)
		}
		key := normalizeID(sc.ID)
		if _, ok := byID[key]; ok {
			return nil, fmt.Errorf("duplicate scenario id %q", sc.ID)
		}
		byID[key] = i
	}

	return &Catalog{scenarios: all, byID: byID}, nil
}

func validate(sc Scenario) error {
	if strings.TrimSpace(sc.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(sc.Title) == "" {
		return errors.New("title is required")
	}
	if len(sc.Steps) == 0 {
		return errors.New("at least one step is required")
	}
	seen := make(map[string]struct{}, len(sc.Metrics))
	for _, m := range sc.Metrics {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return errors.New("metric name is required")
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate metric %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// List returns scenarios, optionally filtered by difficulty, in file order.
func (c *Catalog) List(difficulty string) []Scenario {
	if c == nil {
		return nil
	}
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if difficulty == "" {
		out := make([]Scenario, len(c.scenarios))
		copy(out, c.scenarios)
		return out
	}
	var out []Scenario
	for _, sc := range c.scenarios {
		if sc.Difficulty == difficulty {
			out = append(out, sc)
		}
	}
	return out
}

// Get looks a scenario up by id (case-insensitive).
func (c *Catalog) Get(id string) (Scenario, bool) {
	if c == nil {
		return Scenario{}, false
	}
	idx, ok := c.byID[normalizeID(id)]
	if !ok {
		return Scenario{}, false
	}
	return c.scenarios[idx], true
}

// Len reports the number of loaded scenarios.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.scenarios)
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
