package apps

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"sdv-lab/backend/internal/store"
)

// App describes an entry in the demo play-store catalogue.
type App struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	Icon         string `json:"icon"`
	Description  string `json:"description"`
	Preinstalled bool   `json:"preinstalled,omitempty"`
}

// Manager errors surfaced to the API layer.
var (
	ErrUnknownApp       = errors.New("app not in catalogue")
	ErrAlreadyInstalled = errors.New("app already installed")
	ErrNotInstalled     = errors.New("app not installed")
)

// Manager tracks installed demo apps on top of the persistent store.
type Manager struct {
	db      *store.Database
	catalog []App
	byID    map[string]App
}

// LoadCatalog reads the app catalogue JSON file.
func LoadCatalog(path string) ([]App, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read app catalogue: %w", err)
	}
	var catalog []App
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unmarshal app catalogue: %w", err)
	}
	for _, app := range catalog {
		if strings.TrimSpace(app.ID) == "" || strings.TrimSpace(app.Name) == "" {
			return nil, fmt.Errorf("app catalogue entry %q: id and name are required", app.ID)
		}
	}
	return catalog, nil
}

// NewManager loads the catalogue and seeds preinstalled apps that are not
// already present in the store.
func NewManager(db *store.Database, catalogPath string) (*Manager, error) {
	catalog, err := LoadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]App, len(catalog))
	for _, app := range catalog {
		if _, ok := byID[app.ID]; ok {
			return nil, fmt.Errorf("duplicate app id %q", app.ID)
		}
		byID[app.ID] = app
	}

	m := &Manager{db: db, catalog: catalog, byID: byID}

	for _, app := range catalog {
		if !app.Preinstalled {
			continue
		}
		if _, err := m.Install(app.ID); err != nil {
			if errors.Is(err, ErrAlreadyInstalled) {
				continue
			}
			return nil, fmt.Errorf("seed app %s: %w", app.ID, err)
		}
		logrus.WithField("app", app.ID).Info("seeded preinstalled app")
	}

	return m, nil
}

// Catalog returns the store catalogue in file order.
func (m *Manager) Catalog() []App {
	out := make([]App, len(m.catalog))
	copy(out, m.catalog)
	return out
}

// Installed lists the currently installed apps.
func (m *Manager) Installed() ([]store.InstalledApp, error) {
	return m.db.ListInstalledApps()
}

// Install adds a catalogue app to the installed set.
func (m *Manager) Install(id string) (store.InstalledApp, error) {
	app, ok := m.byID[id]
	if !ok {
		return store.InstalledApp{}, fmt.Errorf("%w: %s", ErrUnknownApp, id)
	}
	if _, err := m.db.GetInstalledApp(id); err == nil {
		return store.InstalledApp{}, fmt.Errorf("%w: %s", ErrAlreadyInstalled, id)
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.InstalledApp{}, err
	}

	row := store.InstalledApp{
		AppID:       app.ID,
		Name:        app.Name,
		Version:     app.Version,
		Icon:        app.Icon,
		Description: app.Description,
	}
	if err := m.db.SaveInstalledApp(&row); err != nil {
		return store.InstalledApp{}, err
	}
	return row, nil
}

// Uninstall removes an installed app.
func (m *Manager) Uninstall(id string) error {
	removed, err := m.db.DeleteInstalledApp(id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}
	return nil
}

// BumpVersion increments the installed app version and persists it. It
// returns the previous and the new version.
func (m *Manager) BumpVersion(id string) (string, string, error) {
	row, err := m.db.GetInstalledApp(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", "", fmt.Errorf("%w: %s", ErrNotInstalled, id)
		}
		return "", "", err
	}

	previous := row.Version
	next := NextVersion(previous)
	row.Version = next
	if err := m.db.SaveInstalledApp(row); err != nil {
		return "", "", err
	}
	return previous, next, nil
}

// NextVersion increments the last dot-separated numeric component of a
// version string. "1.0" becomes "1.1", a bare "2" becomes "2.1", and any
// version with non-numeric parts gets ".1" appended.
func NextVersion(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return "1.1"
	}
	parts := strings.Split(version, ".")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := parseNonNegative(p)
		if err != nil {
			return version + ".1"
		}
		nums = append(nums, n)
	}
	if len(nums) == 1 {
		return fmt.Sprintf("%d.1", nums[0])
	}
	nums[len(nums)-1]++
	out := make([]string, len(nums))
	for i, n := range nums {
		out[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(out, ".")
}

func parseNonNegative(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty version component")
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric version component %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
