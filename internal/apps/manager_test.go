package apps

import (
	"encoding/json"
	"os"
	"testing"
)

func TestNextVersion(t *testing.T) {
	tests := []struct {
		version  string
		expected string
	}{
		{"1.0", "1.1"},
		{"1.2", "1.3"},
		{"0.9", "0.10"},
		{"2", "2.1"},
		{"1.2.3", "1.2.4"},
		{"", "1.1"},
		{" 1.0 ", "1.1"},
		{"v2beta", "v2beta.1"},
		{"1.x", "1.x.1"},
	}
	for _, tc := range tests {
		if got := NextVersion(tc.version); got != tc.expected {
			t.Fatalf("NextVersion(%q) = %q, expected %q", tc.version, got, tc.expected)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	path := tempJSON(t, []App{
		{ID: "nav", Name: "Navigation", Version: "1.0", Preinstalled: true},
		{ID: "eco_drive", Name: "EcoDrive", Version: "1.0"},
	})

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load catalogue: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 apps, got %d", len(catalog))
	}
	if !catalog[0].Preinstalled || catalog[1].Preinstalled {
		t.Fatalf("preinstalled flags not preserved: %+v", catalog)
	}
}

func TestLoadCatalogRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		apps []App
	}{
		{"missing id", []App{{Name: "Navigation", Version: "1.0"}}},
		{"missing name", []App{{ID: "nav", Version: "1.0"}}},
		{"blank id", []App{{ID: "  ", Name: "Navigation"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := tempJSON(t, tc.apps)
			if _, err := LoadCatalog(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog("does-not-exist.json"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func tempJSON(t *testing.T, value any) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "catalog-*.json")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return f.Name()
}
