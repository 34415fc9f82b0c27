package missions

import "testing"

func TestCatalogueIsWellFormed(t *testing.T) {
	missions := Catalogue()
	if len(missions) == 0 {
		t.Fatalf("empty mission catalogue")
	}

	seen := make(map[string]struct{}, len(missions))
	for _, m := range missions {
		if m.ID == "" || m.Title == "" || m.Steps == "" {
			t.Fatalf("mission %q has empty fields: %+v", m.ID, m)
		}
		if _, dup := seen[m.ID]; dup {
			t.Fatalf("duplicate mission id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
		if _, ok := badgeNames[m.Badge]; !ok {
			t.Fatalf("mission %q references unknown badge %q", m.ID, m.Badge)
		}
	}
}

func TestBadgeOrderCoversAllBadges(t *testing.T) {
	if len(badgeOrder) != len(badgeNames) {
		t.Fatalf("badge order has %d entries, names map has %d", len(badgeOrder), len(badgeNames))
	}
	seen := make(map[string]struct{}, len(badgeOrder))
	for _, id := range badgeOrder {
		if _, ok := badgeNames[id]; !ok {
			t.Fatalf("ordered badge %q has no display name", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("badge %q listed twice", id)
		}
		seen[id] = struct{}{}
	}
}

func TestFind(t *testing.T) {
	if _, ok := find("m1"); !ok {
		t.Fatalf("expected to find mission m1")
	}
	if _, ok := find("m99"); ok {
		t.Fatalf("unexpected hit for unknown mission")
	}
}
