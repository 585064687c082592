package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

func TestLoadMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()

	if c := Load(filepath.Join(dir, "absent.json")); c.Len() != 0 {
		t.Errorf("missing file: Len() = %d, want 0", c.Len())
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if c := Load(bad); c.Len() != 0 {
		t.Errorf("malformed file: Len() = %d, want 0", c.Len())
	}
}

func TestLoadPatternForms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.json")
	data := `{
    "1": {"name": "Lake", "pattern": "lake"},
    "2": {"name": "Coast", "pattern": ["coast_day", "coast_night"]}
}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Load(path)
	lake, ok := c.Get("1")
	if !ok || lake.Name != "Lake" || len(lake.Pattern) != 1 || lake.Pattern[0] != "lake" {
		t.Errorf("Get(1) = %+v, %v", lake, ok)
	}
	coast, _ := c.Get("2")
	if len(coast.Pattern) != 2 || coast.Pattern[1] != "coast_night" {
		t.Errorf("Get(2).Pattern = %v", coast.Pattern)
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name        string
		areaName    string
		raw         string
		wantPattern []string
	}{
		{"derived from name", "Deep Sea", "", []string{"deepsea"}},
		{"single prefix", "River", "river_", []string{"river_"}},
		{"comma list", "Coast", "coast_day, coast_night,", []string{"coast_day", "coast_night"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Load(filepath.Join(t.TempDir(), "areas.json"))
			id, err := c.Add(tt.areaName, tt.raw)
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			a, _ := c.Get(id)
			if strings.Join(a.Pattern, "|") != strings.Join(tt.wantPattern, "|") {
				t.Errorf("pattern = %v, want %v", a.Pattern, tt.wantPattern)
			}
		})
	}
}

func TestAddAssignsNextNumericID(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "areas.json"))
	c.areas["3"] = Area{Name: "a"}
	c.areas["10"] = Area{Name: "b"}
	c.areas["custom"] = Area{Name: "c"}

	id, err := c.Add("next", "")
	if err != nil {
		t.Fatal(err)
	}
	if id != "11" {
		t.Errorf("Add() id = %q, want 11", id)
	}
	if got := strings.Join(c.IDs(), ","); got != "3,10,11,custom" {
		t.Errorf("IDs() = %s, want 3,10,11,custom", got)
	}

	empty := Load(filepath.Join(t.TempDir(), "areas.json"))
	if id, _ := empty.Add("first", ""); id != "1" {
		t.Errorf("first id = %q, want 1", id)
	}
}

func TestAddRejectsBlankName(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "areas.json"))
	if _, err := c.Add("  ", "x"); !apperrors.IsCode(err, apperrors.ConfigInvalid) {
		t.Errorf("Add(blank) error = %v, want ConfigInvalid", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "areas.json")
	c := Load(path)
	if _, err := c.Add("Lake", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Add("Coast", "coast_day,coast_night"); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `    "1": {`) || !strings.Contains(string(raw), `"pattern": "lake"`) {
		t.Errorf("saved JSON not indented with a scalar pattern:\n%s", raw)
	}

	reloaded := Load(path)
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded Len() = %d, want 2", reloaded.Len())
	}
	id, a, ok := reloaded.First()
	if !ok || id != "1" || a.Name != "Lake" {
		t.Errorf("First() = %q, %+v, %v", id, a, ok)
	}
}

func TestRemoveAndLookup(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "areas.json"))
	id, _ := c.Add("Deep Sea", "")

	if got, _, ok := c.Lookup("deep sea"); !ok || got != id {
		t.Errorf("Lookup by name = %q, %v", got, ok)
	}
	if err := c.Remove(id); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := c.Remove(id); err == nil {
		t.Error("Remove() of a missing id should fail")
	}
	if _, _, ok := c.First(); ok {
		t.Error("First() on empty catalog should report false")
	}
}
