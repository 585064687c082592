// Package catalog persists the fishing areas: an id keyed map of display
// names and template prefix patterns stored as areas.json.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
	"github.com/GriffinCanCode/fishbot/internal/templates"
)

// Area is one fishing spot.
type Area struct {
	Name    string            `json:"name"`
	Pattern templates.Pattern `json:"pattern"`
}

// Entry pairs an area with its id.
type Entry struct {
	ID string `json:"id"`
	Area
}

type Catalog struct {
	mu    sync.RWMutex
	path  string
	areas map[string]Area
}

// Load reads path. A missing file yields an empty catalog; a malformed one is
// logged and also yields an empty catalog.
func Load(path string) *Catalog {
	c := &Catalog{path: path, areas: make(map[string]Area)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read area catalog", "path", path, "error", err)
		}
		return c
	}
	var areas map[string]Area
	if err := json.Unmarshal(data, &areas); err != nil {
		slog.Warn("malformed area catalog, starting empty", "path", path, "error", err)
		return c
	}
	for id, a := range areas {
		c.areas[id] = a
	}
	return c
}

func (c *Catalog) Path() string { return c.path }

// Save writes the catalog as indented JSON.
func (c *Catalog) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.areas, "", "    ")
	c.mu.RUnlock()
	if err != nil {
		return apperrors.Wrap(err, apperrors.StoreFailed, "encode area catalog")
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(err, apperrors.StoreFailed, "create catalog directory")
		}
	}
	if err := os.WriteFile(c.path, append(data, '\n'), 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.StoreFailed, "write area catalog").WithMetadata("path", c.path)
	}
	return nil
}

func (c *Catalog) Get(id string) (Area, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.areas[id]
	return a, ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.areas)
}

// IDs returns the ids in numeric order; non-numeric ids sort last, lexically.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.areas))
	for id := range c.areas {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	slices.SortFunc(ids, compareIDs)
	return ids
}

func (c *Catalog) Entries() []Entry {
	ids := c.IDs()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if a, ok := c.areas[id]; ok {
			out = append(out, Entry{ID: id, Area: a})
		}
	}
	return out
}

// First returns the lowest id, used when no area has been selected.
func (c *Catalog) First() (string, Area, bool) {
	ids := c.IDs()
	if len(ids) == 0 {
		return "", Area{}, false
	}
	a, ok := c.Get(ids[0])
	return ids[0], a, ok
}

// Add stores a new area under the next free numeric id. A blank pattern is
// derived from the name (lower case, spaces removed); commas separate several
// prefixes.
func (c *Catalog) Add(name, rawPattern string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.New(apperrors.ConfigInvalid, "area name must not be empty")
	}
	pattern := templates.ParsePattern(rawPattern)
	if len(pattern) == 0 {
		pattern = templates.Pattern{strings.ReplaceAll(strings.ToLower(name), " ", "")}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	maxID := 0
	for id := range c.areas {
		if n, err := strconv.Atoi(id); err == nil && n > maxID {
			maxID = n
		}
	}
	id := strconv.Itoa(maxID + 1)
	c.areas[id] = Area{Name: name, Pattern: pattern}
	return id, nil
}

func (c *Catalog) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.areas[id]; !ok {
		return apperrors.New(apperrors.ConfigInvalid, fmt.Sprintf("unknown area %q", id))
	}
	delete(c.areas, id)
	return nil
}

// Lookup resolves an id or, failing that, a case-insensitive display name.
func (c *Catalog) Lookup(key string) (string, Area, bool) {
	if a, ok := c.Get(key); ok {
		return key, a, true
	}
	for _, e := range c.Entries() {
		if strings.EqualFold(e.Name, key) {
			return e.ID, e.Area, true
		}
	}
	return "", Area{}, false
}

func compareIDs(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
