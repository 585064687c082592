// Package prefs keeps the user's choices (area, audio device, cast action)
// in a small key=value file next to the area catalog.
package prefs

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

const (
	KeySelectedArea = "selected_area"
	KeyAudioDevice  = "audio_device_id"
	KeyCastButton   = "cast_button"

	DefaultCastButton = "middle"

	header = "# Fishingbot options\n"
)

type Prefs struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

// Load reads path. A missing or unreadable file leaves every key at its
// default; lines without '=' are ignored. When cast_button is absent the
// default is written back.
func Load(path string) *Prefs {
	p := &Prefs{path: path, v: newViper()}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := p.v.ReadConfig(bytes.NewReader(filterLines(data))); err != nil {
			slog.Warn("malformed options file, using defaults", "path", path, "error", err)
			p.v = newViper()
		}
	case !os.IsNotExist(err):
		slog.Warn("failed to read options file", "path", path, "error", err)
	}

	if strings.TrimSpace(p.v.GetString(KeyCastButton)) == "" {
		p.v.Set(KeyCastButton, DefaultCastButton)
		if err := p.Save(); err != nil {
			slog.Warn("failed to write default options", "path", path, "error", err)
		}
	}
	return p
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("env")
	return v
}

// filterLines drops lines the dotenv parser would reject.
func filterLines(data []byte) []byte {
	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		k, val, _ := strings.Cut(line, "=")
		out.WriteString(strings.TrimSpace(k))
		out.WriteByte('=')
		out.WriteString(strings.TrimSpace(val))
		out.WriteByte('\n')
	}
	return out.Bytes()
}

func (p *Prefs) Path() string { return p.path }

// SelectedArea returns the stored area id, or "" when none is selected.
func (p *Prefs) SelectedArea() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.TrimSpace(p.v.GetString(KeySelectedArea))
}

// AudioDevice returns the stored device index. ok is false for automatic
// selection, which covers a blank or malformed value.
func (p *Prefs) AudioDevice() (index int, ok bool) {
	p.mu.Lock()
	raw := strings.TrimSpace(p.v.GetString(KeyAudioDevice))
	p.mu.Unlock()
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		slog.Debug("ignoring malformed audio device preference", "value", raw)
		return 0, false
	}
	return n, true
}

func (p *Prefs) CastButton() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s := strings.TrimSpace(p.v.GetString(KeyCastButton)); s != "" {
		return s
	}
	return DefaultCastButton
}

func (p *Prefs) SetSelectedArea(id string) error { return p.set(KeySelectedArea, id) }

// SetAudioDevice stores an explicit device; a negative index means automatic.
func (p *Prefs) SetAudioDevice(index int) error {
	if index < 0 {
		return p.set(KeyAudioDevice, "")
	}
	return p.set(KeyAudioDevice, strconv.Itoa(index))
}

func (p *Prefs) SetCastButton(action string) error {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		action = DefaultCastButton
	}
	return p.set(KeyCastButton, action)
}

func (p *Prefs) set(key, value string) error {
	p.mu.Lock()
	p.v.Set(key, strings.TrimSpace(value))
	p.mu.Unlock()
	return p.Save()
}

// Save rewrites the file with a comment header followed by every key as
// lower-case key=value, sorted by key.
func (p *Prefs) Save() error {
	var buf bytes.Buffer
	buf.WriteString(header)

	p.mu.Lock()
	settings := p.v.AllSettings()
	p.mu.Unlock()
	for _, k := range slices.Sorted(maps.Keys(settings)) {
		fmt.Fprintf(&buf, "%s=%v\n", strings.ToLower(k), settings[k])
	}

	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(err, apperrors.StoreFailed, "create options directory")
		}
	}
	if err := os.WriteFile(p.path, buf.Bytes(), 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.StoreFailed, "write options").WithMetadata("path", p.path)
	}
	return nil
}
