package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/GriffinCanCode/fishbot/internal/audio"
	"github.com/GriffinCanCode/fishbot/internal/catalog"
	"github.com/GriffinCanCode/fishbot/internal/cue"
	"github.com/GriffinCanCode/fishbot/internal/prefs"
	"github.com/GriffinCanCode/fishbot/internal/session"
	"github.com/GriffinCanCode/fishbot/internal/templates"
	"github.com/GriffinCanCode/fishbot/internal/vision"
)

func loadStores() (*catalog.Catalog, *prefs.Prefs) {
	return catalog.Load(cfg.CatalogPath()), prefs.Load(cfg.PrefsPath())
}

// audioOpener adapts a portaudio source to the detector's stream interface.
func audioOpener(device int) cue.Opener {
	src := audio.NewSource(device)
	return cue.OpenerFunc(func(sampleRate, frames int) (cue.Stream, error) {
		s, err := src.Open(sampleRate, frames)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

func newLocator(imgs []templates.Image) session.LocatorCloser {
	return vision.NewMatcher(imgs)
}

func preferredDevice(p *prefs.Prefs) int {
	if idx, ok := p.AudioDevice(); ok {
		return idx
	}
	return audio.AutoDevice
}

// parseDevice accepts "auto" or a non-negative device index.
func parseDevice(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "auto" || s == "" {
		return audio.AutoDevice, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid device %q: want an index or \"auto\"", s)
	}
	return n, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func withAudio(fn func() error) error {
	if err := audio.Init(); err != nil {
		return err
	}
	defer func() { _ = audio.Terminate() }()
	return fn()
}
