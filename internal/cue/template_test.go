package cue

import (
	"math"
	"path/filepath"
	"testing"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

func TestResampleLength(t *testing.T) {
	x := make([]float64, 441)
	for i := range x {
		x[i] = float64(i)
	}
	y := resample(x, 44100, 48000)
	if len(y) != 480 {
		t.Fatalf("len = %d, want 480", len(y))
	}
	if y[0] != 0 {
		t.Errorf("y[0] = %f, want 0", y[0])
	}
	// linear ramp stays a ramp with slope src/dst
	if d := y[10] - y[9]; math.Abs(d-44100.0/48000.0) > 1e-9 {
		t.Errorf("slope = %f, want %f", d, 44100.0/48000.0)
	}
	if same := resample(x, 48000, 48000); len(same) != len(x) {
		t.Errorf("identity resample changed length to %d", len(same))
	}
}

func TestTrimSilence(t *testing.T) {
	x := make([]float64, 8192)
	for i := 3072; i < 5120; i++ {
		x[i] = math.Sin(float64(i) / 5)
	}

	y := trimSilence(x, TrimTopDB, TrimFrameSize, TrimHopSize)

	if len(y) >= len(x) {
		t.Fatalf("trim kept %d of %d samples", len(y), len(x))
	}
	if len(y) < 2048 {
		t.Fatalf("trim cut into the signal: %d samples left", len(y))
	}
	if trimSilence(make([]float64, 100), TrimTopDB, TrimFrameSize, TrimHopSize) != nil {
		t.Error("all-silent input should trim to nothing")
	}
}

func TestPrepareNormalizesPeak(t *testing.T) {
	x := make([]float64, 4096)
	for i := range x {
		x[i] = 0.25 * math.Sin(float64(i)/7)
	}
	x[100] = -0.5

	tmpl := Prepare(x, 48000, 48000)

	peak := 0.0
	for _, v := range tmpl {
		peak = math.Max(peak, math.Abs(v))
	}
	if math.Abs(peak-1) > 1e-12 {
		t.Errorf("peak = %f, want 1", peak)
	}
}

func TestLoadTemplateMissingFile(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "Catchsound.mp3"), 48000)
	if !apperrors.IsCode(err, apperrors.ConfigMissing) {
		t.Errorf("LoadTemplate(missing) error = %v, want CONFIG_MISSING", err)
	}
}
