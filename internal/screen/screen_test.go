package screen

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
	"github.com/GriffinCanCode/fishbot/internal/syncx"
)

type fakeCapturer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCapturer) Capture() (*image.RGBA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Pix[0] = uint8(f.calls)
	return img, nil
}

func (f *fakeCapturer) Name() string { return "fake" }
func (f *fakeCapturer) Close()       {}

func (f *fakeCapturer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestProducerPublishesFrames(t *testing.T) {
	var slot syncx.Slot[image.RGBA]
	c := &fakeCapturer{}
	p := NewProducer(c, &slot, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for c.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if n := c.count(); n < 3 {
		t.Fatalf("captured %d frames, want at least 3", n)
	}
	if slot.Load() == nil {
		t.Error("slot empty after capture")
	}
}

func TestProducerBacksOffOnError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"device fault", apperrors.New(apperrors.CaptureFailed, "no active display")},
		{"unexpected fault", errors.New("display gone")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slot syncx.Slot[image.RGBA]
			c := &fakeCapturer{err: tt.err}
			p := NewProducer(c, &slot, time.Millisecond)
			p.backoff = 20 * time.Millisecond

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			p.Run(ctx)

			if n := c.count(); n == 0 || n > 4 {
				t.Errorf("capture attempts = %d, want a few spaced by the backoff", n)
			}
			if slot.Load() != nil {
				t.Error("failed captures must not publish")
			}
		})
	}
}

func TestProducerStopsPromptly(t *testing.T) {
	var slot syncx.Slot[image.RGBA]
	p := NewProducer(&fakeCapturer{}, &slot, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	var finished atomic.Bool
	go func() {
		p.Run(ctx)
		finished.Store(true)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	deadline := time.Now().Add(time.Second)
	for !finished.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !finished.Load() {
		t.Error("producer ignored cancellation during its interval wait")
	}
}

func TestToolCapturer(t *testing.T) {
	c := NewToolCapturer()
	defer c.Close()

	var ran []string
	c.lookPath = func(name string) (string, error) {
		if name == "grim" {
			return "/usr/bin/grim", nil
		}
		return "", errors.New("not found")
	}
	c.run = func(name string, args ...string) error {
		ran = append(ran, name)
		img := image.NewRGBA(image.Rect(0, 0, 3, 2))
		img.Set(2, 1, color.RGBA{200, 10, 10, 255})
		f, err := os.Create(args[len(args)-1])
		if err != nil {
			return err
		}
		defer f.Close()
		return png.Encode(f, img)
	}

	if c.Name() != "grim" {
		t.Errorf("Name() = %q, want grim", c.Name())
	}
	img, err := c.Capture()
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 3 || img.RGBAAt(2, 1).R != 200 {
		t.Errorf("decoded frame wrong: %v", img.Bounds())
	}
	if len(ran) != 1 || ran[0] != "grim" {
		t.Errorf("ran %v, want [grim]", ran)
	}
	if minInterval(c) != ToolInterval {
		t.Errorf("minInterval = %v, want %v", minInterval(c), ToolInterval)
	}
}

func TestToolCapturerWithoutTools(t *testing.T) {
	c := NewToolCapturer()
	defer c.Close()
	c.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	if _, err := c.Capture(); err == nil {
		t.Error("Capture without tools should fail")
	}
}

func TestSpectacleArgs(t *testing.T) {
	args := waylandTools[0].args("/tmp/x.png")
	want := []string{"-b", "-n", "-o", "/tmp/x.png"}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("spectacle args = %v, want %v", args, want)
		}
	}
}
