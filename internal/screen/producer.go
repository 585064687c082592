package screen

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
	"github.com/GriffinCanCode/fishbot/internal/resilience"
	"github.com/GriffinCanCode/fishbot/internal/syncx"
)

const (
	// ErrorBackoff is the pause after a failed capture.
	ErrorBackoff = time.Second
	// FPSReportInterval spaces capture rate log lines.
	FPSReportInterval = 3 * time.Second
)

// Producer keeps a frame slot filled with the latest capture.
type Producer struct {
	capturer  Capturer
	slot      *syncx.Slot[image.RGBA]
	interval  time.Duration
	backoff   time.Duration
	reportDur time.Duration
	breaker   *resilience.Breaker
}

func NewProducer(c Capturer, slot *syncx.Slot[image.RGBA], interval time.Duration) *Producer {
	return &Producer{
		capturer:  c,
		slot:      slot,
		interval:  max(interval, minInterval(c)),
		backoff:   ErrorBackoff,
		reportDur: FPSReportInterval,
		breaker:   resilience.New(resilience.CaptureConfig()),
	}
}

// Run captures until ctx is cancelled. Frames are published wholesale; a
// failed capture leaves the previous frame in place.
func (p *Producer) Run(ctx context.Context) {
	slog.Info("screen capture started", "backend", p.capturer.Name(), "interval", p.interval)
	defer slog.Info("screen capture stopped")

	frames := 0
	windowStart := time.Now()

	for ctx.Err() == nil {
		var img *image.RGBA
		err := p.breaker.Execute(func() error {
			var err error
			img, err = p.capturer.Capture()
			return err
		})

		switch {
		case errors.Is(err, resilience.ErrOpen):
			wait(ctx, p.backoff)
			continue
		case apperrors.IsRetryable(err):
			slog.Warn("screen capture failed", "error", err)
			wait(ctx, p.backoff)
			continue
		case err != nil:
			slog.Error("screen capture failed", "backend", p.capturer.Name(), "error", err)
			wait(ctx, p.backoff)
			continue
		}

		p.slot.Store(img)
		frames++

		if elapsed := time.Since(windowStart); elapsed >= p.reportDur {
			slog.Info("capture rate", "fps", float64(frames)/elapsed.Seconds())
			frames = 0
			windowStart = time.Now()
		}
		wait(ctx, p.interval)
	}
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
