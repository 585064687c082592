// Package cue listens to live audio for a short reference clip (the "bite"
// sound) using streaming cross-correlation.
package cue

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/fishbot/internal/resilience"
	"github.com/GriffinCanCode/fishbot/internal/trace"
)

// Stream is a started mono input stream delivering one chunk per Read.
type Stream interface {
	Read() ([]float32, error)
	Close() error
}

// Opener opens a stream of frames samples per chunk at sampleRate.
type Opener interface {
	Open(sampleRate, frames int) (Stream, error)
}

type OpenerFunc func(sampleRate, frames int) (Stream, error)

func (f OpenerFunc) Open(sampleRate, frames int) (Stream, error) { return f(sampleRate, frames) }

type Options struct {
	SampleRate   int
	Threshold    float64
	SilenceFloor float64
	Chunk        time.Duration
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.SilenceFloor <= 0 {
		o.SilenceFloor = DefaultSilenceFloor
	}
	if o.Chunk <= 0 {
		o.Chunk = DefaultChunk
	}
	return o
}

func (o Options) chunkFrames() int {
	return max(1, int(float64(o.SampleRate)*o.Chunk.Seconds()))
}

// Stats counts detector work since construction.
type Stats struct {
	Chunks       int64
	Correlations int64
	Detections   int64
	LastScore    float64
}

// Detector answers "did the cue play within this window?".
type Detector struct {
	tmpl    Template
	opener  Opener
	opts    Options
	breaker *resilience.Breaker
	corr    *Correlator

	mu           sync.Mutex
	chunks       atomic.Int64
	correlations atomic.Int64
	detections   atomic.Int64
	lastScore    atomic.Uint64
}

// NewDetector builds a detector. A nil or empty template is accepted and
// makes every AwaitCue report false.
func NewDetector(tmpl Template, opener Opener, opts Options) *Detector {
	return &Detector{
		tmpl:    tmpl,
		opener:  opener,
		opts:    opts.withDefaults(),
		breaker: resilience.New(resilience.AudioConfig()),
		corr:    NewCorrelator(tmpl),
	}
}

// WithBreaker replaces the audio breaker.
func (d *Detector) WithBreaker(b *resilience.Breaker) *Detector {
	d.breaker = b
	return d
}

func (d *Detector) TemplateLen() int { return len(d.tmpl) }

func (d *Detector) Stats() Stats {
	return Stats{
		Chunks:       d.chunks.Load(),
		Correlations: d.correlations.Load(),
		Detections:   d.detections.Load(),
		LastScore:    math.Float64frombits(d.lastScore.Load()),
	}
}

// AwaitCue streams audio until the cue is heard (true), or until timeout
// elapses, ctx is cancelled or the device fails (false). timeout <= 0 waits
// indefinitely. The stream is open only for the duration of the call.
func (d *Detector) AwaitCue(ctx context.Context, timeout time.Duration) (detected bool) {
	log := trace.Logger(ctx)
	if len(d.tmpl) == 0 {
		log.Warn("no cue template loaded, skipping audio confirmation")
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	if err := d.breaker.Allow(); err != nil {
		log.Warn("audio input unavailable", "error", err)
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stream, err := d.opener.Open(d.opts.SampleRate, d.opts.chunkFrames())
	if err != nil {
		d.breaker.Failure()
		log.Error("failed to open audio stream", "error", err)
		return false
	}
	defer stream.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Error("cue detection panicked", "panic", r)
			detected = false
		}
	}()

	buf := NewOverlapBuffer(len(d.tmpl))
	start := time.Now()
	healthy := false

	for {
		if ctx.Err() != nil {
			return false
		}
		if timeout > 0 && time.Since(start) > timeout {
			log.Info("cue not heard before timeout", "timeout", timeout)
			return false
		}

		chunk, err := stream.Read()
		if err != nil {
			d.breaker.Failure()
			log.Error("audio read failed", "error", err)
			return false
		}
		if !healthy {
			d.breaker.Success()
			healthy = true
		}
		d.chunks.Add(1)

		work := buf.Push(chunk)
		if peakAbs(work) < d.opts.SilenceFloor {
			continue
		}

		score := d.corr.Peak(work)
		d.correlations.Add(1)
		d.lastScore.Store(math.Float64bits(score))
		if score > DebugScoreFloor {
			log.Debug("cue score", "score", score, "threshold", d.opts.Threshold)
		}
		if score > d.opts.Threshold {
			d.detections.Add(1)
			log.Info("cue detected", "score", score, "after", time.Since(start).Round(time.Millisecond))
			return true
		}
	}
}

// Listen keeps awaiting the cue until ctx ends, calling onCue for each hit and
// resting pause afterwards.
func (d *Detector) Listen(ctx context.Context, pause time.Duration, onCue func()) {
	for ctx.Err() == nil {
		if d.AwaitCue(ctx, 0) {
			if onCue != nil {
				onCue()
			}
			sleep(ctx, pause)
			continue
		}
		sleep(ctx, listenRetry)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
