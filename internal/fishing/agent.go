// Package fishing runs the cast, locate, confirm and retrieve cycle.
//
// The cycle is a chain of state functions; each returns the next one, and a
// nil return ends the chain. Every state checks the context on entry and
// every wait is sliced into poll-sized steps, so a stop request is honored
// within one poll interval and no input is sent after it.
package fishing

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/fishbot/internal/input"
	"github.com/GriffinCanCode/fishbot/internal/trace"
)

var ErrAlreadyRunning = errors.New("fishing agent already running")

// FrameSource returns the latest screen frame, or nil when none exists yet.
type FrameSource interface {
	Frame() *image.RGBA
}

type FrameFunc func() *image.RGBA

func (f FrameFunc) Frame() *image.RGBA { return f() }

// Locator finds the target in a frame.
type Locator interface {
	Locate(frame *image.RGBA) (loc image.Point, confidence float64, ok bool)
}

// CueWaiter reports whether the confirmation sound played within timeout.
type CueWaiter interface {
	AwaitCue(ctx context.Context, timeout time.Duration) bool
}

// Transition is a state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Cycle records one cast from throw to retrieve.
type Cycle struct {
	Index      int
	Start      time.Time
	End        time.Time
	Outcome    Outcome
	Found      bool
	Target     image.Point
	Confidence float64
}

func (c Cycle) Duration() time.Duration { return c.End.Sub(c.Start) }

// Observer is told about transitions and finished cycles. Calls are made
// from the agent goroutine and must not block.
type Observer interface {
	OnTransition(Transition)
	OnCycle(Cycle)
}

type Config struct {
	Frames   FrameSource
	Locator  Locator
	Cue      CueWaiter
	Input    input.Dispatcher
	Cast     input.CastAction
	Timing   Timing
	Observer Observer
}

type Agent struct {
	frames   FrameSource
	locator  Locator
	cue      CueWaiter
	input    input.Dispatcher
	cast     input.CastAction
	timing   Timing
	observer Observer
	jitter   func() time.Duration

	running atomic.Bool
	state   atomic.Int32
	cycles  atomic.Int64

	// owned by the running chain
	cur      *Cycle
	cycleCtx context.Context
	span     *trace.Span
	log      *slog.Logger
}

func New(cfg Config) *Agent {
	a := &Agent{
		frames:   cfg.Frames,
		locator:  cfg.Locator,
		cue:      cfg.Cue,
		input:    cfg.Input,
		cast:     cfg.Cast,
		timing:   cfg.Timing.withDefaults(),
		observer: cfg.Observer,
		log:      slog.Default(),
	}
	if a.cast == (input.CastAction{}) {
		a.cast = input.DefaultCast
	}
	a.jitter = a.uniformJitter
	return a
}

func (a *Agent) State() State  { return State(a.state.Load()) }
func (a *Agent) Running() bool { return a.running.Load() }
func (a *Agent) Cycles() int64 { return a.cycles.Load() }

type stateFn func(ctx context.Context) stateFn

// Run drives cycles until ctx is cancelled. A second concurrent call returns
// ErrAlreadyRunning; a call with an already cancelled ctx returns at once
// without sending input.
func (a *Agent) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	if ctx.Err() != nil {
		return nil
	}
	trace.Logger(ctx).Info("fishing started", "cast", a.cast.String())

	for fn := a.rest; fn != nil; {
		fn = fn(ctx)
	}

	a.finishCycle(OutcomeCancelled)
	a.setState(Idle)
	trace.Logger(ctx).Info("fishing stopped", "cycles", a.cycles.Load())
	return nil
}

// rest is the jittered pause before each cast.
func (a *Agent) rest(ctx context.Context) stateFn {
	if !a.wait(ctx, a.jitter()) {
		return nil
	}
	return a.throw
}

func (a *Agent) throw(ctx context.Context) stateFn {
	if ctx.Err() != nil {
		return nil
	}
	a.beginCycle(ctx)
	a.setState(Casting)

	if err := a.cast.Dispatch(a.input); err != nil {
		a.log.Warn("cast failed", "action", a.cast.String(), "error", err)
	}
	if !a.wait(ctx, a.timing.Settle) {
		return nil
	}
	return a.locate
}

func (a *Agent) locate(ctx context.Context) stateFn {
	if ctx.Err() != nil {
		return nil
	}
	a.setState(LocatingTarget)

	frame := a.frames.Frame()
	if frame == nil {
		a.log.Warn("no frame available, retrieving")
		a.cur.Outcome = OutcomeNoTarget
		return a.retrieve
	}

	loc, confidence, ok := a.locator.Locate(frame)
	a.cur.Confidence = confidence
	if !ok {
		a.log.Info("target not found, retrieving")
		a.cur.Outcome = OutcomeNoTarget
		return a.retrieve
	}
	a.cur.Found, a.cur.Target = true, loc
	a.log.Info("target located", "x", loc.X, "y", loc.Y, "confidence", confidence)

	if ctx.Err() != nil {
		return nil
	}
	if err := a.input.MoveTo(loc.X+a.timing.PointerOffsetX, loc.Y, a.timing.Move, input.EaseOutQuad); err != nil {
		a.log.Warn("pointer move failed", "error", err)
	}
	return a.confirm
}

func (a *Agent) confirm(ctx context.Context) stateFn {
	if ctx.Err() != nil {
		return nil
	}
	a.setState(ConfirmingCue)

	if a.cue.AwaitCue(a.cycleCtx, a.timing.CueTimeout) {
		a.cur.Outcome = OutcomeCaught
	} else {
		if ctx.Err() != nil {
			return nil
		}
		a.log.Info("cue not heard", "timeout", a.timing.CueTimeout)
		a.cur.Outcome = OutcomeTimeout
	}
	return a.retrieve
}

func (a *Agent) retrieve(ctx context.Context) stateFn {
	if ctx.Err() != nil {
		return nil
	}
	a.setState(Retrieving)

	if err := a.input.PressButton(input.ButtonRight); err != nil {
		a.log.Warn("retrieve failed", "error", err)
	}
	a.finishCycle(a.cur.Outcome)

	if !a.wait(ctx, a.timing.RetrievePause) {
		return nil
	}
	return a.rest
}

func (a *Agent) beginCycle(ctx context.Context) {
	idx := int(a.cycles.Add(1))
	a.cycleCtx, a.span = trace.StartSpan(ctx, "fishing_cycle")
	a.span.SetAttr("cycle", idx)
	a.log = trace.Logger(a.cycleCtx).With("cycle", idx)
	a.cur = &Cycle{Index: idx, Start: time.Now()}
}

// finishCycle reports the current cycle, if any, with outcome.
func (a *Agent) finishCycle(outcome Outcome) {
	if a.cur == nil {
		return
	}
	c := *a.cur
	c.Outcome = outcome
	c.End = time.Now()
	a.cur = nil

	a.span.SetAttr("outcome", string(outcome))
	a.span.End()
	a.log.Info("cycle finished", "span", a.span)

	if a.observer != nil {
		a.observer.OnCycle(c)
	}
}

func (a *Agent) setState(s State) {
	from := State(a.state.Swap(int32(s)))
	if from == s || a.observer == nil {
		return
	}
	a.observer.OnTransition(Transition{From: from, To: s, At: time.Now()})
}

// wait sleeps d in poll-sized steps, returning false as soon as ctx is done.
func (a *Agent) wait(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if ctx.Err() != nil {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		t := time.NewTimer(min(remaining, a.timing.Poll))
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}

func (a *Agent) uniformJitter() time.Duration {
	span := a.timing.JitterMax - a.timing.JitterMin
	if span <= 0 {
		return a.timing.JitterMin
	}
	return a.timing.JitterMin + rand.N(span)
}
