package fishing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/fishbot/internal/input"
)

type fakeInput struct {
	mu        sync.Mutex
	events    []string
	keyErr    error
	onPress   func(b input.Button, n int)
	rightHits int
}

func (f *fakeInput) PressButton(b input.Button) error {
	f.mu.Lock()
	f.events = append(f.events, "press "+b.String())
	if b == input.ButtonRight {
		f.rightHits++
	}
	n, hook := f.rightHits, f.onPress
	f.mu.Unlock()
	if hook != nil {
		hook(b, n)
	}
	return nil
}

func (f *fakeInput) PressKey(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "key "+key)
	return f.keyErr
}

func (f *fakeInput) MoveTo(x, y int, _ time.Duration, _ input.Easing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf("move %d,%d", x, y))
	return nil
}

func (f *fakeInput) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type fakeLocator struct {
	loc image.Point
	ok  bool
}

func (l fakeLocator) Locate(*image.RGBA) (image.Point, float64, bool) {
	if !l.ok {
		return image.Point{}, 0.3, false
	}
	return l.loc, 0.95, true
}

type fakeCue struct {
	mu    sync.Mutex
	heard bool
	calls int
}

func (c *fakeCue) AwaitCue(context.Context, time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.heard
}

type recorder struct {
	mu          sync.Mutex
	transitions []Transition
	cycles      []Cycle
}

func (r *recorder) OnTransition(t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

func (r *recorder) OnCycle(c Cycle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles = append(r.cycles, c)
}

func (r *recorder) path() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.transitions))
	for _, t := range r.transitions {
		out = append(out, t.From.String()+">"+t.To.String())
	}
	return out
}

func fastTiming() Timing {
	return Timing{
		Poll:           time.Millisecond,
		Settle:         time.Millisecond,
		Move:           time.Millisecond,
		RetrievePause:  time.Millisecond,
		CueTimeout:     time.Millisecond,
		PointerOffsetX: 25,
	}
}

func frame() *image.RGBA { return image.NewRGBA(image.Rect(0, 0, 4, 4)) }

// stopAfter cancels once the retrieve button was pressed n times.
func stopAfter(in *fakeInput, n int, cancel context.CancelFunc) {
	in.onPress = func(b input.Button, hits int) {
		if b == input.ButtonRight && hits >= n {
			cancel()
		}
	}
}

func TestAgentCaughtCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := &fakeInput{}
	stopAfter(in, 1, cancel)
	cue := &fakeCue{heard: true}
	rec := &recorder{}

	a := New(Config{
		Frames:   FrameFunc(frame),
		Locator:  fakeLocator{loc: image.Pt(100, 200), ok: true},
		Cue:      cue,
		Input:    in,
		Cast:     input.DefaultCast,
		Timing:   fastTiming(),
		Observer: rec,
	})
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantEvents := []string{"press middle", "move 125,200", "press right"}
	if got := in.Events(); !slices.Equal(got, wantEvents) {
		t.Errorf("events = %v, want %v", got, wantEvents)
	}
	wantPath := []string{
		"idle>casting", "casting>locating_target", "locating_target>confirming_cue",
		"confirming_cue>retrieving", "retrieving>idle",
	}
	if got := rec.path(); !slices.Equal(got, wantPath) {
		t.Errorf("transitions = %v, want %v", got, wantPath)
	}
	if len(rec.cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(rec.cycles))
	}
	c := rec.cycles[0]
	if c.Outcome != OutcomeCaught || !c.Found || c.Target != image.Pt(100, 200) || c.Index != 1 {
		t.Errorf("cycle = %+v", c)
	}
	if c.End.Before(c.Start) {
		t.Errorf("cycle ends before it starts: %+v", c)
	}
	if a.State() != Idle || a.Running() {
		t.Errorf("after Run: state=%v running=%v", a.State(), a.Running())
	}
}

func TestAgentOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		frames    FrameSource
		locator   fakeLocator
		heard     bool
		want      Outcome
		wantCues  int
		wantMoves int
	}{
		{"cue heard", FrameFunc(frame), fakeLocator{loc: image.Pt(5, 5), ok: true}, true, OutcomeCaught, 1, 1},
		{"cue missed", FrameFunc(frame), fakeLocator{loc: image.Pt(5, 5), ok: true}, false, OutcomeTimeout, 1, 1},
		{"target missing", FrameFunc(frame), fakeLocator{}, true, OutcomeNoTarget, 0, 0},
		{"no frame yet", FrameFunc(func() *image.RGBA { return nil }), fakeLocator{ok: true}, true, OutcomeNoTarget, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			in := &fakeInput{}
			stopAfter(in, 1, cancel)
			cue := &fakeCue{heard: tt.heard}
			rec := &recorder{}

			a := New(Config{Frames: tt.frames, Locator: tt.locator, Cue: cue, Input: in, Timing: fastTiming(), Observer: rec})
			_ = a.Run(ctx)

			if len(rec.cycles) != 1 || rec.cycles[0].Outcome != tt.want {
				t.Fatalf("cycles = %+v, want one %s", rec.cycles, tt.want)
			}
			if cue.calls != tt.wantCues {
				t.Errorf("cue calls = %d, want %d", cue.calls, tt.wantCues)
			}
			moves := 0
			for _, e := range in.Events() {
				if len(e) > 4 && e[:4] == "move" {
					moves++
				}
			}
			if moves != tt.wantMoves {
				t.Errorf("moves = %d, want %d", moves, tt.wantMoves)
			}
		})
	}
}

func TestAgentLoopsBackToCasting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := &fakeInput{}
	stopAfter(in, 2, cancel)
	rec := &recorder{}

	a := New(Config{Frames: FrameFunc(frame), Locator: fakeLocator{}, Cue: &fakeCue{}, Input: in, Timing: fastTiming(), Observer: rec})
	_ = a.Run(ctx)

	if len(rec.cycles) != 2 {
		t.Fatalf("cycles = %d, want 2", len(rec.cycles))
	}
	if rec.cycles[1].Index != 2 || a.Cycles() != 2 {
		t.Errorf("second cycle index = %d, Cycles() = %d", rec.cycles[1].Index, a.Cycles())
	}
	found := false
	for _, p := range rec.path() {
		if p == "retrieving>casting" {
			found = true
		}
	}
	if !found {
		t.Errorf("transitions %v never go from retrieving back to casting", rec.path())
	}
}

func TestAgentCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := &fakeInput{}
	rec := &recorder{}

	a := New(Config{Frames: FrameFunc(frame), Locator: fakeLocator{ok: true}, Cue: &fakeCue{}, Input: in, Timing: fastTiming(), Observer: rec})
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ev := in.Events(); len(ev) != 0 {
		t.Errorf("events = %v, want none", ev)
	}
	if len(rec.transitions) != 0 || len(rec.cycles) != 0 {
		t.Errorf("observer saw %d transitions and %d cycles", len(rec.transitions), len(rec.cycles))
	}
}

func TestAgentCancelDuringSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := &fakeInput{}
	in.onPress = func(b input.Button, _ int) {
		if b == input.ButtonMiddle {
			cancel()
		}
	}
	rec := &recorder{}
	timing := fastTiming()
	timing.Settle = time.Hour

	a := New(Config{Frames: FrameFunc(frame), Locator: fakeLocator{ok: true}, Cue: &fakeCue{}, Input: in, Timing: timing, Observer: rec})

	done := make(chan struct{})
	go func() {
		_ = a.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if got := in.Events(); !slices.Equal(got, []string{"press middle"}) {
		t.Errorf("events = %v, want only the cast", got)
	}
	if len(rec.cycles) != 1 || rec.cycles[0].Outcome != OutcomeCancelled {
		t.Errorf("cycles = %+v, want one cancelled", rec.cycles)
	}
}

func TestAgentSingleFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	timing := fastTiming()
	timing.Settle = time.Hour

	a := New(Config{Frames: FrameFunc(frame), Locator: fakeLocator{}, Cue: &fakeCue{}, Input: &fakeInput{}, Timing: timing})

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !a.Running() {
		if time.Now().After(deadline) {
			t.Fatal("agent never started")
		}
		time.Sleep(time.Millisecond)
	}
	if err := a.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("first Run() error = %v", err)
	}
}

func TestAgentKeyCastFailureIsNotFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := &fakeInput{keyErr: errors.New("unknown key")}
	stopAfter(in, 1, cancel)
	rec := &recorder{}

	a := New(Config{
		Frames: FrameFunc(frame), Locator: fakeLocator{}, Cue: &fakeCue{}, Input: in,
		Cast: input.KeyAction("nosuchkey"), Timing: fastTiming(), Observer: rec,
	})
	_ = a.Run(ctx)

	want := []string{"key nosuchkey", "press right"}
	if got := in.Events(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if len(rec.cycles) != 1 {
		t.Errorf("cycles = %d, want 1", len(rec.cycles))
	}
}

func TestUniformJitter(t *testing.T) {
	a := New(Config{Timing: Timing{JitterMin: 10 * time.Millisecond, JitterMax: 20 * time.Millisecond}})
	for range 200 {
		d := a.uniformJitter()
		if d < 10*time.Millisecond || d >= 20*time.Millisecond {
			t.Fatalf("jitter %v outside [10ms, 20ms)", d)
		}
	}

	fixed := New(Config{Timing: Timing{JitterMin: 5 * time.Millisecond, JitterMax: time.Millisecond}})
	if d := fixed.uniformJitter(); d != 5*time.Millisecond {
		t.Errorf("jitter with max < min = %v, want 5ms", d)
	}
}

func TestStateString(t *testing.T) {
	if LocatingTarget.String() != "locating_target" {
		t.Errorf("LocatingTarget.String() = %q", LocatingTarget.String())
	}
	if State(42).String() != "state(42)" {
		t.Errorf("State(42).String() = %q", State(42).String())
	}
}
