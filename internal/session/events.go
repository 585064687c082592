package session

import (
	"context"
	"time"

	"github.com/GriffinCanCode/fishbot/internal/fishing"
	"github.com/GriffinCanCode/fishbot/internal/resilience"
	"github.com/GriffinCanCode/fishbot/internal/trace"
)

const (
	EventBuffer = 64

	// RecordTimeout bounds a catch log write on the agent goroutine.
	RecordTimeout = 2 * time.Second
)

const (
	EventStarted    = "started"
	EventStopped    = "stopped"
	EventTransition = "transition"
	EventCycle      = "cycle"
	EventBreaker    = "breaker"
)

// Event is one entry of the session's event stream.
type Event struct {
	Type      string     `json:"type"`
	SessionID string     `json:"session_id"`
	Area      string     `json:"area,omitempty"`
	From      string     `json:"from,omitempty"`
	To        string     `json:"to,omitempty"`
	Breaker   string     `json:"breaker,omitempty"`
	Cycle     *CycleInfo `json:"cycle,omitempty"`
	At        time.Time  `json:"at"`
}

type CycleInfo struct {
	Index      int     `json:"index"`
	Outcome    string  `json:"outcome"`
	Found      bool    `json:"found"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Confidence float64 `json:"confidence"`
	DurationMs int64   `json:"duration_ms"`
}

// observer feeds agent callbacks into the session status, event stream and
// catch log.
type observer struct {
	s         *Session
	sessionID string
	area      string
}

func (o *observer) OnTransition(t fishing.Transition) {
	o.s.status.Write(func(v *Status) { v.State = t.To.String() })
	o.s.emit(Event{
		Type:      EventTransition,
		SessionID: o.sessionID,
		Area:      o.area,
		From:      t.From.String(),
		To:        t.To.String(),
		At:        t.At,
	})
}

func (o *observer) OnCycle(c fishing.Cycle) {
	o.s.status.Write(func(v *Status) {
		v.Cycles++
		if c.Outcome == fishing.OutcomeCaught {
			v.Caught++
		}
		v.LastOutcome = string(c.Outcome)
	})
	o.s.emit(Event{
		Type:      EventCycle,
		SessionID: o.sessionID,
		Area:      o.area,
		Cycle: &CycleInfo{
			Index:      c.Index,
			Outcome:    string(c.Outcome),
			Found:      c.Found,
			X:          c.Target.X,
			Y:          c.Target.Y,
			Confidence: c.Confidence,
			DurationMs: c.Duration().Milliseconds(),
		},
		At: c.End,
	})

	if o.s.deps.CatchLog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(trace.WithSession(context.Background(), o.sessionID), RecordTimeout)
	defer cancel()
	if err := o.s.deps.CatchLog.Record(ctx, o.sessionID, o.area, c); err != nil {
		trace.Logger(ctx).Warn("failed to record cycle", "cycle", c.Index, "error", err)
	}
}

// breakerHook reports a device breaker's state changes on the event stream.
func (s *Session) breakerHook(sessionID string, b *resilience.Breaker) func(from, to resilience.State) {
	return func(from, to resilience.State) {
		s.emit(Event{
			Type:      EventBreaker,
			SessionID: sessionID,
			Breaker:   b.Name(),
			From:      from.String(),
			To:        to.String(),
			At:        time.Now(),
		})
	}
}
