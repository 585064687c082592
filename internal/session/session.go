// Package session wires capture, matching, cue detection and input into a
// fishing agent and owns its lifetime: one structured set of goroutines per
// session, cancelled and joined by Stop.
package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/fishbot/internal/catalog"
	"github.com/GriffinCanCode/fishbot/internal/config"
	"github.com/GriffinCanCode/fishbot/internal/cue"
	"github.com/GriffinCanCode/fishbot/internal/fishing"
	"github.com/GriffinCanCode/fishbot/internal/input"
	"github.com/GriffinCanCode/fishbot/internal/prefs"
	"github.com/GriffinCanCode/fishbot/internal/resilience"
	"github.com/GriffinCanCode/fishbot/internal/screen"
	"github.com/GriffinCanCode/fishbot/internal/syncx"
	"github.com/GriffinCanCode/fishbot/internal/templates"
	"github.com/GriffinCanCode/fishbot/internal/trace"
)

var (
	ErrNoArea  = errors.New("no fishing area configured")
	ErrRunning = errors.New("session already running")
)

// LocatorCloser is a target locator holding native resources.
type LocatorCloser interface {
	fishing.Locator
	Close()
}

// LocatorFactory builds a locator over an area's templates.
type LocatorFactory func([]templates.Image) LocatorCloser

// Recorder persists finished cycles.
type Recorder interface {
	Record(ctx context.Context, sessionID, area string, c fishing.Cycle) error
}

type Deps struct {
	Catalog    *catalog.Catalog
	Prefs      *prefs.Prefs
	Capturer   screen.Capturer
	Input      input.Dispatcher
	Audio      cue.Opener
	NewLocator LocatorFactory
	CatchLog   Recorder // optional
}

// Status is a point-in-time view of the session.
type Status struct {
	Running     bool      `json:"running"`
	SessionID   string    `json:"session_id,omitempty"`
	AreaID      string    `json:"area_id,omitempty"`
	Area        string    `json:"area,omitempty"`
	State       string    `json:"state"`
	Cast        string    `json:"cast,omitempty"`
	Templates   int       `json:"templates"`
	CueLoaded   bool      `json:"cue_loaded"`
	Cycles      int       `json:"cycles"`
	Caught      int       `json:"caught"`
	LastOutcome string    `json:"last_outcome,omitempty"`
	StartedAt   time.Time `json:"started_at,omitzero"`
}

type Session struct {
	cfg  *config.Config
	deps Deps

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	agent    *fishing.Agent
	detector *cue.Detector
	locator  LocatorCloser

	slot   syncx.Slot[image.RGBA]
	status *syncx.RWGuard[Status]
	events chan Event
}

func New(cfg *config.Config, deps Deps) *Session {
	return &Session{
		cfg:    cfg,
		deps:   deps,
		status: syncx.NewGuard(Status{State: fishing.Idle.String()}),
		events: make(chan Event, EventBuffer),
	}
}

// Start resolves the selected area, builds the matcher and detector, and
// launches the capture producer and the agent. The agent begins once the
// first frame has arrived. The session outlives ctx's cancellation but keeps
// its values; call Stop to end it.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrRunning
	}

	areaID, area, ok := s.resolveArea()
	if !ok {
		return ErrNoArea
	}

	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(trace.WithSession(context.WithoutCancel(ctx), id))
	log := trace.Logger(runCtx)

	imgs := templates.Load(s.cfg.AssetsDir, area.Pattern)
	if len(imgs) == 0 {
		log.Warn("no templates for area, every cast will miss", "area", area.Name, "pattern", area.Pattern.String())
	}

	tmpl, err := cue.LoadTemplate(s.cfg.CuePath(), s.cfg.SampleRate)
	if err != nil {
		log.Error("cue template unavailable, the cue will never be heard", "path", s.cfg.CuePath(), "error", err)
	}
	breaker := resilience.New(resilience.AudioConfig())
	breaker.WithHook(s.breakerHook(id, breaker))
	s.detector = cue.NewDetector(tmpl, s.deps.Audio, cue.Options{
		SampleRate:   s.cfg.SampleRate,
		Threshold:    s.cfg.CueThreshold,
		SilenceFloor: s.cfg.SilenceFloor,
	}).WithBreaker(breaker)

	s.locator = s.deps.NewLocator(imgs)
	cast := input.ParseCastAction(s.deps.Prefs.CastButton())

	obs := &observer{s: s, sessionID: id, area: area.Name}
	s.agent = fishing.New(fishing.Config{
		Frames:   fishing.FrameFunc(s.slot.Load),
		Locator:  s.locator,
		Cue:      s.detector,
		Input:    s.deps.Input,
		Cast:     cast,
		Timing:   s.timing(),
		Observer: obs,
	})

	started := time.Now()
	s.status.Set(Status{
		Running:   true,
		SessionID: id,
		AreaID:    areaID,
		Area:      area.Name,
		State:     fishing.Idle.String(),
		Cast:      cast.String(),
		Templates: len(imgs),
		CueLoaded: tmpl != nil,
		StartedAt: started,
	})
	s.emit(Event{Type: EventStarted, SessionID: id, Area: area.Name, At: started})

	producer := screen.NewProducer(s.deps.Capturer, &s.slot, s.cfg.CaptureInterval)
	s.cancel = cancel
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		producer.Run(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		if !s.awaitFirstFrame(runCtx) {
			return
		}
		if err := s.agent.Run(runCtx); err != nil {
			trace.Logger(runCtx).Error("agent stopped", "error", err)
		}
	}()

	log.Info("session started", "area", area.Name, "templates", len(imgs), "cast", cast.String())
	return nil
}

// Stop cancels the session and waits for its goroutines. It reports whether
// a session was running.
func (s *Session) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}

	s.cancel()
	s.wg.Wait()
	s.cancel = nil

	s.slot.Clear()
	if s.locator != nil {
		s.locator.Close()
		s.locator = nil
	}

	var st Status
	s.status.Write(func(v *Status) {
		v.Running = false
		v.State = fishing.Idle.String()
		st = *v
	})
	stats := s.detector.Stats()
	s.emit(Event{Type: EventStopped, SessionID: st.SessionID, Area: st.Area, At: time.Now()})
	trace.Logger(trace.WithSession(context.Background(), st.SessionID)).Info("session stopped",
		"cycles", st.Cycles, "caught", st.Caught,
		"audio_chunks", stats.Chunks, "detections", stats.Detections)
	return true
}

func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Session) Status() Status {
	return s.status.Get()
}

// Events streams lifecycle, transition and cycle events. Events are dropped
// while the channel is full.
func (s *Session) Events() <-chan Event {
	return s.events
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

// resolveArea prefers the stored selection and falls back to the lowest id.
func (s *Session) resolveArea() (string, catalog.Area, bool) {
	if id := s.deps.Prefs.SelectedArea(); id != "" {
		if a, ok := s.deps.Catalog.Get(id); ok {
			return id, a, true
		}
	}
	return s.deps.Catalog.First()
}

func (s *Session) awaitFirstFrame(ctx context.Context) bool {
	if s.slot.Load() != nil {
		return true
	}
	trace.Logger(ctx).Info("waiting for first frame")
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if s.slot.Load() != nil {
				return true
			}
		}
	}
}

func (s *Session) timing() fishing.Timing {
	return fishing.Timing{
		JitterMin:      s.cfg.JitterMin,
		JitterMax:      s.cfg.JitterMax,
		Settle:         s.cfg.SettleDelay,
		Poll:           s.cfg.PollInterval,
		Move:           s.cfg.MoveDuration,
		RetrievePause:  s.cfg.RetrievePause,
		CueTimeout:     s.cfg.CueTimeout,
		PointerOffsetX: s.cfg.PointerOffsetX,
	}
}
