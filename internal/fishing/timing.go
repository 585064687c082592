package fishing

import "time"

// Timing holds every delay of the cycle.
type Timing struct {
	JitterMin      time.Duration
	JitterMax      time.Duration
	Settle         time.Duration
	Poll           time.Duration
	Move           time.Duration
	RetrievePause  time.Duration
	CueTimeout     time.Duration
	PointerOffsetX int
}

func DefaultTiming() Timing {
	return Timing{
		JitterMin:      time.Second,
		JitterMax:      2 * time.Second,
		Settle:         3 * time.Second,
		Poll:           100 * time.Millisecond,
		Move:           450 * time.Millisecond,
		RetrievePause:  time.Second,
		CueTimeout:     30 * time.Second,
		PointerOffsetX: 25,
	}
}

func (t Timing) withDefaults() Timing {
	if t.Poll <= 0 {
		t.Poll = 100 * time.Millisecond
	}
	if t.JitterMax < t.JitterMin {
		t.JitterMax = t.JitterMin
	}
	return t
}
