package resilience

import "time"

const (
	DefaultThreshold         = 5
	DefaultResetTimeout      = 30 * time.Second
	DefaultHalfOpenSuccesses = 3

	// Audio stream opens: a missing device fails every cycle, so trip early.
	AudioThreshold         = 3
	AudioResetTimeout      = 15 * time.Second
	AudioHalfOpenSuccesses = 1

	// Screen capture runs every few ms; tolerate bursts from external tools.
	CaptureThreshold         = 10
	CaptureResetTimeout      = 5 * time.Second
	CaptureHalfOpenSuccesses = 2
)

// Config holds circuit breaker settings.
type Config struct {
	Name              string
	Threshold         int           // failures before opening
	ResetTimeout      time.Duration // wait before half-open attempt
	HalfOpenSuccesses int           // successes needed to close
}

func DefaultConfig(name string) Config {
	return Config{
		Name:              name,
		Threshold:         DefaultThreshold,
		ResetTimeout:      DefaultResetTimeout,
		HalfOpenSuccesses: DefaultHalfOpenSuccesses,
	}
}

// AudioConfig guards audio stream opens and reads.
func AudioConfig() Config {
	return Config{
		Name:              "audio",
		Threshold:         AudioThreshold,
		ResetTimeout:      AudioResetTimeout,
		HalfOpenSuccesses: AudioHalfOpenSuccesses,
	}
}

// CaptureConfig guards the screen capture backend.
func CaptureConfig() Config {
	return Config{
		Name:              "capture",
		Threshold:         CaptureThreshold,
		ResetTimeout:      CaptureResetTimeout,
		HalfOpenSuccesses: CaptureHalfOpenSuccesses,
	}
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	return c
}
