package cue

import "time"

const (
	DefaultSampleRate   = 48000
	DefaultThreshold    = 60.0
	DefaultSilenceFloor = 0.01
	DefaultChunk        = 100 * time.Millisecond

	// DebugScoreFloor is the score above which near misses are logged.
	DebugScoreFloor = 10.0

	// Silence trimming of the reference clip.
	TrimTopDB     = 20.0
	TrimFrameSize = 2048
	TrimHopSize   = 512

	// ListenPause is how long the standalone monitor rests after a detection.
	ListenPause = 2 * time.Second
	// listenRetry spaces stream reopen attempts in the standalone monitor.
	listenRetry = time.Second
)
