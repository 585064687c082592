// Package screen captures the primary display for the matcher.
package screen

import (
	"image"
	"os"
	"runtime"
	"time"
)

// ToolInterval is the minimum spacing between captures through an external
// screenshot tool; each one spawns a process.
const ToolInterval = 100 * time.Millisecond

// Capturer grabs the primary display.
type Capturer interface {
	Capture() (*image.RGBA, error)
	Name() string
	Close()
}

// New picks an external screenshot tool on Wayland sessions, where X11
// grabs return black frames, and native capture everywhere else.
func New() Capturer {
	if IsWayland() {
		return NewToolCapturer()
	}
	return NewNative()
}

func IsWayland() bool {
	return runtime.GOOS == "linux" && os.Getenv("WAYLAND_DISPLAY") != ""
}

// minInterval returns the pacing floor a capturer needs, if any.
func minInterval(c Capturer) time.Duration {
	if p, ok := c.(interface{ MinInterval() time.Duration }); ok {
		return p.MinInterval()
	}
	return 0
}
