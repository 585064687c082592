// Package input sends synthetic pointer and keyboard events to the game.
package input

import (
	"strings"
	"time"
)

// Button is a pointer button, numbered as X11 does.
type Button int

const (
	ButtonLeft   Button = 1
	ButtonMiddle Button = 2
	ButtonRight  Button = 3
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "button"
	}
}

// Dispatcher delivers input events.
type Dispatcher interface {
	PressButton(b Button) error
	PressKey(key string) error
	MoveTo(x, y int, d time.Duration, ease Easing) error
}

// CastAction is either a pointer button or a named key, fixed at configuration time.
type CastAction struct {
	button Button
	key    string
}

// DefaultCast is used when no cast action is configured.
var DefaultCast = PointerAction(ButtonMiddle)

func PointerAction(b Button) CastAction { return CastAction{button: b} }

func KeyAction(key string) CastAction { return CastAction{key: strings.ToLower(strings.TrimSpace(key))} }

// ParseCastAction maps "left", "middle" and "right" to pointer buttons and
// anything else to a key press. Blank input yields DefaultCast.
func ParseCastAction(s string) CastAction {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return DefaultCast
	case "left":
		return PointerAction(ButtonLeft)
	case "middle":
		return PointerAction(ButtonMiddle)
	case "right":
		return PointerAction(ButtonRight)
	default:
		return KeyAction(v)
	}
}

func (a CastAction) IsPointer() bool { return a.key == "" }
func (a CastAction) Button() Button  { return a.button }
func (a CastAction) Key() string     { return a.key }

func (a CastAction) String() string {
	if a.IsPointer() {
		return a.button.String()
	}
	return a.key
}

// Dispatch performs the action.
func (a CastAction) Dispatch(d Dispatcher) error {
	if a.IsPointer() {
		return d.PressButton(a.button)
	}
	return d.PressKey(a.key)
}
