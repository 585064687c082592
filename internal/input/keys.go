package input

import (
	"fmt"
	"strings"
)

type keyCode struct {
	xdotool string
	vk      int // Windows virtual-key code
}

var namedKeys = map[string]keyCode{
	"space":     {"space", 0x20},
	"enter":     {"Return", 0x0D},
	"tab":       {"Tab", 0x09},
	"esc":       {"Escape", 0x1B},
	"escape":    {"Escape", 0x1B},
	"backspace": {"BackSpace", 0x08},
	"shift":     {"shift", 0x10},
	"ctrl":      {"ctrl", 0x11},
	"alt":       {"alt", 0x12},
	"up":        {"Up", 0x26},
	"down":      {"Down", 0x28},
	"left":      {"Left", 0x25},
	"right":     {"Right", 0x27},
}

// lookupKey resolves a key name: single letters and digits, f1-f12, or a named key.
func lookupKey(name string) (keyCode, error) {
	k := strings.ToLower(strings.TrimSpace(name))
	if kc, ok := namedKeys[k]; ok {
		return kc, nil
	}
	if len(k) == 1 {
		switch c := k[0]; {
		case c >= 'a' && c <= 'z':
			return keyCode{k, int(c-'a') + 0x41}, nil
		case c >= '0' && c <= '9':
			return keyCode{k, int(c-'0') + 0x30}, nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(k, "f%d", &n); err == nil && n >= 1 && n <= 12 && k == fmt.Sprintf("f%d", n) {
		return keyCode{fmt.Sprintf("F%d", n), 0x70 + n - 1}, nil
	}
	return keyCode{}, fmt.Errorf("unknown key %q", name)
}

// ValidKey reports whether name can be sent as a key press.
func ValidKey(name string) bool {
	_, err := lookupKey(name)
	return err == nil
}
