// Package audio exposes portaudio input devices as short-lived mono streams.
package audio

import (
	"strings"

	"github.com/gordonklaus/portaudio"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

// AutoDevice selects a loopback device when one exists, else the platform default.
const AutoDevice = -1

// Device is an input-capable audio device. Index is its position in the
// host's device list and is what preferences store.
type Device struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Loopback          bool
}

// Init initializes portaudio. Calls nest; pair each with Terminate.
func Init() error {
	if err := portaudio.Initialize(); err != nil {
		return apperrors.Wrap(err, apperrors.AudioDevice, "initialize portaudio")
	}
	return nil
}

func Terminate() error { return portaudio.Terminate() }

// InputDevices lists devices with at least one input channel.
func InputDevices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.AudioDevice, "enumerate devices")
	}
	return inputsOf(infos), nil
}

func inputsOf(infos []*portaudio.DeviceInfo) []Device {
	var out []Device
	for i, info := range infos {
		if info == nil || info.MaxInputChannels < 1 {
			continue
		}
		out = append(out, Device{
			Index:             i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			Loopback:          isLoopback(info.Name),
		})
	}
	return out
}

// FindLoopback returns the first device that captures system output.
func FindLoopback(devs []Device) (Device, bool) {
	for _, d := range devs {
		if d.Loopback {
			return d, true
		}
	}
	return Device{}, false
}

// Resolve picks the device to record from: the preferred index when it is an
// input device, otherwise the first loopback device. ok is false when the
// platform default input should be used.
func Resolve(devs []Device, preferred int) (Device, bool) {
	if preferred != AutoDevice {
		for _, d := range devs {
			if d.Index == preferred {
				return d, true
			}
		}
	}
	return FindLoopback(devs)
}

var loopbackKeywords = []string{"monitor", "loopback", "blackhole", "vb-cable", "soundflower", "stereo mix"}

func isLoopback(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range loopbackKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
