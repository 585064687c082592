package audio

import (
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

// Source opens mono input streams on a configured device.
type Source struct {
	deviceIndex int
}

// NewSource records from deviceIndex, or resolves automatically for AutoDevice.
func NewSource(deviceIndex int) *Source {
	return &Source{deviceIndex: deviceIndex}
}

// Stream is a started blocking-read input stream. Close it on every path.
type Stream struct {
	pa        *portaudio.Stream
	buf       []float32
	device    string
	closeOnce sync.Once
	closeErr  error
}

// Open starts a mono stream delivering frames samples per Read.
func (s *Source) Open(sampleRate, frames int) (*Stream, error) {
	dev, err := s.device()
	if err != nil {
		return nil, err
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: frames,
	}

	buf := make([]float32, frames)
	pa, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.AudioStream, "open input stream").WithMetadata("device", dev.Name)
	}
	if err := pa.Start(); err != nil {
		_ = pa.Close()
		return nil, apperrors.Wrap(err, apperrors.AudioStream, "start input stream").WithMetadata("device", dev.Name)
	}

	slog.Debug("opened audio stream", "device", dev.Name, "sample_rate", sampleRate, "frames", frames)
	return &Stream{pa: pa, buf: buf, device: dev.Name}, nil
}

func (s *Source) device() (*portaudio.DeviceInfo, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.AudioDevice, "enumerate devices")
	}
	if d, ok := Resolve(inputsOf(infos), s.deviceIndex); ok {
		return infos[d.Index], nil
	}
	if s.deviceIndex != AutoDevice {
		slog.Warn("configured audio device unavailable, using default", "device_id", s.deviceIndex)
	}
	def, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.AudioDevice, "no default input device")
	}
	return def, nil
}

// Read blocks for one buffer and returns a copy of it. Input overflow is not
// an error; the samples that did arrive are returned.
func (s *Stream) Read() ([]float32, error) {
	if err := s.pa.Read(); err != nil && err != portaudio.InputOverflowed {
		return nil, apperrors.Wrap(err, apperrors.AudioStream, "read input stream").WithMetadata("device", s.device)
	}
	return append([]float32(nil), s.buf...), nil
}

func (s *Stream) Device() string { return s.device }

// Close stops and releases the stream. Safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.pa.Stop()
		s.closeErr = s.pa.Close()
	})
	return s.closeErr
}
