package cue

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/hajimehoshi/go-mp3"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

// Template is the reference cue: mono, silence-trimmed, peak-normalized.
// It is never mutated after Prepare.
type Template []float64

// LoadTemplate decodes an MP3 clip and prepares it for sampleRate.
func LoadTemplate(path string, sampleRate int) (Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ConfigMissing, "open cue template").WithMetadata("path", path)
	}
	defer f.Close()

	samples, srcRate, err := decodeMP3(f)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TemplateDecode, "decode cue template").WithMetadata("path", path)
	}

	t := Prepare(samples, srcRate, sampleRate)
	if len(t) == 0 {
		return nil, apperrors.New(apperrors.TemplateDecode, "cue template is silent").WithMetadata("path", path)
	}
	return t, nil
}

// decodeMP3 returns mono samples in [-1, 1] and the source rate.
func decodeMP3(r io.Reader) ([]float64, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, err
	}

	// 16-bit little endian, always two channels.
	const frameBytes = 4
	out := make([]float64, len(raw)/frameBytes)
	for i := range out {
		l := int16(binary.LittleEndian.Uint16(raw[i*frameBytes:]))
		r := int16(binary.LittleEndian.Uint16(raw[i*frameBytes+2:]))
		out[i] = (float64(l) + float64(r)) / 2 / 32768
	}
	return out, dec.SampleRate(), nil
}

// Prepare resamples, trims silence and peak-normalizes raw mono samples.
func Prepare(samples []float64, srcRate, dstRate int) Template {
	y := resample(samples, srcRate, dstRate)
	y = trimSilence(y, TrimTopDB, TrimFrameSize, TrimHopSize)
	return Template(normalize(y))
}

// resample converts between rates by linear interpolation.
func resample(x []float64, srcRate, dstRate int) []float64 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(x) == 0 {
		return append([]float64(nil), x...)
	}
	n := int(math.Round(float64(len(x)) * float64(dstRate) / float64(srcRate)))
	out := make([]float64, n)
	step := float64(srcRate) / float64(dstRate)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(x)-1 {
			out[i] = x[len(x)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = x[j]*(1-frac) + x[j+1]*frac
	}
	return out
}

// trimSilence drops leading and trailing frames whose RMS is more than topDB
// below the loudest frame.
func trimSilence(x []float64, topDB float64, frame, hop int) []float64 {
	if len(x) == 0 {
		return nil
	}
	if len(x) < frame {
		frame = len(x)
	}

	var rms []float64
	for start := 0; start+frame <= len(x); start += hop {
		var sum float64
		for _, v := range x[start : start+frame] {
			sum += v * v
		}
		rms = append(rms, math.Sqrt(sum/float64(frame)))
	}

	peak := 0.0
	for _, v := range rms {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		return nil
	}

	floor := peak * math.Pow(10, -topDB/20)
	first, last := -1, -1
	for i, v := range rms {
		if v > floor {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	end := min(len(x), last*hop+frame)
	return append([]float64(nil), x[first*hop:end]...)
}

func normalize(x []float64) []float64 {
	peak := 0.0
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 {
		return x
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v / peak
	}
	return out
}
