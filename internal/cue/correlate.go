package cue

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Correlator computes valid-mode cross-correlation of signals against a fixed
// template by FFT. The template spectrum is cached per transform size.
// A Correlator is not safe for concurrent use.
type Correlator struct {
	tmpl  []float64
	n     int
	fft   *fourier.FFT
	tspec []complex128
	seq   []float64
	spec  []complex128
	out   []float64
}

func NewCorrelator(tmpl []float64) *Correlator {
	return &Correlator{tmpl: tmpl}
}

// Peak returns max |c[k]| over valid lags, where
// c[k] = sum_i signal[k+i] * tmpl[i] for k in [0, len(signal)-len(tmpl)].
// It returns 0 when the signal is shorter than the template.
func (c *Correlator) Peak(signal []float64) float64 {
	peak := 0.0
	c.valid(signal, func(_ int, v float64) {
		peak = math.Max(peak, math.Abs(v))
	})
	return peak
}

// Correlate returns every valid-lag correlation value.
func (c *Correlator) Correlate(signal []float64) []float64 {
	var out []float64
	c.valid(signal, func(_ int, v float64) { out = append(out, v) })
	return out
}

func (c *Correlator) valid(signal []float64, yield func(k int, v float64)) {
	l, n := len(c.tmpl), len(signal)
	if l == 0 || n < l {
		return
	}
	c.prepare(nextPow2(n + l - 1))

	clear(c.seq)
	copy(c.seq, signal)
	c.spec = c.fft.Coefficients(c.spec, c.seq)
	for i := range c.spec {
		c.spec[i] *= c.tspec[i]
	}
	c.out = c.fft.Sequence(c.out, c.spec)

	// Convolution with the reversed template; valid lag k sits at k+l-1.
	scale := 1 / float64(c.n)
	for k := 0; k <= n-l; k++ {
		yield(k, c.out[k+l-1]*scale)
	}
}

func (c *Correlator) prepare(n int) {
	if n == c.n {
		return
	}
	c.n = n
	c.fft = fourier.NewFFT(n)

	rev := make([]float64, n)
	for i, v := range c.tmpl {
		rev[len(c.tmpl)-1-i] = v
	}
	c.tspec = c.fft.Coefficients(nil, rev)
	c.seq = make([]float64, n)
	c.spec = make([]complex128, n/2+1)
	c.out = make([]float64, n)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func peakAbs(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}
