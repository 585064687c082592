package input

import "image"

// Easing maps linear progress t in [0,1] to eased progress.
type Easing func(t float64) float64

func Linear(t float64) float64 { return t }

// EaseOutQuad starts fast and decelerates into the target.
func EaseOutQuad(t float64) float64 { return t * (2 - t) }

// path returns n intermediate points from 'from' to 'to', ending exactly on 'to'.
func path(from, to image.Point, n int, ease Easing) []image.Point {
	if n < 1 {
		n = 1
	}
	if ease == nil {
		ease = Linear
	}
	pts := make([]image.Point, n)
	dx, dy := float64(to.X-from.X), float64(to.Y-from.Y)
	for i := range pts {
		p := ease(float64(i+1) / float64(n))
		pts[i] = image.Pt(from.X+int(dx*p+0.5*sign(dx)), from.Y+int(dy*p+0.5*sign(dy)))
	}
	pts[n-1] = to
	return pts
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
