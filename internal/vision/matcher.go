// Package vision finds the best on-screen match for a set of reference images
// with OpenCV normalized cross-correlation.
package vision

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/GriffinCanCode/fishbot/internal/templates"
)

// Result is the best match in a frame. Loc is the top-left corner of the
// matched template; Found is false when nothing could be matched.
type Result struct {
	Loc        image.Point
	Found      bool
	Confidence float64
	Template   string
}

type prepared struct {
	name string
	mat  gocv.Mat
}

// Matcher holds templates converted to BGR Mats. Calls are serialized.
type Matcher struct {
	mu        sync.Mutex
	templates []prepared
}

// NewMatcher converts every template once. Templates that fail to convert
// are logged and left out.
func NewMatcher(imgs []templates.Image) *Matcher {
	m := &Matcher{}
	for _, img := range imgs {
		mat, err := gocv.ImageToMatRGB(img.Img)
		if err != nil {
			slog.Warn("skipping template", "template", img.Name, "error", err)
			continue
		}
		m.templates = append(m.templates, prepared{name: img.Name, mat: mat})
	}
	return m
}

func (m *Matcher) Len() int { return len(m.templates) }

// LocateBest returns the highest-scoring template location in frame. Ties
// keep the earliest template. An empty template set or nil frame yields a
// Result with Found false.
func (m *Matcher) LocateBest(frame *image.RGBA) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || len(m.templates) == 0 {
		return Result{}
	}

	scene, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		slog.Warn("frame conversion failed", "error", err)
		return Result{}
	}
	defer scene.Close()

	best := Result{Confidence: -1}
	for _, t := range m.templates {
		score, loc, err := matchOne(scene, t)
		if err != nil {
			slog.Debug("template skipped", "template", t.name, "error", err)
			continue
		}
		if score > best.Confidence {
			best = Result{Loc: loc, Found: true, Confidence: score, Template: t.name}
		}
	}
	if !best.Found {
		return Result{}
	}
	return best
}

// Locate adapts LocateBest to the fishing agent's locator contract.
func (m *Matcher) Locate(frame *image.RGBA) (image.Point, float64, bool) {
	r := m.LocateBest(frame)
	return r.Loc, r.Confidence, r.Found
}

func matchOne(scene gocv.Mat, t prepared) (score float64, loc image.Point, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("match panicked: %v", r)
		}
	}()

	if t.mat.Rows() > scene.Rows() || t.mat.Cols() > scene.Cols() {
		return 0, image.Point{}, fmt.Errorf("template %dx%d larger than frame %dx%d",
			t.mat.Cols(), t.mat.Rows(), scene.Cols(), scene.Rows())
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(scene, t.mat, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		return 0, image.Point{}, fmt.Errorf("empty match result")
	}

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	v := float64(maxVal)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, image.Point{}, fmt.Errorf("degenerate score %v", v)
	}
	return v, maxLoc, nil
}

// Close releases the native template buffers.
func (m *Matcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.templates {
		_ = t.mat.Close()
	}
	m.templates = nil
}
