package vision

import (
	"image"
	"math/rand/v2"
	"testing"

	"github.com/GriffinCanCode/fishbot/internal/templates"
)

// noisyFrame builds a reproducible textured scene so template scores are well defined.
func noisyFrame(w, h int, seed uint64) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, 99))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func crop(src *image.RGBA, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			dst.Set(x, y, src.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return dst
}

func TestLocateBestFindsCrop(t *testing.T) {
	frame := noisyFrame(160, 120, 1)
	tmpl := crop(frame, image.Rect(100, 40, 124, 60))

	m := NewMatcher([]templates.Image{{Name: "bobber.png", Img: tmpl}})
	defer m.Close()

	got := m.LocateBest(frame)
	if !got.Found {
		t.Fatal("crop of the frame not found")
	}
	if got.Loc != image.Pt(100, 40) {
		t.Errorf("Loc = %v, want (100,40)", got.Loc)
	}
	if got.Confidence < 0.99 {
		t.Errorf("Confidence = %f, want ~1", got.Confidence)
	}
	if got.Template != "bobber.png" {
		t.Errorf("Template = %q", got.Template)
	}
}

func TestLocateBestPicksHighestTemplate(t *testing.T) {
	frame := noisyFrame(160, 120, 2)
	exact := crop(frame, image.Rect(10, 70, 30, 90))
	other := noisyFrame(20, 20, 3)

	m := NewMatcher([]templates.Image{
		{Name: "a_other.png", Img: other},
		{Name: "b_exact.png", Img: exact},
	})
	defer m.Close()

	got := m.LocateBest(frame)
	if !got.Found || got.Template != "b_exact.png" || got.Loc != image.Pt(10, 70) {
		t.Errorf("LocateBest = %+v, want b_exact.png at (10,70)", got)
	}

	solo := NewMatcher([]templates.Image{{Name: "a_other.png", Img: other}})
	defer solo.Close()
	if r := solo.LocateBest(frame); r.Confidence > got.Confidence {
		t.Errorf("unrelated template scored %f above exact %f", r.Confidence, got.Confidence)
	}
}

func TestLocateBestTieKeepsFirst(t *testing.T) {
	frame := noisyFrame(80, 60, 4)
	tmpl := crop(frame, image.Rect(5, 5, 25, 25))

	m := NewMatcher([]templates.Image{{Name: "first.png", Img: tmpl}, {Name: "second.png", Img: tmpl}})
	defer m.Close()

	if got := m.LocateBest(frame); got.Template != "first.png" {
		t.Errorf("tie resolved to %q, want first.png", got.Template)
	}
}

func TestLocateBestAbsent(t *testing.T) {
	frame := noisyFrame(40, 40, 5)

	empty := NewMatcher(nil)
	defer empty.Close()
	if got := empty.LocateBest(frame); got.Found {
		t.Errorf("empty template set found %+v", got)
	}

	m := NewMatcher([]templates.Image{{Name: "x.png", Img: noisyFrame(8, 8, 6)}})
	defer m.Close()
	if got := m.LocateBest(nil); got.Found {
		t.Errorf("nil frame found %+v", got)
	}
}

func TestLocateBestSkipsOversizedTemplate(t *testing.T) {
	frame := noisyFrame(40, 30, 7)
	fits := crop(frame, image.Rect(0, 0, 10, 10))
	big := noisyFrame(60, 10, 8)

	m := NewMatcher([]templates.Image{{Name: "a_big.png", Img: big}, {Name: "b_fits.png", Img: fits}})
	defer m.Close()

	got := m.LocateBest(frame)
	if !got.Found || got.Template != "b_fits.png" {
		t.Errorf("LocateBest = %+v, want b_fits.png", got)
	}

	only := NewMatcher([]templates.Image{{Name: "a_big.png", Img: big}})
	defer only.Close()
	if r := only.LocateBest(frame); r.Found {
		t.Errorf("oversized-only set found %+v", r)
	}
}

func TestLocateAdapter(t *testing.T) {
	frame := noisyFrame(64, 48, 9)
	m := NewMatcher([]templates.Image{{Name: "t.png", Img: crop(frame, image.Rect(30, 20, 40, 30))}})
	defer m.Close()

	loc, conf, ok := m.Locate(frame)
	if !ok || loc != image.Pt(30, 20) || conf < 0.99 {
		t.Errorf("Locate = (%v, %f, %v)", loc, conf, ok)
	}
}
