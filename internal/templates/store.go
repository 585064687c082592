// Package templates loads the reference images a target area is matched against.
package templates

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/corona10/goimagehash"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

const extension = ".png"

// Image is a decoded reference image. Img must not be mutated once loaded.
type Image struct {
	Name string
	Img  *image.RGBA
}

// Load returns every PNG in dir whose name matches pattern, in lexical file
// name order. Unreadable files are logged and skipped; exact duplicates are
// dropped. A missing directory yields an empty set.
func Load(dir string, pattern Pattern) []Image {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("template directory unavailable", "dir", dir, "error", err)
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), extension) || !pattern.Matches(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	var (
		out    []Image
		hashes []*goimagehash.ImageHash
	)
	for _, name := range names {
		img, err := decodeFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("skipping template", "file", name, "error", err)
			continue
		}

		hash, err := goimagehash.DifferenceHash(img)
		if err == nil {
			if dup := duplicateOf(out, hashes, img, hash); dup != "" {
				slog.Debug("dropping duplicate template", "file", name, "duplicate_of", dup)
				continue
			}
		}
		out = append(out, Image{Name: name, Img: img})
		hashes = append(hashes, hash)
	}

	slog.Info("loaded templates", "dir", dir, "pattern", pattern.String(), "count", len(out))
	return out
}

// duplicateOf uses the difference hash as a pre-filter and confirms with a pixel compare.
func duplicateOf(loaded []Image, hashes []*goimagehash.ImageHash, img *image.RGBA, hash *goimagehash.ImageHash) string {
	for i, prev := range loaded {
		if hashes[i] == nil || prev.Img.Bounds().Size() != img.Bounds().Size() {
			continue
		}
		if d, err := hashes[i].Distance(hash); err != nil || d != 0 {
			continue
		}
		if bytes.Equal(prev.Img.Pix, img.Pix) {
			return prev.Name
		}
	}
	return ""
}

func decodeFile(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TemplateDecode, "open template")
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TemplateDecode, "decode png").WithMetadata("path", path)
	}
	return ToRGBA(src), nil
}

// ToRGBA returns img as a zero-origin *image.RGBA, copying only when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
