package screen

import (
	"image"

	"github.com/kbinani/screenshot"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

// Native captures display 0 through the platform API.
type Native struct {
	display int
}

func NewNative() *Native { return &Native{} }

func (n *Native) Name() string { return "native" }

func (n *Native) Capture() (*image.RGBA, error) {
	if screenshot.NumActiveDisplays() <= n.display {
		return nil, apperrors.New(apperrors.CaptureFailed, "no active display")
	}
	img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(n.display))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CaptureFailed, "capture display")
	}
	return img, nil
}

func (n *Native) Close() {}
