// Package capture supplies raw screen frames to the translation pipeline.
package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Source captures a raw raster image of a single display. A failed capture
// (missing permission, detached display) is reported as an error, never as an
// empty image.
type Source interface {
	Capture(displayIndex int) (image.Image, error)
}

type screenSource struct{}

// NewScreenSource returns a Source that captures physical displays.
func NewScreenSource() Source {
	return screenSource{}
}

// DisplayBounds returns the pixel bounds of the given display.
func DisplayBounds(displayIndex int) (image.Rectangle, error) {
	active := screenshot.NumActiveDisplays()
	if displayIndex < 0 || displayIndex >= active {
		return image.Rectangle{}, fmt.Errorf("display %d out of range (0..%d)", displayIndex, active-1)
	}
	return screenshot.GetDisplayBounds(displayIndex), nil
}

func (screenSource) Capture(displayIndex int) (image.Image, error) {
	active := screenshot.NumActiveDisplays()
	if active == 0 {
		return nil, fmt.Errorf("no active displays")
	}
	if displayIndex < 0 || displayIndex >= active {
		return nil, fmt.Errorf("display %d out of range (0..%d)", displayIndex, active-1)
	}

	img, err := screenshot.CaptureDisplay(displayIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", displayIndex, err)
	}
	return img, nil
}
