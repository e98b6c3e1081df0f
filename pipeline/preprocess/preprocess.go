// Package preprocess prepares captured frames for text recognition.
// Oversized frames are downscaled to bound memory and recognition cost, and
// large frames are optionally run through an accelerated sharpen/contrast
// filter to improve text/background separation.
package preprocess

import (
	"image"
	"log/slog"
	"math"

	xdraw "golang.org/x/image/draw"
)

const (
	// MaxDimension is the largest width or height submitted to recognition.
	// Recognition does not need native display resolution.
	MaxDimension = 3840

	// Frames at or below this pixel area skip the enhancement filter; the
	// transfer and setup overhead outweighs the benefit on small frames.
	filterMinArea = 2560 * 1440
)

// Filter enhances a frame before recognition. Implementations may use
// hardware acceleration and are allowed to fail; the preprocessor falls back
// to the unfiltered frame in that case.
type Filter interface {
	Enhance(img image.Image) (image.Image, error)
}

// Preprocessor applies the downscale/enhance policy to captured frames.
type Preprocessor struct {
	filter Filter
	log    *slog.Logger
}

// New returns a Preprocessor. A nil filter disables enhancement entirely
// (the unaccelerated path); a nil logger falls back to slog.Default().
func New(filter Filter, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{filter: filter, log: logger}
}

// Preprocess returns the frame to submit to recognition. It always returns a
// valid image: if enhancement fails the (possibly downscaled) input is
// returned unchanged, and a frame that needs neither downscaling nor
// filtering is returned as-is.
func (p *Preprocessor) Preprocess(img image.Image) image.Image {
	out := img
	if b := out.Bounds(); b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		out = downscale(out, MaxDimension)
		p.log.Debug("downscaled frame for recognition",
			"from_width", b.Dx(), "from_height", b.Dy(),
			"to_width", out.Bounds().Dx(), "to_height", out.Bounds().Dy())
	}

	if p.filter == nil {
		return out
	}
	if b := out.Bounds(); b.Dx()*b.Dy() <= filterMinArea {
		return out
	}

	enhanced, err := p.filter.Enhance(out)
	if err != nil {
		p.log.Warn("frame enhancement failed, using unfiltered frame", "error", err)
		return out
	}
	return enhanced
}

// downscale uniformly scales the image so both dimensions fit within maxDim.
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	ratio := math.Min(float64(maxDim)/float64(b.Dx()), float64(maxDim)/float64(b.Dy()))
	w := int(math.Round(float64(b.Dx()) * ratio))
	h := int(math.Round(float64(b.Dy()) * ratio))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
