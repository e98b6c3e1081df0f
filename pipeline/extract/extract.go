// Package extract turns a preprocessed frame into positioned text blocks.
// Recognition itself is delegated to an external engine; this package owns
// the coordinate-space conversions from the engine's normalized output back
// into the original frame's pixel space.
package extract

import (
	"context"
	"image"
	"log/slog"
	"math"
)

// TextBlock is one detected text region in original-image pixel coordinates
// (top-left origin). Batch order is significant and preserved end-to-end.
type TextBlock struct {
	Rect image.Rectangle
	Text string
}

// NormalizedRect is a bounding box in the recognition engine's coordinate
// space: both axes in 0..1 with the origin at the bottom-left of the
// processed image.
type NormalizedRect struct {
	X, Y, W, H float64
}

// Observation is one recognized region. Candidates are ranked best-first;
// a region without a usable candidate is skipped by the extractor.
type Observation struct {
	Bounds     NormalizedRect
	Candidates []string
}

// Engine is the external recognition collaborator. Recognize blocks until
// recognition completes or fails, even if the engine runs work on its own
// threads internally.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, languageHints []string, accurate bool) ([]Observation, error)
}

// Extractor invokes the engine and maps its output into TextBlocks.
type Extractor struct {
	engine Engine
	hints  []string
	log    *slog.Logger
}

// New returns an Extractor that recognizes with the given language hints.
func New(engine Engine, languageHints []string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{engine: engine, hints: append([]string(nil), languageHints...), log: logger}
}

// Extract recognizes text in the processed frame and returns blocks in the
// original frame's pixel space. originalSize is the captured frame's
// dimensions before preprocessing; the identity when no downscaling occurred.
//
// Engine failures are logged and degrade to zero blocks. An empty result is
// a valid terminal outcome, not an error.
func (e *Extractor) Extract(ctx context.Context, processed image.Image, originalSize image.Point) []TextBlock {
	observations, err := e.engine.Recognize(ctx, processed, e.hints, true /* =accurate */)
	if err != nil {
		e.log.Error("text recognition failed", "error", err)
		return nil
	}

	pw := float64(processed.Bounds().Dx())
	ph := float64(processed.Bounds().Dy())
	if pw == 0 || ph == 0 {
		return nil
	}
	scaleX := float64(originalSize.X) / pw
	scaleY := float64(originalSize.Y) / ph

	blocks := make([]TextBlock, 0, len(observations))
	for _, obs := range observations {
		if len(obs.Candidates) == 0 || obs.Candidates[0] == "" {
			continue
		}

		// Normalized bottom-left origin -> processed pixels, top-left origin.
		px := obs.Bounds.X * pw
		py := (1 - obs.Bounds.Y - obs.Bounds.H) * ph
		w := obs.Bounds.W * pw
		h := obs.Bounds.H * ph

		blocks = append(blocks, TextBlock{
			Rect: image.Rect(
				round(px*scaleX),
				round(py*scaleY),
				round((px+w)*scaleX),
				round((py+h)*scaleY),
			),
			Text: obs.Candidates[0],
		})
	}
	return blocks
}

func round(v float64) int {
	return int(math.Round(v))
}
