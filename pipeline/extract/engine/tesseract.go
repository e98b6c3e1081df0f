// Package engine provides recognition engine adapters for the extractor.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/overlens-project/overlens/pipeline/extract"
)

// tessLanguages maps pipeline language hints to Tesseract traineddata names.
// Unknown hints pass through as literal identifiers.
var tessLanguages = map[string]string{
	"zh": "chi_sim",
	"en": "eng",
	"ja": "jpn",
	"ko": "kor",
	"fr": "fra",
	"de": "deu",
	"es": "spa",
	"ru": "rus",
}

// Tesseract recognizes text with a local Tesseract installation. A fresh
// client is created per call; gosseract clients are not safe to share.
type Tesseract struct{}

// NewTesseract returns the local recognition engine.
func NewTesseract() *Tesseract {
	return &Tesseract{}
}

// Recognize runs line-level OCR and reports each line as one observation
// with a normalized bottom-left-origin bounding box.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, languageHints []string, accurate bool) ([]extract.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if langs := toTessLanguages(languageHints); len(langs) > 0 {
		if err := client.SetLanguage(langs...); err != nil {
			return nil, fmt.Errorf("failed to set OCR languages: %w", err)
		}
	}

	// Sparse mode trades layout analysis for speed on UI-like frames.
	mode := gosseract.PSM_SPARSE_TEXT
	if accurate {
		mode = gosseract.PSM_AUTO
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	observations := make([]extract.Observation, 0, len(boxes))
	for _, box := range boxes {
		normH := float64(box.Box.Dy()) / h
		observations = append(observations, extract.Observation{
			Bounds: extract.NormalizedRect{
				X: float64(box.Box.Min.X) / w,
				Y: 1 - float64(box.Box.Min.Y)/h - normH,
				W: float64(box.Box.Dx()) / w,
				H: normH,
			},
			Candidates: []string{strings.TrimSpace(box.Word)},
		})
	}
	return observations, nil
}

func toTessLanguages(hints []string) []string {
	langs := make([]string, 0, len(hints))
	for _, hint := range hints {
		if mapped, ok := tessLanguages[hint]; ok {
			langs = append(langs, mapped)
			continue
		}
		langs = append(langs, hint)
	}
	return langs
}
