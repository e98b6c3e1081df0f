package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"

	"github.com/overlens-project/overlens/pipeline/extract"
	"github.com/overlens-project/overlens/pkg/utils"
)

// VisionClient is the subset of vision.ImageAnnotatorClient the adapter
// needs. Ref: https://pkg.go.dev/cloud.google.com/go/vision/apiv1
// The interface exists so unit tests can mock the annotator.
type VisionClient interface {
	DetectDocumentText(ctx context.Context, image *visionpb.Image, imageContext *visionpb.ImageContext, opts ...gax.CallOption) (*visionpb.TextAnnotation, error)
}

// CloudVision recognizes text with the Cloud Vision document-text API.
// Document text detection is already the API's accurate mode, so the
// accurate flag has no further effect here.
type CloudVision struct {
	client VisionClient
}

// NewCloudVision returns an adapter over the given annotator client.
func NewCloudVision(client VisionClient) *CloudVision {
	return &CloudVision{client: client}
}

// Recognize reports each detected paragraph as one observation with a
// normalized bottom-left-origin bounding box.
func (c *CloudVision) Recognize(ctx context.Context, img image.Image, languageHints []string, accurate bool) ([]extract.Observation, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	annotation, err := c.client.DetectDocumentText(ctx,
		&visionpb.Image{Content: buf.Bytes()},
		&visionpb.ImageContext{LanguageHints: languageHints},
	)
	if err != nil {
		return nil, fmt.Errorf("document text detection failed: %w", err)
	}

	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())

	blocks := utils.FlatMap(annotation.GetPages(), func(page *visionpb.Page) []*visionpb.Block {
		return page.GetBlocks()
	})
	paragraphs := utils.FlatMap(blocks, func(block *visionpb.Block) []*visionpb.Paragraph {
		return block.GetParagraphs()
	})

	return utils.Map(paragraphs, func(paragraph *visionpb.Paragraph) extract.Observation {
		bounds := utils.Reduce(paragraph.GetBoundingBox().GetVertices(), func(bounds image.Rectangle, vertex *visionpb.Vertex) image.Rectangle {
			return image.Rectangle{
				Min: image.Point{
					X: min(bounds.Min.X, int(vertex.GetX())),
					Y: min(bounds.Min.Y, int(vertex.GetY())),
				},
				Max: image.Point{
					X: max(bounds.Max.X, int(vertex.GetX())),
					Y: max(bounds.Max.Y, int(vertex.GetY())),
				},
			}
		}, image.Rectangle{
			Min: image.Point{X: math.MaxInt32, Y: math.MaxInt32},
		})

		normH := float64(bounds.Dy()) / h
		return extract.Observation{
			Bounds: extract.NormalizedRect{
				X: float64(bounds.Min.X) / w,
				Y: 1 - float64(bounds.Min.Y)/h - normH,
				W: float64(bounds.Dx()) / w,
				H: normH,
			},
			Candidates: []string{paragraphText(paragraph)},
		}
	}), nil
}

func paragraphText(paragraph *visionpb.Paragraph) string {
	text := ""
	for i, word := range paragraph.GetWords() {
		if i > 0 {
			text += " "
		}
		text += utils.Reduce(word.GetSymbols(), func(acc string, symbol *visionpb.Symbol) string {
			return acc + symbol.GetText()
		}, "")
	}
	return text
}
