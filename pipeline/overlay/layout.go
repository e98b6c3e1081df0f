package overlay

import (
	"log/slog"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"github.com/overlens-project/overlens/pipeline/extract"
	"github.com/overlens-project/overlens/pkg/utils"
)

const (
	// Font sizes stay inside this range regardless of how small or large
	// the detected text was, so overlays remain legible and contained.
	MinFontSize = 11
	MaxFontSize = 26

	// minWrapWidth is the word-wrap floor in screen points. Translated
	// text often runs longer than the source, so narrow detections still
	// get a usable column to flow into.
	minWrapWidth = 200

	// fontHeightRatio approximates the cap-height share of a detected
	// text line, so the rendered glyphs roughly match the original size.
	fontHeightRatio = 0.7

	lineSpacing  = 1.2
	blockPadding = 8.0
)

// Rect is an axis-aligned rectangle in screen points with a bottom-left
// origin, matching display coordinate conventions.
type Rect struct {
	X, Y, W, H float64
}

// Intersects reports whether the two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.W && other.X < r.X+r.W &&
		r.Y < other.Y+other.H && other.Y < r.Y+r.H
}

// DisplayBlock is one render-ready overlay block. Blocks are recomputed
// wholesale on every layout pass and never mutated in place.
type DisplayBlock struct {
	Rect     Rect
	Text     string
	FontSize float64
	Padding  float64
}

// Engine converts translated text blocks into positioned, auto-sized
// display blocks. Overlapping outputs are not repositioned relative to each
// other; when a translation runs much longer than its source the blocks may
// overlap, which is an accepted limitation.
type Engine struct {
	fonts *FontProvider
	log   *slog.Logger
}

func NewEngine(fonts *FontProvider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{fonts: fonts, log: logger}
}

// Layout converts each block's pixel rectangle (top-left origin, device
// pixels) into a screen-point display block (bottom-left origin), sizing a
// font to the detected height and growing the rectangle to fit the wrapped
// text. Output order matches input order.
func (e *Engine) Layout(blocks []extract.TextBlock, language string, scale, screenHeight float64) []DisplayBlock {
	font := e.fonts.FontForLanguage(language)
	return utils.Map(blocks, func(block extract.TextBlock) DisplayBlock {
		return e.layoutBlock(block, font, scale, screenHeight)
	})
}

func (e *Engine) layoutBlock(block extract.TextBlock, font *truetype.Font, scale, screenHeight float64) DisplayBlock {
	x := float64(block.Rect.Min.X) / scale
	width := float64(block.Rect.Dx()) / scale
	height := float64(block.Rect.Dy()) / scale
	y := screenHeight - float64(block.Rect.Min.Y)/scale - height

	fontSize := clamp(height*fontHeightRatio, MinFontSize, MaxFontSize)
	wrapWidth := math.Max(minWrapWidth, width)
	measuredWidth, measuredHeight := measureWrapped(block.Text, font, fontSize, wrapWidth)

	finalWidth := math.Max(wrapWidth, measuredWidth+2*blockPadding)
	finalHeight := math.Max(height, measuredHeight+2*blockPadding)

	// Growth expands downward: detections are read top to bottom, so the
	// top edge stays anchored at the original detection point.
	return DisplayBlock{
		Rect: Rect{
			X: x,
			Y: y + height - finalHeight,
			W: finalWidth,
			H: finalHeight,
		},
		Text:     block.Text,
		FontSize: fontSize,
		Padding:  blockPadding,
	}
}

// measureWrapped returns the bounding size of text word-wrapped at
// wrapWidth, rendered at the given font size.
func measureWrapped(text string, font *truetype.Font, fontSize, wrapWidth float64) (width, height float64) {
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: fontSize}))

	lines := dc.WordWrap(text, wrapWidth)
	for _, line := range lines {
		lineWidth, _ := dc.MeasureString(line)
		width = math.Max(width, lineWidth)
	}
	height = float64(len(lines)) * fontSize * lineSpacing
	return width, height
}

func clamp(v, low, high float64) float64 {
	return math.Min(math.Max(v, low), high)
}
