package overlay

import (
	"image"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	cornerRadius  = 6.0
	backdropAlpha = 0.78
)

// backdropColor is the fill behind translated text. The text color is
// derived from it so the pairing stays readable if the backdrop changes.
var backdropColor = colorful.Color{R: 0.09, G: 0.10, B: 0.13}

// Renderer shows a computed overlay. Replace is the only mutation
// primitive: every call supersedes the previous frame in full.
type Renderer interface {
	Replace(blocks []DisplayBlock, language string) error
}

// Compositor is an image-backed Renderer. It paints each display block as a
// semi-transparent rounded rectangle behind its wrapped text onto an RGBA
// frame sized to the screen in points, which callers can snapshot for
// display or for debug artifacts.
type Compositor struct {
	fonts  *FontProvider
	width  int
	height int

	mu    sync.Mutex
	frame image.Image
}

func NewCompositor(fonts *FontProvider, width, height int) *Compositor {
	return &Compositor{fonts: fonts, width: width, height: height}
}

// Replace redraws the whole frame from the given blocks.
func (c *Compositor) Replace(blocks []DisplayBlock, language string) error {
	frame := c.compose(blocks, language, Rect{W: float64(c.width), H: float64(c.height)})
	c.mu.Lock()
	c.frame = frame
	c.mu.Unlock()
	return nil
}

// Frame returns the most recently composed frame, or nil before the first
// Replace call.
func (c *Compositor) Frame() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

func (c *Compositor) compose(blocks []DisplayBlock, language string, redraw Rect) image.Image {
	dc := gg.NewContext(c.width, c.height)
	font := c.fonts.FontForLanguage(language)
	text := textColorFor(backdropColor)

	for _, block := range blocks {
		// Culling is an optimization only; with a full-frame redraw
		// region every block passes.
		if !block.Rect.Intersects(redraw) {
			continue
		}
		c.drawBlock(dc, block, font, text)
	}
	return dc.Image()
}

func (c *Compositor) drawBlock(dc *gg.Context, block DisplayBlock, font *truetype.Font, text colorful.Color) {
	// Display blocks use a bottom-left origin; the frame a top-left one.
	top := float64(c.height) - block.Rect.Y - block.Rect.H

	dc.SetRGBA(backdropColor.R, backdropColor.G, backdropColor.B, backdropAlpha)
	dc.DrawRoundedRectangle(block.Rect.X, top, block.Rect.W, block.Rect.H, cornerRadius)
	dc.Fill()

	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: block.FontSize}))
	dc.SetRGB(text.R, text.G, text.B)
	dc.DrawStringWrapped(
		block.Text,
		block.Rect.X+block.Padding,
		top+block.Padding,
		0, 0,
		block.Rect.W-2*block.Padding,
		lineSpacing,
		gg.AlignLeft,
	)
}

// textColorFor picks white or near-black text depending on the backdrop's
// perceived lightness.
func textColorFor(backdrop colorful.Color) colorful.Color {
	lightness, _, _ := backdrop.Lab()
	if lightness > 0.5 {
		return colorful.Color{R: 0.05, G: 0.05, B: 0.05}
	}
	return colorful.Color{R: 0.97, G: 0.97, B: 0.97}
}
