package overlay

import (
	"image"
	"math"
	"testing"

	"github.com/overlens-project/overlens/pipeline/extract"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	fonts, err := NewFontProvider("")
	if err != nil {
		t.Fatalf("NewFontProvider failed: %v", err)
	}
	return NewEngine(fonts, nil)
}

func TestLayoutScaledBlock(t *testing.T) {
	t.Parallel()

	// A 2x-scale capture with one detection at pixel rect (100,100)-(300,140)
	// reading a translated "你好".
	e := newTestEngine(t)
	blocks := []extract.TextBlock{
		{Rect: image.Rect(100, 100, 300, 140), Text: "你好"},
	}

	const screenHeight = 900.0
	out := e.Layout(blocks, "zh", 2.0, screenHeight)
	if len(out) != 1 {
		t.Fatalf("expected 1 display block, got %d", len(out))
	}

	block := out[0]
	if block.Rect.X != 50 {
		t.Errorf("expected x=50, got %v", block.Rect.X)
	}
	// The top edge stays anchored at the original detection point:
	// screenHeight - 100/2 = 850.
	if top := block.Rect.Y + block.Rect.H; math.Abs(top-850) > 1e-9 {
		t.Errorf("expected anchored top edge at 850, got %v", top)
	}
	if block.Rect.W < 200 {
		t.Errorf("expected width at least the 200pt wrap floor, got %v", block.Rect.W)
	}
	if block.Rect.H < 20 {
		t.Errorf("expected height at least the original 20pt, got %v", block.Rect.H)
	}
	if block.Text != "你好" {
		t.Errorf("unexpected text %q", block.Text)
	}
}

func TestLayoutNeverShrinksBelowOriginal(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	blocks := []extract.TextBlock{
		{Rect: image.Rect(0, 0, 600, 300), Text: "a"},
		{Rect: image.Rect(50, 400, 850, 460), Text: "some considerably longer translated sentence that wraps"},
		{Rect: image.Rect(10, 500, 40, 510), Text: "tiny"},
	}

	out := e.Layout(blocks, "en", 1.0, 1080)
	for i, block := range out {
		origWidth := float64(blocks[i].Rect.Dx())
		origHeight := float64(blocks[i].Rect.Dy())
		if block.Rect.W < origWidth {
			t.Errorf("block %d: width %v below original %v", i, block.Rect.W, origWidth)
		}
		if block.Rect.H < origHeight {
			t.Errorf("block %d: height %v below original %v", i, block.Rect.H, origHeight)
		}
	}
}

func TestLayoutFontSizeClamped(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	blocks := []extract.TextBlock{
		{Rect: image.Rect(0, 0, 100, 4), Text: "small"},   // 4pt tall detection
		{Rect: image.Rect(0, 0, 100, 30), Text: "medium"}, // inside the range
		{Rect: image.Rect(0, 0, 900, 400), Text: "huge"},  // banner-sized
	}

	out := e.Layout(blocks, "en", 1.0, 1080)
	if out[0].FontSize != MinFontSize {
		t.Errorf("expected minimum font size %v, got %v", float64(MinFontSize), out[0].FontSize)
	}
	if got := out[1].FontSize; got < MinFontSize || got > MaxFontSize {
		t.Errorf("font size %v outside [%d, %d]", got, MinFontSize, MaxFontSize)
	}
	if out[2].FontSize != MaxFontSize {
		t.Errorf("expected maximum font size %v, got %v", float64(MaxFontSize), out[2].FontSize)
	}
}

func TestLayoutPreservesOrder(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	blocks := []extract.TextBlock{
		{Rect: image.Rect(0, 300, 100, 320), Text: "third"},
		{Rect: image.Rect(0, 0, 100, 20), Text: "first"},
		{Rect: image.Rect(0, 150, 100, 170), Text: "second"},
	}

	out := e.Layout(blocks, "en", 1.0, 1080)
	for i, block := range out {
		if block.Text != blocks[i].Text {
			t.Errorf("block %d: expected %q, got %q", i, blocks[i].Text, block.Text)
		}
	}
}

func TestLayoutGrowthExpandsDownward(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	blocks := []extract.TextBlock{
		{Rect: image.Rect(100, 100, 300, 112), Text: "a long translated sentence that certainly needs more vertical room after wrapping"},
	}

	const screenHeight = 1080.0
	out := e.Layout(blocks, "en", 1.0, screenHeight)
	block := out[0]
	if block.Rect.H <= 12 {
		t.Fatalf("expected height to grow past 12, got %v", block.Rect.H)
	}
	if top := block.Rect.Y + block.Rect.H; math.Abs(top-(screenHeight-100)) > 1e-9 {
		t.Errorf("expected top edge fixed at %v, got %v", screenHeight-100, top)
	}
}

func TestRectIntersects(t *testing.T) {
	t.Parallel()

	base := Rect{X: 0, Y: 0, W: 100, H: 100}
	cases := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"overlapping", Rect{X: 50, Y: 50, W: 100, H: 100}, true},
		{"contained", Rect{X: 10, Y: 10, W: 20, H: 20}, true},
		{"disjoint", Rect{X: 200, Y: 200, W: 10, H: 10}, false},
		{"edge touching", Rect{X: 100, Y: 0, W: 10, H: 10}, false},
	}
	for _, tc := range cases {
		if got := base.Intersects(tc.other); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCompositorReplaceSetsFrame(t *testing.T) {
	t.Parallel()

	fonts, err := NewFontProvider("")
	if err != nil {
		t.Fatalf("NewFontProvider failed: %v", err)
	}
	c := NewCompositor(fonts, 400, 300)
	if c.Frame() != nil {
		t.Fatal("expected no frame before the first Replace")
	}

	blocks := []DisplayBlock{
		{Rect: Rect{X: 20, Y: 200, W: 220, H: 40}, Text: "hello", FontSize: 14, Padding: 8},
	}
	if err := c.Replace(blocks, "en"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	frame := c.Frame()
	if frame == nil {
		t.Fatal("expected a composed frame")
	}
	if size := frame.Bounds().Size(); size != image.Pt(400, 300) {
		t.Errorf("expected 400x300 frame, got %v", size)
	}
}
