package extract

import (
	"context"
	"errors"
	"image"
	"testing"
)

type fakeEngine struct {
	observations []Observation
	err          error
	hints        []string
	accurate     bool
}

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image, languageHints []string, accurate bool) ([]Observation, error) {
	f.hints = languageHints
	f.accurate = accurate
	return f.observations, f.err
}

func TestExtractConvertsNormalizedCoordinates(t *testing.T) {
	t.Parallel()

	// One region covering the top-left quarter of a 1000x500 processed frame:
	// normalized origin is bottom-left, so the top-left quarter starts at y=0.5.
	engine := &fakeEngine{observations: []Observation{
		{Bounds: NormalizedRect{X: 0, Y: 0.5, W: 0.5, H: 0.5}, Candidates: []string{"Hello"}},
	}}
	e := New(engine, []string{"en"}, nil)

	processed := image.NewRGBA(image.Rect(0, 0, 1000, 500))
	blocks := e.Extract(context.Background(), processed, image.Pt(1000, 500))

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	want := image.Rect(0, 0, 500, 250)
	if blocks[0].Rect != want {
		t.Errorf("expected rect %v, got %v", want, blocks[0].Rect)
	}
	if blocks[0].Text != "Hello" {
		t.Errorf("expected text %q, got %q", "Hello", blocks[0].Text)
	}
	if !engine.accurate {
		t.Error("expected accurate recognition mode")
	}
}

func TestExtractRescalesToOriginalSpace(t *testing.T) {
	t.Parallel()

	// Processed frame is half the original in both dimensions, so pixel
	// coordinates double on the way back.
	engine := &fakeEngine{observations: []Observation{
		{Bounds: NormalizedRect{X: 0.1, Y: 0.7, W: 0.2, H: 0.1}, Candidates: []string{"scaled"}},
	}}
	e := New(engine, nil, nil)

	processed := image.NewRGBA(image.Rect(0, 0, 1000, 1000))
	blocks := e.Extract(context.Background(), processed, image.Pt(2000, 2000))

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	// Normalized (0.1, 0.7, 0.2, 0.1) -> processed pixels (100, 200, w=200,
	// h=100) -> doubled.
	want := image.Rect(200, 400, 600, 600)
	if blocks[0].Rect != want {
		t.Errorf("expected rect %v, got %v", want, blocks[0].Rect)
	}
}

func TestExtractSkipsRegionsWithoutCandidates(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{observations: []Observation{
		{Bounds: NormalizedRect{X: 0, Y: 0, W: 0.5, H: 0.1}, Candidates: nil},
		{Bounds: NormalizedRect{X: 0, Y: 0.2, W: 0.5, H: 0.1}, Candidates: []string{""}},
		{Bounds: NormalizedRect{X: 0, Y: 0.4, W: 0.5, H: 0.1}, Candidates: []string{"kept", "alternative"}},
	}}
	e := New(engine, nil, nil)

	blocks := e.Extract(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 100)), image.Pt(100, 100))

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "kept" {
		t.Errorf("expected top candidate %q, got %q", "kept", blocks[0].Text)
	}
}

func TestExtractPreservesEngineOrder(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{observations: []Observation{
		{Bounds: NormalizedRect{X: 0, Y: 0.8, W: 0.1, H: 0.1}, Candidates: []string{"first"}},
		{Bounds: NormalizedRect{X: 0, Y: 0.4, W: 0.1, H: 0.1}, Candidates: []string{"second"}},
		{Bounds: NormalizedRect{X: 0, Y: 0.0, W: 0.1, H: 0.1}, Candidates: []string{"third"}},
	}}
	e := New(engine, nil, nil)

	blocks := e.Extract(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 100)), image.Pt(100, 100))

	want := []string{"first", "second", "third"}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, text := range want {
		if blocks[i].Text != text {
			t.Errorf("block %d: expected %q, got %q", i, text, blocks[i].Text)
		}
	}
}

func TestExtractEngineFailureDegradesToZeroBlocks(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{err: errors.New("recognition backend down")}
	e := New(engine, nil, nil)

	blocks := e.Extract(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 100)), image.Pt(100, 100))

	if len(blocks) != 0 {
		t.Errorf("expected zero blocks on engine failure, got %d", len(blocks))
	}
}
