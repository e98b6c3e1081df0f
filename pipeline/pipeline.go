// Package pipeline runs the end-to-end screen translation sequence: capture
// a display, preprocess the frame, extract text blocks, translate them, and
// lay out the translated overlay.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/overlens-project/overlens/capture"
	"github.com/overlens-project/overlens/pipeline/extract"
	"github.com/overlens-project/overlens/pipeline/overlay"
	"github.com/overlens-project/overlens/pipeline/preprocess"
	"github.com/overlens-project/overlens/pipeline/translate"
	"github.com/overlens-project/overlens/settings"
)

// ErrCaptureFailed reports that the screen could not be captured, usually a
// permissions or display-configuration problem the user has to fix.
var ErrCaptureFailed = errors.New("screen capture failed")

// ErrNoText reports that recognition found no text in the captured frame.
// No translation is attempted in that case.
var ErrNoText = errors.New("no text detected")

// Params bundles the pipeline's collaborators and display geometry.
type Params struct {
	Settings   settings.Store
	Source     capture.Source
	Filter     preprocess.Filter // nil disables the accelerated path entirely
	Extractor  *extract.Extractor
	Translator *translate.Orchestrator
	Layout     *overlay.Engine
	Renderer   overlay.Renderer // nil skips rendering

	// ScaleFactor is device pixels per screen point. Zero means 1.
	ScaleFactor float64
	// ScreenHeight is the display height in screen points. Zero derives
	// it from the captured frame and the scale factor.
	ScreenHeight float64

	Logger *slog.Logger
}

// Result is the outcome of one pipeline run.
type Result struct {
	Blocks []overlay.DisplayBlock
	// Translated is false when one or more blocks degraded to their
	// source text.
	Translated bool
}

type Pipeline struct {
	settings     settings.Store
	source       capture.Source
	accelerated  *preprocess.Preprocessor
	plain        *preprocess.Preprocessor
	extractor    *extract.Extractor
	translator   *translate.Orchestrator
	layout       *overlay.Engine
	renderer     overlay.Renderer
	scaleFactor  float64
	screenHeight float64
	log          *slog.Logger
}

func New(params Params) *Pipeline {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scale := params.ScaleFactor
	if scale == 0 {
		scale = 1
	}
	return &Pipeline{
		settings:     params.Settings,
		source:       params.Source,
		accelerated:  preprocess.New(params.Filter, logger),
		plain:        preprocess.New(nil, logger),
		extractor:    params.Extractor,
		translator:   params.Translator,
		layout:       params.Layout,
		renderer:     params.Renderer,
		scaleFactor:  scale,
		screenHeight: params.ScreenHeight,
		log:          logger,
	}
}

// Run executes one capture-to-overlay pass. Settings are read once at the
// start; changes mid-run take effect on the next run. Per-block translation
// failures do not abort the run, they only clear Result.Translated.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	current := p.settings.Current()

	frame, err := p.source.Capture(current.DisplayIndex)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	originalSize := frame.Bounds().Size()

	preprocessor := p.plain
	if current.Acceleration {
		preprocessor = p.accelerated
	}
	processed := preprocessor.Preprocess(frame)

	blocks := p.extractor.Extract(ctx, processed, originalSize)
	if len(blocks) == 0 {
		return Result{}, ErrNoText
	}
	p.log.Debug("extracted text blocks", "count", len(blocks))

	translated, err := p.translator.Translate(ctx, blocks, current.TargetLanguage, current.Mode)
	if err != nil {
		return Result{}, err
	}

	screenHeight := p.screenHeight
	if screenHeight == 0 {
		screenHeight = float64(originalSize.Y) / p.scaleFactor
	}
	display := p.layout.Layout(translated.Blocks, current.TargetLanguage, p.scaleFactor, screenHeight)

	if p.renderer != nil {
		if err := p.renderer.Replace(display, current.TargetLanguage); err != nil {
			return Result{}, fmt.Errorf("failed to render overlay: %w", err)
		}
	}
	return Result{Blocks: display, Translated: translated.Success}, nil
}
