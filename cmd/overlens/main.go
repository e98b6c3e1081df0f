package main

import (
	"context"
	"errors"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"github.com/lmittmann/tint"
	"github.com/ridge/must/v2"
	"google.golang.org/api/option"

	"github.com/overlens-project/overlens/capture"
	"github.com/overlens-project/overlens/pipeline"
	"github.com/overlens-project/overlens/pipeline/extract"
	"github.com/overlens-project/overlens/pipeline/extract/engine"
	"github.com/overlens-project/overlens/pipeline/overlay"
	"github.com/overlens-project/overlens/pipeline/preprocess"
	"github.com/overlens-project/overlens/pipeline/translate"
	"github.com/overlens-project/overlens/pipeline/translate/localllm"
	"github.com/overlens-project/overlens/pkg/env"
	"github.com/overlens-project/overlens/settings"
)

func main() {
	env.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel(),
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := settings.NewEnvStore()
	current := store.Current()

	fonts := must.OK1(overlay.NewFontProvider(env.StringVariable("OVERLENS_FONT_DIR", "")))

	scale := float64(env.IntVariable("OVERLENS_SCALE_FACTOR", 1))
	bounds := must.OK1(capture.DisplayBounds(current.DisplayIndex))
	screenWidth := int(float64(bounds.Dx()) / scale)
	screenHeight := int(float64(bounds.Dy()) / scale)
	compositor := overlay.NewCompositor(fonts, screenWidth, screenHeight)

	p := pipeline.New(pipeline.Params{
		Settings:     store,
		Source:       capture.NewScreenSource(),
		Filter:       preprocess.NewGoCVFilter(),
		Extractor:    newExtractor(ctx, logger),
		Translator:   newTranslator(logger),
		Layout:       overlay.NewEngine(fonts, logger),
		Renderer:     compositor,
		ScaleFactor:  scale,
		ScreenHeight: float64(screenHeight),
		Logger:       logger,
	})

	result, err := p.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrNoText):
		logger.Info("no text detected on screen")
		return
	case errors.Is(err, translate.ErrUserDeclined):
		logger.Info("language pack download declined, nothing translated")
		return
	case err != nil:
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	if !result.Translated {
		logger.Warn("some blocks kept their source text")
	}
	logger.Info("overlay computed", "blocks", len(result.Blocks))

	output := env.StringVariable("OVERLENS_OUTPUT", "overlay.png")
	file := must.OK1(os.Create(output))
	defer file.Close()
	must.OK(png.Encode(file, compositor.Frame()))
	logger.Info("overlay frame written", "path", output)
}

func newExtractor(ctx context.Context, logger *slog.Logger) *extract.Extractor {
	hints := strings.Split(env.StringVariable("OVERLENS_OCR_LANGUAGES", "en,zh"), ",")

	var recognizer extract.Engine
	switch name := env.StringVariable("OVERLENS_OCR_ENGINE", "tesseract"); name {
	case "cloudvision":
		var opts []option.ClientOption
		if credentials := env.StringVariable("OVERLENS_GCP_CREDENTIALS", ""); credentials != "" {
			opts = append(opts, option.WithCredentialsFile(credentials))
		}
		recognizer = engine.NewCloudVision(must.OK1(vision.NewImageAnnotatorClient(ctx, opts...)))
	case "tesseract":
		recognizer = engine.NewTesseract()
	default:
		logger.Warn("unknown OCR engine, using tesseract", "engine", name)
		recognizer = engine.NewTesseract()
	}
	return extract.New(recognizer, hints, logger)
}

func newTranslator(logger *slog.Logger) *translate.Orchestrator {
	online := translate.NewOnlineClient(env.StringVariable("OVERLENS_TRANSLATE_ENDPOINT", ""), logger)

	var session translate.Session
	if baseURL := env.StringVariable("OVERLENS_LOCAL_LLM_URL", ""); baseURL != "" {
		session = localllm.New(baseURL, env.StringVariable("OVERLENS_LOCAL_LLM_MODEL", "qwen2.5:3b"))
	}

	decide := func(pair translate.LanguagePair) translate.Decision {
		if env.BoolVariable("OVERLENS_AUTO_DOWNLOAD_PACKS", false) {
			return translate.DecisionDownload
		}
		return translate.DecisionFallbackOnline
	}
	return translate.NewOrchestrator(translate.NewCache(), online, session, decide, nil, logger)
}

func logLevel() slog.Level {
	if env.BoolVariable("OVERLENS_DEBUG", false) {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
