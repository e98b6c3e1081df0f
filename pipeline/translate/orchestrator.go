package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/overlens-project/overlens/pipeline/extract"
	"github.com/overlens-project/overlens/settings"
)

// onlineWorkers bounds concurrent requests against the online endpoint.
// Each worker holds one in-flight request at a time.
const onlineWorkers = 5

// ErrUserDeclined reports that the user cancelled the batch at the offline
// language-pack decision point. The accompanying Result carries the
// original, unmodified blocks.
var ErrUserDeclined = errors.New("offline language pack download declined")

// Result is the outcome of one translation batch. Blocks always has the
// full batch, index-aligned with the input; Success is false when any block
// fell back to its source text.
type Result struct {
	Blocks  []extract.TextBlock
	Success bool
}

// Orchestrator fans a batch of text blocks out to a translation backend and
// back in, preserving input order. It holds no per-run state; switching
// modes between calls carries over only through the shared cache, which is
// already namespaced by mode.
type Orchestrator struct {
	cache       *Cache
	online      *OnlineClient
	session     Session // nil when the platform has no on-device backend
	decide      DecisionFunc
	guessSource SourceGuess
	log         *slog.Logger
}

// NewOrchestrator wires the translation backends together. session may be
// nil (offline mode then transparently uses the online path), decide may be
// nil (installable packs fall back online), and guessSource defaults to
// DefaultSourceGuess.
func NewOrchestrator(cache *Cache, online *OnlineClient, session Session, decide DecisionFunc, guessSource SourceGuess, logger *slog.Logger) *Orchestrator {
	if guessSource == nil {
		guessSource = DefaultSourceGuess
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cache:       cache,
		online:      online,
		session:     session,
		decide:      decide,
		guessSource: guessSource,
		log:         logger,
	}
}

// Translate translates the batch into the target language using the
// requested mode. The returned error is non-nil only for cancelled batches:
// ctx errors, or ErrUserDeclined from the offline decision point. Per-block
// failures never abort the batch; they keep the source text and clear
// Result.Success.
func (o *Orchestrator) Translate(ctx context.Context, blocks []extract.TextBlock, target string, mode settings.Mode) (Result, error) {
	if mode == settings.ModeOffline {
		if o.session != nil {
			return o.translateOffline(ctx, blocks, target)
		}
		o.log.Info("offline translation unsupported, using online backend")
	}
	return o.translateOnline(ctx, blocks, target)
}

func (o *Orchestrator) translateOnline(ctx context.Context, blocks []extract.TextBlock, target string) (Result, error) {
	out := make([]extract.TextBlock, len(blocks))
	copy(out, blocks)

	type task struct {
		index int
		text  string
	}

	tasks := make(chan task)
	var failed atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < onlineWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range tasks {
				translated, err := o.online.Translate(ctx, tk.text, target)
				if err != nil {
					// The output slot already holds the source text.
					o.log.Warn("block translation failed", "index", tk.index, "error", err)
					failed.Store(true)
					continue
				}
				o.cache.Put(tk.text, target, settings.ModeOnline, translated)
				out[tk.index].Text = translated
			}
		}()
	}

	for i, block := range blocks {
		text := strings.TrimSpace(block.Text)
		if text == "" {
			// Whitespace-only blocks short-circuit to themselves: no
			// request, no cache entry.
			continue
		}
		if cached, ok := o.cache.Get(text, target, settings.ModeOnline); ok {
			out[i].Text = cached
			continue
		}
		tasks <- task{index: i, text: text}
	}
	close(tasks)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{Blocks: blocks, Success: false}, err
	}
	return Result{Blocks: out, Success: !failed.Load()}, nil
}

func (o *Orchestrator) translateOffline(ctx context.Context, blocks []extract.TextBlock, target string) (Result, error) {
	pair := LanguagePair{
		Source: localeFor(o.guessSource(target)),
		Target: localeFor(target),
	}

	availability, err := o.session.Query(ctx, pair)
	if err != nil {
		o.log.Warn("offline availability query failed, using online backend", "error", err)
		return o.translateOnline(ctx, blocks, target)
	}

	switch availability {
	case AvailabilityUnsupported:
		o.log.Info("language pair unsupported on device, using online backend",
			"source", pair.Source, "target", pair.Target)
		return o.translateOnline(ctx, blocks, target)
	case AvailabilityInstallable:
		decision := DecisionFallbackOnline
		if o.decide != nil {
			decision = o.decide(pair)
		}
		switch decision {
		case DecisionDownload:
			if err := o.session.Download(ctx, pair); err != nil {
				o.log.Warn("language pack download failed, using online backend", "error", err)
				return o.translateOnline(ctx, blocks, target)
			}
		case DecisionCancel:
			return Result{Blocks: blocks, Success: false}, ErrUserDeclined
		default:
			return o.translateOnline(ctx, blocks, target)
		}
	}

	// The on-device session is stateful and single-flight, so blocks are
	// translated strictly in sequence.
	out := make([]extract.TextBlock, len(blocks))
	copy(out, blocks)
	success := true
	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			return Result{Blocks: blocks, Success: false}, err
		}

		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}
		if cached, ok := o.cache.Get(text, target, settings.ModeOffline); ok {
			out[i].Text = cached
			continue
		}

		translated, err := o.session.Translate(ctx, pair, text)
		if err != nil {
			o.log.Warn("on-device translation failed", "index", i, "error", err)
			success = false
			continue
		}
		o.cache.Put(text, target, settings.ModeOffline, translated)
		out[i].Text = translated
	}
	return Result{Blocks: out, Success: success}, nil
}
