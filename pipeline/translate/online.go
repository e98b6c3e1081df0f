package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultEndpoint is the web translation endpoint used when none is
// configured.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

const (
	requestTimeout = 15 * time.Second

	// The endpoint rejects requests without a browser-like user agent.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Rate-limited requests are retried this many times with a constant
	// pause before the block degrades to its source text.
	rateLimitRetries = 2
)

// Failure kinds for a single block's online translation.
var (
	// ErrRateLimited marks an HTTP 429 from the endpoint.
	ErrRateLimited = errors.New("translation rate limited")

	// ErrBadResponse marks a response that could not be parsed.
	ErrBadResponse = errors.New("unparseable translation response")
)

// OnlineClient translates single strings against a web translation endpoint
// using auto source-language detection.
type OnlineClient struct {
	endpoint        string
	httpClient      *http.Client
	backoffInterval time.Duration
	log             *slog.Logger
}

// NewOnlineClient returns a client for the given endpoint; an empty endpoint
// selects DefaultEndpoint.
func NewOnlineClient(endpoint string, logger *slog.Logger) *OnlineClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OnlineClient{
		endpoint:        endpoint,
		httpClient:      &http.Client{Timeout: requestTimeout},
		backoffInterval: time.Second,
		log:             logger,
	}
}

// Translate translates text into the target language. Rate-limited requests
// are retried; every other failure is returned to the caller, which keeps
// the source text for that block.
func (c *OnlineClient) Translate(ctx context.Context, text, target string) (string, error) {
	return backoff.RetryWithData(func() (string, error) {
		translated, err := c.translateOnce(ctx, text, target)
		if err != nil && !errors.Is(err, ErrRateLimited) {
			return "", backoff.Permanent(err)
		}
		return translated, err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoffInterval), rateLimitRetries), ctx))
}

func (c *OnlineClient) translateOnce(ctx context.Context, text, target string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", "auto")
	query.Set("tl", target)
	query.Set("dt", "t")
	query.Set("q", text)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build translation request: %w", err)
	}
	request.Header.Set("User-Agent", userAgent)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation endpoint returned %s", response.Status)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read translation response: %w", err)
	}

	translated, ok := parseTranslation(body)
	if !ok {
		return "", ErrBadResponse
	}
	return translated, nil
}

// parseTranslation reconstructs the translated string from the endpoint's
// nested-array payload. The payload's first element is a list of
// [translatedSegment, sourceSegment, ...] arrays; the full translation is
// the concatenation of each segment's first element.
func parseTranslation(body []byte) (string, bool) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		return "", false
	}

	segments, ok := payload[0].([]any)
	if !ok {
		return "", false
	}

	var translated strings.Builder
	for _, segment := range segments {
		parts, ok := segment.([]any)
		if !ok || len(parts) == 0 {
			return "", false
		}
		piece, ok := parts[0].(string)
		if !ok {
			return "", false
		}
		translated.WriteString(piece)
	}
	return translated.String(), true
}
