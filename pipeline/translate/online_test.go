package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// translationHandler answers like the web endpoint: a nested array whose
// first element lists [translatedSegment, sourceSegment] pairs.
func translationHandler(translations map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := r.URL.Query().Get("q")
		translated, ok := translations[source]
		if !ok {
			translated = source
		}
		fmt.Fprintf(w, `[[[%q,%q]],null,"en"]`, translated, source)
	}
}

func TestOnlineTranslate(t *testing.T) {
	t.Parallel()

	var userAgentSeen atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgentSeen.Store(r.Header.Get("User-Agent"))
		if got := r.URL.Query().Get("sl"); got != "auto" {
			t.Errorf("expected sl=auto, got %q", got)
		}
		if got := r.URL.Query().Get("tl"); got != "zh" {
			t.Errorf("expected tl=zh, got %q", got)
		}
		translationHandler(map[string]string{"Hello": "你好"})(w, r)
	}))
	defer server.Close()

	client := NewOnlineClient(server.URL, nil)
	translated, err := client.Translate(context.Background(), "Hello", "zh")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if translated != "你好" {
		t.Errorf("expected %q, got %q", "你好", translated)
	}
	if ua, _ := userAgentSeen.Load().(string); ua != userAgent {
		t.Errorf("expected fixed user agent, got %q", ua)
	}
}

func TestOnlineTranslateConcatenatesSegments(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[["第一段","first segment"],["第二段","second segment"]],null,"en"]`)
	}))
	defer server.Close()

	client := NewOnlineClient(server.URL, nil)
	translated, err := client.Translate(context.Background(), "first segment second segment", "zh")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if translated != "第一段第二段" {
		t.Errorf("expected concatenated segments, got %q", translated)
	}
}

func TestOnlineTranslateRateLimited(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOnlineClient(server.URL, nil)
	client.backoffInterval = 0

	_, err := client.Translate(context.Background(), "Hello", "zh")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got := requests.Load(); got != rateLimitRetries+1 {
		t.Errorf("expected %d attempts, got %d", rateLimitRetries+1, got)
	}
}

func TestOnlineTranslateRecoversAfterRateLimit(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		translationHandler(map[string]string{"Hello": "你好"})(w, r)
	}))
	defer server.Close()

	client := NewOnlineClient(server.URL, nil)
	client.backoffInterval = 0

	translated, err := client.Translate(context.Background(), "Hello", "zh")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if translated != "你好" {
		t.Errorf("expected %q after retry, got %q", "你好", translated)
	}
}

func TestOnlineTranslateBadResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"unexpected":"shape"}`)
	}))
	defer server.Close()

	client := NewOnlineClient(server.URL, nil)
	_, err := client.Translate(context.Background(), "Hello", "zh")
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
}

func TestOnlineTranslateServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOnlineClient(server.URL, nil)
	_, err := client.Translate(context.Background(), "Hello", "zh")
	if err == nil {
		t.Fatal("expected a network error for a non-200 response")
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrBadResponse) {
		t.Errorf("expected a generic network error, got %v", err)
	}
}

func TestParseTranslation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{"single segment", `[[["你好","Hello"]],null,"en"]`, "你好", true},
		{"multiple segments", `[[["一","1"],["二","2"]],null,"en"]`, "一二", true},
		{"empty payload", `[]`, "", false},
		{"not json", `hello`, "", false},
		{"wrong nesting", `[["flat"]]`, "", false},
		{"non-string segment", `[[[42,"Hello"]]]`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTranslation([]byte(tt.body))
			if ok != tt.ok {
				t.Fatalf("expected ok=%t, got %t", tt.ok, ok)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
