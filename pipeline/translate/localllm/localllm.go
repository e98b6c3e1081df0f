// Package localllm implements the on-device translation session against an
// OpenAI-compatible local model server (for example an Ollama instance).
package localllm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/overlens-project/overlens/pipeline/translate"
)

const downloadTimeout = 10 * time.Minute

// Session translates with a local model server. Translate calls are
// serialized by a mutex; the underlying chat session is not safe to share.
type Session struct {
	client     *openai.Client
	httpClient *http.Client
	baseURL    string
	model      string
	mu         sync.Mutex
}

// New returns a session for the model server at baseURL (scheme and host,
// e.g. "http://localhost:11434") using the named model for every pair.
func New(baseURL, model string) *Session {
	baseURL = strings.TrimRight(baseURL, "/")
	config := openai.DefaultConfig("" /* local servers ignore auth */)
	config.BaseURL = baseURL + "/v1"
	return &Session{
		client:     openai.NewClientWithConfig(config),
		httpClient: &http.Client{Timeout: downloadTimeout},
		baseURL:    baseURL,
		model:      model,
	}
}

// Query reports the model's availability. An unreachable server means the
// device cannot translate at all, which maps to unsupported.
func (s *Session) Query(ctx context.Context, pair translate.LanguagePair) (translate.Availability, error) {
	list, err := s.client.ListModels(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return translate.AvailabilityUnsupported, ctx.Err()
		}
		return translate.AvailabilityUnsupported, nil
	}
	for _, model := range list.Models {
		if model.ID == s.model || strings.TrimSuffix(model.ID, ":latest") == s.model {
			return translate.AvailabilityInstalled, nil
		}
	}
	return translate.AvailabilityInstallable, nil
}

// Download pulls the model through the server's native pull route.
func (s *Session) Download(ctx context.Context, pair translate.LanguagePair) error {
	body, err := json.Marshal(map[string]any{"name": s.model, "stream": false})
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build pull request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("model pull failed: %w", err)
	}
	defer response.Body.Close()

	if _, err := io.Copy(io.Discard, response.Body); err != nil {
		return fmt.Errorf("model pull interrupted: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("model pull returned %s", response.Status)
	}
	return nil
}

// Translate translates one string for the given locale pair.
func (s *Session) Translate(ctx context.Context, pair translate.LanguagePair, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"You are a translation engine. Translate the user's text from %s to %s. Reply with the translation only, no explanations.",
					pair.Source, pair.Target),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("local model translation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("local model returned no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
