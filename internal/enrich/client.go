package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

const systemPrompt = `You are a document analyst. For the given article text,
respond with a single JSON object and nothing else, shaped as:
{"category": string, "keywords": [string], "entities": [string], "summary": string}.
Keep keywords to at most 10 items and the summary under 150 words.`

// ClientConfig configures the OpenAI-compatible chat client.
type ClientConfig struct {
	Endpoint      string
	Model         string
	APIKey        string
	MaxInputChars int
	Timeout       time.Duration
}

// ChatClient implements Enricher against an OpenAI-compatible chat
// completions API.
type ChatClient struct {
	cfg        ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Enricher = (*ChatClient)(nil)

// NewChatClient builds a client from configuration.
func NewChatClient(cfg ClientConfig, logger *zap.Logger) *ChatClient {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 4000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Enrich posts the content to the provider and parses the structured reply.
func (c *ChatClient) Enrich(ctx context.Context, content string) (*entity.EnrichmentResult, error) {
	if c.cfg.APIKey == "" || c.cfg.Endpoint == "" || c.cfg.Model == "" {
		return nil, fmt.Errorf("%w: client misconfigured", ErrUnavailable)
	}

	if len(content) > c.cfg.MaxInputChars {
		content = content[:c.cfg.MaxInputChars]
	}

	body, err := json.Marshal(map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": content},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal enrichment payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: provider returned %s", ErrUnavailable, resp.Status)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("enrichment provider %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrMalformed)
	}

	return parseResult(chat.Choices[0].Message.Content)
}

// parseResult extracts the JSON object from the model reply, tolerating
// fenced code blocks around it.
func parseResult(reply string) (*entity.EnrichmentResult, error) {
	reply = strings.TrimSpace(reply)
	if start := strings.Index(reply, "{"); start >= 0 {
		if end := strings.LastIndex(reply, "}"); end > start {
			reply = reply[start : end+1]
		}
	}

	var res entity.EnrichmentResult
	if err := json.Unmarshal([]byte(reply), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if res.Category == "" && len(res.Keywords) == 0 && res.Summary == "" {
		return nil, fmt.Errorf("%w: empty result", ErrMalformed)
	}
	return &res, nil
}
