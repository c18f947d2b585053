package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ralborta/cliente-centro-gestion/internal/matcher"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

// ExternalConfig configures the external ranking collaborator. An empty
// APIKey is a valid, expected state; callers normally select PassThrough
// instead, but an ExternalRanker built without a key also degrades to
// identity on every call.
type ExternalConfig struct {
	APIKey  string        `json:"-"`
	BaseURL string        `json:"base_url"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultExternalConfig returns the reference collaborator configuration.
func DefaultExternalConfig() *ExternalConfig {
	return &ExternalConfig{
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		Timeout: 10 * time.Second,
	}
}

// ExternalRanker delegates candidate ordering to a chat-completion style
// collaborator. All failures stay inside Rank.
type ExternalRanker struct {
	config  *ExternalConfig
	client  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger
}

// NewExternalRanker creates the external variant.
func NewExternalRanker(config *ExternalConfig) *ExternalRanker {
	if config == nil {
		config = DefaultExternalConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 1
	client.HTTPClient.Timeout = config.Timeout
	client.Logger = nil

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "reranker",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &ExternalRanker{
		config:  config,
		client:  client,
		breaker: breaker,
		log:     logger.WithComponent("rerank"),
	}
}

// Rank asks the collaborator to order the candidates by relevance to the
// query and parses the answer defensively. Any failure returns identity
// order; this method never panics and never surfaces an error.
func (r *ExternalRanker) Rank(ctx context.Context, query string, candidates []matcher.RankItem) []int {
	if len(candidates) < 2 {
		return identity(len(candidates))
	}
	if r.config.APIKey == "" {
		return identity(len(candidates))
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.complete(ctx, buildPrompt(query, candidates))
	})
	if err != nil {
		r.log.WithError(err).Debug("Ranking collaborator unavailable; keeping retrieval order")
		return identity(len(candidates))
	}

	text, ok := result.(string)
	if !ok {
		return identity(len(candidates))
	}
	return ParsePermutation(text, len(candidates))
}

// buildPrompt lists the candidates as "[i] description (monto=, fecha=)"
// lines and asks for a comma-separated index list.
func buildPrompt(query string, candidates []matcher.RankItem) string {
	var b strings.Builder
	b.WriteString("Ordena por mejor coincidencia con la transaccion de extracto '")
	b.WriteString(query)
	b.WriteString("'\nOpciones:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "[%d] %s (monto=%s, fecha=%s)\n", i, c.Description, c.Amount, c.Date)
	}
	b.WriteString("Devuelve una lista de indices en orden, separados por comas.")
	return b.String()
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete performs one chat-completion call and returns the raw answer
// text.
func (r *ExternalRanker) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       r.config.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(r.config.BaseURL, "/") + "/chat/completions"
	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.config.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("collaborator returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("collaborator returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
