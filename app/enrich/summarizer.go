package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Summarizer produces a short summary of article content.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// At most this many leading characters of the content are sent to the
// summarization service.
const summaryInputLimit = 2000

var _ Summarizer = (*OllamaClient)(nil)

// OllamaClient talks to an Ollama-compatible generation endpoint.
type OllamaClient struct {
	host       string
	model      string
	httpClient *http.Client
}

func NewOllamaClient(host, model string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		host:  strings.TrimSuffix(host, "/"),
		model: model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Summarize asks the model for a 3-5 sentence Japanese summary of the
// content's leading section.
func (c *OllamaClient) Summarize(ctx context.Context, content string) (string, error) {
	input := content
	if runes := []rune(input); len(runes) > summaryInputLimit {
		input = string(runes[:summaryInputLimit])
	}

	prompt := fmt.Sprintf(
		"あなたは技術記事の要約を作成するAIです。記事の要点を3〜5文で簡潔にまとめてください。\n\n以下の技術記事を要約してください:\n\n%s",
		input)

	reqBody, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: 0.3,
			NumPredict:  200,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarization request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("summarization service returned %d: %s", resp.StatusCode, string(body))
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}

	summary := strings.TrimSpace(generated.Response)
	if summary == "" {
		return "", fmt.Errorf("summarization service returned an empty response")
	}

	return summary, nil
}

// Healthy probes the service's model listing endpoint.
func (c *OllamaClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Summarization service health check failed", "host", c.host, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
