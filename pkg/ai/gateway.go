package ai

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

// GatewayError is returned for upstream non-2xx responses. Status keeps
// the upstream HTTP status so callers can distinguish rate limiting
// (429) and quota exhaustion (402) from other failures. The raw upstream
// body is logged server-side and never carried in the error text.
type GatewayError struct {
	Status int
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ai gateway error: status %d", e.Status)
}

// GatewayClient calls an OpenAI-compatible /v1/chat/completions endpoint.
// Works with the hosted gateway, vLLM, LiteLLM, OpenRouter, etc.
type GatewayClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGatewayClient builds a ChatCompleter for an OpenAI-compatible
// gateway. baseURL should include the /v1 prefix. The API key is
// required; validate it before construction.
func NewGatewayClient(baseURL, apiKey, model string) *GatewayClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &GatewayClient{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Complete implements ChatCompleter using the chat completions API. The
// system prompt is prepended to the caller's message list.
func (g *GatewayClient) Complete(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error) {
	if g.model == "" {
		return "", fmt.Errorf("gateway generation model required")
	}
	payload := make([]ChatMessage, 0, 1+len(messages))
	if strings.TrimSpace(systemPrompt) != "" {
		payload = append(payload, ChatMessage{Role: "system", Content: systemPrompt})
	}
	payload = append(payload, messages...)

	body, err := json.Marshal(chatRequest{Model: g.model, Messages: payload})
	if err != nil {
		return "", err
	}

	url := g.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Full upstream detail stays in server logs only.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		slog.Error("ai gateway error",
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(raw)),
		)
		return "", &GatewayError{Status: resp.StatusCode}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("gateway decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from ai gateway")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from ai gateway")
	}
	return text, nil
}

// OpenAI-compatible request/response types.

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}
