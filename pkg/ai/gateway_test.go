package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompletePrependsSystemPrompt(t *testing.T) {
	var got chatRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-1" {
			t.Errorf("authorization header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  the reply  "}},
			},
		})
	}))
	defer upstream.Close()

	client := NewGatewayClient(upstream.URL+"/v1", "key-1", "google/gemini-2.5-flash")
	reply, err := client.Complete(context.Background(), "system text", []ChatMessage{
		{Role: "user", Content: "question"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "the reply" {
		t.Fatalf("reply = %q, want trimmed content", reply)
	}
	if got.Model != "google/gemini-2.5-flash" {
		t.Fatalf("model = %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "system text" {
		t.Fatalf("system prompt not prepended: %+v", got.Messages)
	}
}

func TestCompleteReturnsTypedGatewayError(t *testing.T) {
	for _, status := range []int{429, 402, 500} {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"upstream detail"}}`, status)
		}))

		client := NewGatewayClient(upstream.URL, "k", "m")
		_, err := client.Complete(context.Background(), "s", []ChatMessage{{Role: "user", Content: "q"}})
		upstream.Close()

		var gatewayErr *GatewayError
		if !errors.As(err, &gatewayErr) {
			t.Fatalf("status %d: err = %v, want *GatewayError", status, err)
		}
		if gatewayErr.Status != status {
			t.Fatalf("gateway status = %d, want %d", gatewayErr.Status, status)
		}
		if errText := err.Error(); errText == "" || len(errText) > 100 {
			t.Fatalf("error text should be short and safe: %q", errText)
		}
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer upstream.Close()

	client := NewGatewayClient(upstream.URL, "", "m")
	if _, err := client.Complete(context.Background(), "s", []ChatMessage{{Role: "user", Content: "q"}}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestCompleteRequiresModel(t *testing.T) {
	client := NewGatewayClient("http://localhost:0", "", "")
	if _, err := client.Complete(context.Background(), "s", nil); err == nil {
		t.Fatalf("expected error when model is blank")
	}
}
