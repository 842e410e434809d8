package ai

import "context"

// ChatMessage is one turn of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompleter generates one assistant reply from a system prompt and
// the caller's visible message list. Implementations are non-streaming:
// exactly one reply per call.
type ChatCompleter interface {
	Complete(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error)
}
