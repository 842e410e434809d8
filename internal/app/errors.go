package app

import "errors"

var (
	// ErrRateLimited indicates the upstream model gateway rejected the
	// request with a rate limit. Callers may retry shortly.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrQuotaExhausted indicates upstream capacity or billing
	// exhaustion. Only an operator action recovers this.
	ErrQuotaExhausted = errors.New("service temporarily unavailable")
	// ErrEmptyMessages indicates the request carried no usable message list.
	ErrEmptyMessages = errors.New("messages required")
	// ErrConversationNotFound indicates an unknown conversation id.
	ErrConversationNotFound = errors.New("conversation not found")
)
