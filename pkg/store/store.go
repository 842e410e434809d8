package store

import "revenai/pkg/domain"

// ConversationStore persists conversations and their message history.
type ConversationStore interface {
	// CreateConversation inserts a conversation with the default title
	// and returns it. No user identity is required.
	CreateConversation() (domain.Conversation, error)
	GetConversation(id string) (domain.Conversation, bool, error)
	// ListRecentConversations returns conversations ordered by
	// updated_at descending, bounded by limit.
	ListRecentConversations(limit int) ([]domain.Conversation, error)
	// ListConversationMessages returns all messages in creation order.
	// An unknown id yields an empty slice, not an error.
	ListConversationMessages(conversationID string) ([]domain.Message, error)
	// AppendExchange inserts the user turn then the assistant turn and
	// bumps the conversation's updated_at in one transaction.
	AppendExchange(conversationID, userText, assistantText string) error
	// RetitleIfFirstExchange sets the title to an excerpt of the first
	// user message, but only while the conversation still holds a single
	// exchange. Later calls are no-ops.
	RetitleIfFirstExchange(conversationID, firstUserText string) error
	// DeleteConversation removes the conversation and all its messages.
	DeleteConversation(id string) error
}

// CatalogStore exposes read-only access to the business data the
// assistant is grounded on.
type CatalogStore interface {
	ListActiveProducts() ([]domain.Product, error)
	ListServices() ([]domain.Service, error)
	ListBranches() ([]domain.Branch, error)
	ListTeamMembers() ([]domain.TeamMember, error)
	ListRecentPublishedPosts(limit int) ([]domain.BlogPost, error)
}

// ConfigStore manages the singleton assistant configuration.
type ConfigStore interface {
	// GetOrCreateAssistantConfig returns the active config, creating the
	// default record when none exists yet.
	GetOrCreateAssistantConfig() (domain.AssistantConfig, error)
	// UpdateAssistantConfig overwrites the active config. Last write wins.
	UpdateAssistantConfig(cfg domain.AssistantConfig) (domain.AssistantConfig, error)
}

// Store combines all persistence concerns of the service.
type Store interface {
	ConversationStore
	CatalogStore
	ConfigStore
}
