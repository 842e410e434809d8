package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"revenai/pkg/domain"
)

// MemoryStore keeps all state in-process. It is used by tests and by
// local development without Postgres.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]domain.Conversation
	messages      map[string][]domain.Message
	config        *domain.AssistantConfig
	products      []domain.Product
	services      []domain.Service
	branches      []domain.Branch
	team          []domain.TeamMember
	posts         []domain.BlogPost
	now           func() time.Time
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string][]domain.Message),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateConversation inserts a conversation with the default title.
func (m *MemoryStore) CreateConversation() (domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		Title:     DefaultConversationTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.conversations[conv.ID] = conv
	return conv, nil
}

// GetConversation retrieves a conversation by id.
func (m *MemoryStore) GetConversation(id string) (domain.Conversation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.conversations[id]
	return conv, ok, nil
}

// ListRecentConversations returns conversations ordered by UpdatedAt descending.
func (m *MemoryStore) ListRecentConversations(limit int) ([]domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// ListConversationMessages returns messages in creation order.
func (m *MemoryStore) ListConversationMessages(conversationID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[conversationID]
	res := make([]domain.Message, len(msgs))
	copy(res, msgs)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

// AppendExchange records the user and assistant turns and bumps UpdatedAt.
func (m *MemoryStore) AppendExchange(conversationID, userText, assistantText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	userAt := m.now()
	assistantAt := userAt.Add(time.Millisecond)
	m.messages[conversationID] = append(m.messages[conversationID],
		domain.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			Role:           "user",
			Content:        userText,
			CreatedAt:      userAt,
		},
		domain.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			Role:           "assistant",
			Content:        assistantText,
			CreatedAt:      assistantAt,
		},
	)
	if conv, ok := m.conversations[conversationID]; ok {
		conv.UpdatedAt = assistantAt
		m.conversations[conversationID] = conv
	}
	return nil
}

// RetitleIfFirstExchange sets the excerpt title exactly once.
func (m *MemoryStore) RetitleIfFirstExchange(conversationID, firstUserText string) error {
	title := excerptTitle(firstUserText)
	if title == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[conversationID]
	if !ok {
		return nil
	}
	if len(m.messages[conversationID]) > 2 || conv.Title != DefaultConversationTitle {
		return nil
	}
	conv.Title = title
	m.conversations[conversationID] = conv
	return nil
}

// DeleteConversation removes the conversation and its messages.
func (m *MemoryStore) DeleteConversation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, id)
	delete(m.messages, id)
	return nil
}

// GetOrCreateAssistantConfig returns the config, materializing the default.
func (m *MemoryStore) GetOrCreateAssistantConfig() (domain.AssistantConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		model := defaultConfigModel()
		cfg := configFromModel(model)
		m.config = &cfg
	}
	return *m.config, nil
}

// UpdateAssistantConfig overwrites the config.
func (m *MemoryStore) UpdateAssistantConfig(cfg domain.AssistantConfig) (domain.AssistantConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg.ID = activeConfigID
	cfg.UpdatedAt = m.now()
	m.config = &cfg
	return cfg, nil
}

// ListActiveProducts returns seeded products flagged active.
func (m *MemoryStore) ListActiveProducts() ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if p.Active {
			res = append(res, p)
		}
	}
	return res, nil
}

// ListServices returns seeded services.
func (m *MemoryStore) ListServices() ([]domain.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Service, len(m.services))
	copy(res, m.services)
	return res, nil
}

// ListBranches returns seeded branches.
func (m *MemoryStore) ListBranches() ([]domain.Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Branch, len(m.branches))
	copy(res, m.branches)
	return res, nil
}

// ListTeamMembers returns seeded team members.
func (m *MemoryStore) ListTeamMembers() ([]domain.TeamMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.TeamMember, len(m.team))
	copy(res, m.team)
	return res, nil
}

// ListRecentPublishedPosts returns seeded published posts, newest first.
func (m *MemoryStore) ListRecentPublishedPosts(limit int) ([]domain.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.BlogPost, 0, len(m.posts))
	for _, p := range m.posts {
		if p.Published {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].PublishedAt.After(res[j].PublishedAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// SaveProduct seeds a product.
func (m *MemoryStore) SaveProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
}

// SaveService seeds a service.
func (m *MemoryStore) SaveService(s domain.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, s)
}

// SaveBranch seeds a branch.
func (m *MemoryStore) SaveBranch(b domain.Branch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches = append(m.branches, b)
}

// SaveTeamMember seeds a team member.
func (m *MemoryStore) SaveTeamMember(t domain.TeamMember) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.team = append(m.team, t)
}

// SaveBlogPost seeds a blog post.
func (m *MemoryStore) SaveBlogPost(p domain.BlogPost) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, p)
}
