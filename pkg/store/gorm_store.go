package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"revenai/pkg/domain"
)

const (
	// DefaultConversationTitle is used until the first real exchange
	// provides an excerpt.
	DefaultConversationTitle = "New Conversation"
	// activeConfigID pins the assistant config to a single row.
	activeConfigID = "active"

	titleMaxRunes = 50
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&ConversationModel{},
		&ConversationMessageModel{},
		&AssistantConfigModel{},
		&ProductModel{},
		&ServiceModel{},
		&BranchModel{},
		&TeamMemberModel{},
		&BlogPostModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateConversation inserts a conversation with the default title.
func (s *GormStore) CreateConversation() (domain.Conversation, error) {
	now := time.Now().UTC()
	model := ConversationModel{
		ID:        uuid.NewString(),
		Title:     DefaultConversationTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conversationFromModel(model), nil
}

// GetConversation retrieves a conversation by id.
func (s *GormStore) GetConversation(id string) (domain.Conversation, bool, error) {
	var model ConversationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, false, nil
		}
		return domain.Conversation{}, false, err
	}
	return conversationFromModel(model), true, nil
}

// ListRecentConversations returns conversations ordered by updated_at descending.
func (s *GormStore) ListRecentConversations(limit int) ([]domain.Conversation, error) {
	var models []ConversationModel
	if err := s.db.Order("updated_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Conversation, 0, len(models))
	for _, m := range models {
		res = append(res, conversationFromModel(m))
	}
	return res, nil
}

// ListConversationMessages returns all messages in creation order.
// Unknown conversation ids yield an empty slice.
func (s *GormStore) ListConversationMessages(conversationID string) ([]domain.Message, error) {
	var models []ConversationMessageModel
	if err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Message, 0, len(models))
	for _, m := range models {
		res = append(res, messageFromModel(m))
	}
	return res, nil
}

// AppendExchange inserts the user turn then the assistant turn and bumps
// updated_at, atomically. The user row carries the earlier timestamp so
// replay order is stable.
func (s *GormStore) AppendExchange(conversationID, userText, assistantText string) error {
	userAt := time.Now().UTC()
	assistantAt := userAt.Add(time.Millisecond)
	return s.db.Transaction(func(tx *gorm.DB) error {
		rows := []ConversationMessageModel{
			{
				ID:             uuid.NewString(),
				ConversationID: conversationID,
				Role:           "user",
				Content:        userText,
				CreatedAt:      userAt,
			},
			{
				ID:             uuid.NewString(),
				ConversationID: conversationID,
				Role:           "assistant",
				Content:        assistantText,
				CreatedAt:      assistantAt,
			},
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return tx.Model(&ConversationModel{}).
			Where("id = ?", conversationID).
			Update("updated_at", assistantAt).Error
	})
}

// RetitleIfFirstExchange sets the title from the first user message,
// exactly once. The guard checks that only the first exchange exists and
// the title is still the default.
func (s *GormStore) RetitleIfFirstExchange(conversationID, firstUserText string) error {
	title := excerptTitle(firstUserText)
	if title == "" {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ConversationMessageModel{}).
			Where("conversation_id = ?", conversationID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 2 {
			return nil
		}
		return tx.Model(&ConversationModel{}).
			Where("id = ? AND title = ?", conversationID, DefaultConversationTitle).
			Update("title", title).Error
	})
}

// DeleteConversation removes the conversation and its messages.
func (s *GormStore) DeleteConversation(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ConversationMessageModel{}, "conversation_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&ConversationModel{}, "id = ?", id).Error
	})
}

// GetOrCreateAssistantConfig returns the active config, materializing the
// default record on first read. The fixed primary key keeps the record
// unique even under concurrent first reads.
func (s *GormStore) GetOrCreateAssistantConfig() (domain.AssistantConfig, error) {
	def := defaultConfigModel()
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&def).Error; err != nil {
		return domain.AssistantConfig{}, fmt.Errorf("materialize config: %w", err)
	}
	var model AssistantConfigModel
	if err := s.db.First(&model, "id = ?", activeConfigID).Error; err != nil {
		return domain.AssistantConfig{}, fmt.Errorf("load config: %w", err)
	}
	return configFromModel(model), nil
}

// UpdateAssistantConfig overwrites the active config. Last write wins.
func (s *GormStore) UpdateAssistantConfig(cfg domain.AssistantConfig) (domain.AssistantConfig, error) {
	model := configToModel(cfg)
	model.ID = activeConfigID
	model.UpdatedAt = time.Now().UTC()
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"greeting_message", "tone", "personality",
			"response_delay_seconds", "auto_email_on_missed", "updated_at",
		}),
	}).Create(&model).Error; err != nil {
		return domain.AssistantConfig{}, fmt.Errorf("update config: %w", err)
	}
	return configFromModel(model), nil
}

// ListActiveProducts returns products flagged active.
func (s *GormStore) ListActiveProducts() ([]domain.Product, error) {
	var models []ProductModel
	if err := s.db.Where("active = ?", true).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Product, 0, len(models))
	for _, m := range models {
		res = append(res, productFromModel(m))
	}
	return res, nil
}

// ListServices returns all services.
func (s *GormStore) ListServices() ([]domain.Service, error) {
	var models []ServiceModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Service, 0, len(models))
	for _, m := range models {
		res = append(res, serviceFromModel(m))
	}
	return res, nil
}

// ListBranches returns all branches.
func (s *GormStore) ListBranches() ([]domain.Branch, error) {
	var models []BranchModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Branch, 0, len(models))
	for _, m := range models {
		res = append(res, branchFromModel(m))
	}
	return res, nil
}

// ListTeamMembers returns all team members.
func (s *GormStore) ListTeamMembers() ([]domain.TeamMember, error) {
	var models []TeamMemberModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.TeamMember, 0, len(models))
	for _, m := range models {
		res = append(res, teamMemberFromModel(m))
	}
	return res, nil
}

// ListRecentPublishedPosts returns the most recent published posts.
func (s *GormStore) ListRecentPublishedPosts(limit int) ([]domain.BlogPost, error) {
	var models []BlogPostModel
	if err := s.db.Where("published = ?", true).
		Order("published_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.BlogPost, 0, len(models))
	for _, m := range models {
		res = append(res, blogPostFromModel(m))
	}
	return res, nil
}

// excerptTitle trims the first user message into a conversation title of
// at most 50 runes, appending "…" when truncated.
func excerptTitle(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "…"
	}
	return text
}

func defaultConfigModel() AssistantConfigModel {
	return AssistantConfigModel{
		ID:              activeConfigID,
		GreetingMessage: "Hello! I'm Reven, your virtual assistant at LoveAmeriAfrikah Enterprises. How can I help you today?",
		Tone:            string(domain.ToneProfessional),
		Personality:     string(domain.PersonalityAssistant),
		UpdatedAt:       time.Now().UTC(),
	}
}

func conversationFromModel(m ConversationModel) domain.Conversation {
	return domain.Conversation{
		ID:        m.ID,
		Title:     m.Title,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func messageFromModel(m ConversationMessageModel) domain.Message {
	return domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func configFromModel(m AssistantConfigModel) domain.AssistantConfig {
	return domain.AssistantConfig{
		ID:                   m.ID,
		GreetingMessage:      m.GreetingMessage,
		Tone:                 domain.Tone(m.Tone),
		Personality:          domain.Personality(m.Personality),
		ResponseDelaySeconds: m.ResponseDelaySeconds,
		AutoEmailOnMissed:    m.AutoEmailOnMissed,
		UpdatedAt:            m.UpdatedAt,
	}
}

func configToModel(c domain.AssistantConfig) AssistantConfigModel {
	return AssistantConfigModel{
		ID:                   c.ID,
		GreetingMessage:      c.GreetingMessage,
		Tone:                 string(c.Tone),
		Personality:          string(c.Personality),
		ResponseDelaySeconds: c.ResponseDelaySeconds,
		AutoEmailOnMissed:    c.AutoEmailOnMissed,
		UpdatedAt:            c.UpdatedAt,
	}
}

func productFromModel(m ProductModel) domain.Product {
	return domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
	}
}

func serviceFromModel(m ServiceModel) domain.Service {
	return domain.Service{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		CreatedAt:   m.CreatedAt,
	}
}

func branchFromModel(m BranchModel) domain.Branch {
	return domain.Branch{
		ID:        m.ID,
		Name:      m.Name,
		City:      m.City,
		Country:   m.Country,
		Address:   m.Address,
		Phone:     m.Phone,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
	}
}

func teamMemberFromModel(m TeamMemberModel) domain.TeamMember {
	return domain.TeamMember{
		ID:        m.ID,
		Name:      m.Name,
		Role:      m.Role,
		Bio:       m.Bio,
		CreatedAt: m.CreatedAt,
	}
}

func blogPostFromModel(m BlogPostModel) domain.BlogPost {
	return domain.BlogPost{
		ID:          m.ID,
		Title:       m.Title,
		Excerpt:     m.Excerpt,
		Published:   m.Published,
		PublishedAt: m.PublishedAt,
	}
}
