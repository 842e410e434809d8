package store

import "time"

// GORM models used for persistence.
type ConversationModel struct {
	ID        string    `gorm:"primaryKey"`
	Title     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

type ConversationMessageModel struct {
	ID             string    `gorm:"primaryKey"`
	ConversationID string    `gorm:"not null;index"`
	Role           string    `gorm:"not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

type AssistantConfigModel struct {
	ID                   string `gorm:"primaryKey"`
	GreetingMessage      string `gorm:"type:text"`
	Tone                 string
	Personality          string
	ResponseDelaySeconds int
	AutoEmailOnMissed    bool
	UpdatedAt            time.Time
}

type ProductModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Price       float64
	Stock       int
	Active      bool      `gorm:"index"`
	CreatedAt   time.Time `gorm:"not null"`
}

type ServiceModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Price       float64
	CreatedAt   time.Time `gorm:"not null"`
}

type BranchModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	City      string
	Country   string
	Address   string
	Phone     string
	Email     string
	CreatedAt time.Time `gorm:"not null"`
}

type TeamMemberModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Role      string
	Bio       string `gorm:"type:text"`
	CreatedAt time.Time
}

type BlogPostModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Excerpt     string `gorm:"type:text"`
	Published   bool   `gorm:"index"`
	PublishedAt time.Time `gorm:"index"`
}

func (ConversationModel) TableName() string        { return "conversations" }
func (ConversationMessageModel) TableName() string { return "conversation_messages" }
func (AssistantConfigModel) TableName() string     { return "reven_config" }
