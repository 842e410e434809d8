package domain

import "time"

// Tone controls the assistant's speaking style.
type Tone string

const (
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneFormal       Tone = "formal"
)

// Personality controls the role the assistant presents itself as.
type Personality string

const (
	PersonalityAssistant  Personality = "assistant"
	PersonalityAdvisor    Personality = "advisor"
	PersonalityConsultant Personality = "consultant"
	PersonalityGuide      Personality = "guide"
)

// AssistantConfig is the single editable configuration record for the
// assistant. Exactly one record exists; a default is materialized on
// first read when the table is empty.
type AssistantConfig struct {
	ID                   string      `json:"id"`
	GreetingMessage      string      `json:"greetingMessage"`
	Tone                 Tone        `json:"tone"`
	Personality          Personality `json:"personality"`
	ResponseDelaySeconds int         `json:"responseDelaySeconds"`
	AutoEmailOnMissed    bool        `json:"autoEmailOnMissed"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

// Conversation groups an ordered message history under one id.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is a single conversation turn. Messages are append-only,
// ordered by CreatedAt, and never mutated after insert.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Product is a marketplace item shown to customers.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Service is a company offering with a listed price.
type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Branch is a physical company location with contact details.
type Branch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeamMember is a person listed on the About page.
type TeamMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlogPost is a published insight article.
type BlogPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Published   bool      `json:"published"`
	PublishedAt time.Time `json:"publishedAt"`
}

// GroundingSnapshot is a point-in-time aggregation of the business data
// the assistant answers from. It is rebuilt on every chat request and
// never persisted.
type GroundingSnapshot struct {
	Products []Product
	Services []Service
	Branches []Branch
	Team     []TeamMember
	Posts    []BlogPost
}
