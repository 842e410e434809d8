package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"revenai/internal/grounding"
	"revenai/internal/notify"
	"revenai/internal/prompt"
	"revenai/pkg/ai"
	"revenai/pkg/domain"
	"revenai/pkg/store"
)

const (
	// DefaultConversationListLimit bounds the recent-conversations view.
	DefaultConversationListLimit = 10
	// maxResponseDelay caps the configured artificial reply delay so a
	// misconfigured value cannot hold requests open indefinitely.
	maxResponseDelay = 10 * time.Second
)

// Config wires the orchestrator's dependencies.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Completer   ai.ChatCompleter
	Notifier    notify.Notifier
}

// App orchestrates one chat request: load config, assemble grounding,
// compose the system instruction, call the model, persist the exchange.
type App struct {
	store     store.Store
	assembler *grounding.Assembler
	completer ai.ChatCompleter
	notifier  notify.Notifier
	sleep     func(ctx context.Context, d time.Duration)
}

// New constructs the application core. The model completer is required;
// a missing credential must be rejected before this point.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.Completer == nil {
		return nil, fmt.Errorf("chat completer required")
	}
	return &App{
		store:     dataStore,
		assembler: grounding.NewAssembler(dataStore),
		completer: cfg.Completer,
		notifier:  cfg.Notifier,
		sleep:     sleepContext,
	}, nil
}

// Chat answers the caller's message list. When conversationID is present
// the exchange is persisted best-effort after a successful reply; guest
// calls (empty id) never touch the conversation store.
func (a *App) Chat(ctx context.Context, messages []ai.ChatMessage, conversationID string) (string, error) {
	userText, err := lastUserText(messages)
	if err != nil {
		return "", err
	}

	cfg := a.loadConfig(ctx)
	snapshot := a.assembler.Snapshot(ctx)
	systemPrompt := prompt.Compose(cfg, snapshot)

	slog.InfoContext(ctx, "sending chat request to ai gateway", "messages", len(messages))
	reply, err := a.completer.Complete(ctx, systemPrompt, messages)
	if err != nil {
		a.notifyMissed(ctx, cfg, conversationID, userText, err)
		return "", mapGatewayError(err)
	}

	if delay := responseDelay(cfg); delay > 0 {
		a.sleep(ctx, delay)
	}

	if conversationID != "" {
		if err := a.store.AppendExchange(conversationID, userText, reply); err != nil {
			slog.ErrorContext(ctx, "failed to persist exchange",
				"conversation_id", conversationID, "err", err)
		} else if err := a.store.RetitleIfFirstExchange(conversationID, userText); err != nil {
			slog.ErrorContext(ctx, "failed to retitle conversation",
				"conversation_id", conversationID, "err", err)
		}
	}
	return reply, nil
}

// CreateConversation opens a fresh conversation with the default title.
func (a *App) CreateConversation() (domain.Conversation, error) {
	conv, err := a.store.CreateConversation()
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns the most recently updated conversations.
func (a *App) ListConversations(limit int) ([]domain.Conversation, error) {
	if limit <= 0 || limit > DefaultConversationListLimit {
		limit = DefaultConversationListLimit
	}
	items, err := a.store.ListRecentConversations(limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return items, nil
}

// ListConversationMessages returns a conversation's history in creation
// order. A deleted or unknown id yields an empty history, not an error.
func (a *App) ListConversationMessages(conversationID string) ([]domain.Message, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, ErrConversationNotFound
	}
	items, err := a.store.ListConversationMessages(conversationID)
	if err != nil {
		return nil, fmt.Errorf("list conversation messages: %w", err)
	}
	return items, nil
}

// DeleteConversation removes a conversation and all its messages.
func (a *App) DeleteConversation(conversationID string) error {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return ErrConversationNotFound
	}
	if err := a.store.DeleteConversation(conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// GetConfig returns the assistant configuration, materializing the
// default record when none exists.
func (a *App) GetConfig() (domain.AssistantConfig, error) {
	cfg, err := a.store.GetOrCreateAssistantConfig()
	if err != nil {
		return domain.AssistantConfig{}, fmt.Errorf("load assistant config: %w", err)
	}
	return cfg, nil
}

// UpdateConfig validates and overwrites the assistant configuration.
func (a *App) UpdateConfig(cfg domain.AssistantConfig) (domain.AssistantConfig, error) {
	if err := validateConfig(cfg); err != nil {
		return domain.AssistantConfig{}, err
	}
	updated, err := a.store.UpdateAssistantConfig(cfg)
	if err != nil {
		return domain.AssistantConfig{}, fmt.Errorf("update assistant config: %w", err)
	}
	return updated, nil
}

// ListActiveProducts returns the marketplace items currently on sale.
func (a *App) ListActiveProducts() ([]domain.Product, error) {
	return a.store.ListActiveProducts()
}

// ListServices returns all company services.
func (a *App) ListServices() ([]domain.Service, error) {
	return a.store.ListServices()
}

// ListBranches returns all branch locations.
func (a *App) ListBranches() ([]domain.Branch, error) {
	return a.store.ListBranches()
}

// ListTeamMembers returns the published team roster.
func (a *App) ListTeamMembers() ([]domain.TeamMember, error) {
	return a.store.ListTeamMembers()
}

// ListRecentInsights returns the most recent published blog posts, using
// the same bound as the grounding snapshot.
func (a *App) ListRecentInsights() ([]domain.BlogPost, error) {
	return a.store.ListRecentPublishedPosts(grounding.RecentPostLimit)
}

// loadConfig reads the assistant config, degrading to the zero value on
// store failure. Prompt composition applies persona fallbacks, so an
// unreachable config store must not abort the request.
func (a *App) loadConfig(ctx context.Context) domain.AssistantConfig {
	cfg, err := a.store.GetOrCreateAssistantConfig()
	if err != nil {
		slog.WarnContext(ctx, "assistant config unavailable, using fallbacks", "err", err)
		return domain.AssistantConfig{}
	}
	return cfg
}

func (a *App) notifyMissed(ctx context.Context, cfg domain.AssistantConfig, conversationID, question string, cause error) {
	if a.notifier == nil || !cfg.AutoEmailOnMissed {
		return
	}
	event := notify.MissedQuestion{
		ConversationID: conversationID,
		Question:       question,
		Reason:         cause.Error(),
		OccurredAt:     time.Now().UTC(),
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.notifier.NotifyMissed(publishCtx, event); err != nil {
		slog.ErrorContext(ctx, "failed to publish missed-question event", "err", err)
	}
}

func lastUserText(messages []ai.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyMessages
	}
	last := messages[len(messages)-1]
	if last.Role != "user" || strings.TrimSpace(last.Content) == "" {
		return "", ErrEmptyMessages
	}
	return last.Content, nil
}

func mapGatewayError(err error) error {
	var gatewayErr *ai.GatewayError
	if errors.As(err, &gatewayErr) {
		switch gatewayErr.Status {
		case 429:
			return ErrRateLimited
		case 402:
			return ErrQuotaExhausted
		}
	}
	return fmt.Errorf("generate reply: %w", err)
}

func responseDelay(cfg domain.AssistantConfig) time.Duration {
	if cfg.ResponseDelaySeconds <= 0 {
		return 0
	}
	delay := time.Duration(cfg.ResponseDelaySeconds) * time.Second
	if delay > maxResponseDelay {
		delay = maxResponseDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func validateConfig(cfg domain.AssistantConfig) error {
	switch cfg.Tone {
	case "", domain.ToneFriendly, domain.ToneProfessional, domain.ToneCasual, domain.ToneFormal:
	default:
		return fmt.Errorf("invalid tone %q", cfg.Tone)
	}
	switch cfg.Personality {
	case "", domain.PersonalityAssistant, domain.PersonalityAdvisor,
		domain.PersonalityConsultant, domain.PersonalityGuide:
	default:
		return fmt.Errorf("invalid personality %q", cfg.Personality)
	}
	if cfg.ResponseDelaySeconds < 0 {
		return fmt.Errorf("responseDelaySeconds must not be negative")
	}
	return nil
}
