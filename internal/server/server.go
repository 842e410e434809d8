package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"revenai/internal/admintoken"
	"revenai/internal/app"
	"revenai/internal/ratelimit"
	"revenai/internal/util"
	"revenai/pkg/ai"
	"revenai/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                    *app.App
	AdminTokens            *admintoken.Verifier
	RedisAddr              string
	RedisPassword          string
	ChatRateLimitPerMinute int
	TrustedProxyCIDRs      []string
}

// Server exposes HTTP endpoints for the assistant service.
type Server struct {
	app         *app.App
	adminTokens *admintoken.Verifier
	chatLimiter *ratelimit.FixedWindowLimiter
	trusted     *util.TrustedProxies
	mux         *http.ServeMux
}

// New constructs the server with routes configured. The chat rate
// limiter is optional; when a limit is set, Redis is required.
func New(cfg Config) (*Server, error) {
	s := &Server{
		app:         cfg.App,
		adminTokens: cfg.AdminTokens,
		mux:         http.NewServeMux(),
	}
	if cfg.ChatRateLimitPerMinute > 0 {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "reven:ratelimit:chat",
			cfg.ChatRateLimitPerMinute, time.Minute,
		)
		if err != nil {
			return nil, err
		}
		s.chatLimiter = limiter
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, err
	}
	s.trusted = trusted
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(
		util.WithRequestLog("reven",
			util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/reven/chat", s.handleChat)
	s.mux.HandleFunc("/api/reven/config", s.handleConfig)
	s.mux.HandleFunc("/api/conversations", s.handleConversations)
	s.mux.HandleFunc("/api/conversations/", s.handleConversationByID)
	s.mux.HandleFunc("/api/catalog/products", s.handleProducts)
	s.mux.HandleFunc("/api/catalog/services", s.handleServices)
	s.mux.HandleFunc("/api/catalog/branches", s.handleBranches)
	s.mux.HandleFunc("/api/catalog/team", s.handleTeam)
	s.mux.HandleFunc("/api/catalog/insights", s.handleInsights)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Messages       []ai.ChatMessage `json:"messages"`
	ConversationID string           `json:"conversationId,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.chatLimiter != nil && !s.chatLimiter.Allow(util.ClientIP(r, s.trusted)) {
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment.")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, err := s.app.Chat(r.Context(), req.Messages, strings.TrimSpace(req.ConversationID))
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// writeChatError maps orchestrator errors onto the widget's contract:
// 429 retry-shortly, 402 temporarily-unavailable, 502 generic. Raw
// upstream detail never reaches the client.
func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyMessages):
		writeError(w, http.StatusBadRequest, "messages are required")
	case errors.Is(err, app.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment.")
	case errors.Is(err, app.ErrQuotaExhausted):
		writeError(w, http.StatusPaymentRequired, "Service temporarily unavailable. Please try again later.")
	default:
		writeError(w, http.StatusBadGateway, "Failed to generate a reply. Please try again.")
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := s.app.GetConfig()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load configuration")
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		subject, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}
		var cfg domain.AssistantConfig
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		slog.InfoContext(r.Context(), "assistant config update", "admin", subject)
		updated, err := s.app.UpdateConfig(cfg)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		conv, err := s.app.CreateConversation()
		if err != nil {
			// The widget falls back to stateless chat on 503.
			writeError(w, http.StatusServiceUnavailable, "failed to create conversation")
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		items, err := s.app.ListConversations(limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list conversations")
			return
		}
		writeJSON(w, http.StatusOK, items)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleConversationByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	if rest, ok := strings.CutSuffix(path, "/messages"); ok {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		msgs, err := s.app.ListConversationMessages(rest)
		if err != nil {
			writeConversationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
		return
	}
	if strings.Contains(path, "/") || path == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteConversation(path); err != nil {
		writeConversationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeConversationError(w http.ResponseWriter, err error) {
	if errors.Is(err, app.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "conversation store unavailable")
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	writeCatalog(w, r, s.app.ListActiveProducts)
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	writeCatalog(w, r, s.app.ListServices)
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	writeCatalog(w, r, s.app.ListBranches)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	writeCatalog(w, r, s.app.ListTeamMembers)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeCatalog(w, r, s.app.ListRecentInsights)
}

func writeCatalog[T any](w http.ResponseWriter, r *http.Request, list func() ([]T, error)) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := list()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load catalog data")
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

// requireAdmin enforces the bearer admin token on write endpoints. The
// service checks token authenticity only; role management lives in the
// back-office.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.adminTokens == nil {
		writeError(w, http.StatusInternalServerError, "admin tokens not configured")
		return "", false
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	subject, err := s.adminTokens.VerifySubject(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return subject, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
