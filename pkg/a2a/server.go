package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/haikumesh/haikumesh/pkg/logger"
)

// Server exposes a single Agent over the A2A JSON-RPC transport: card
// discovery at the well-known path, the authenticated extended card, and
// message/send at the root.
type Server struct {
	agent      Agent
	card       AgentCard
	extended   *AgentCard
	addr       string
	httpServer *http.Server
	logger     *slog.Logger
	middleware []func(http.Handler) http.Handler
}

// ServerConfig configures an A2A server.
type ServerConfig struct {
	Host string
	Port int

	// BaseURL is the public URL advertised on the card. Defaults to
	// http://{host}:{port}.
	BaseURL string

	// ExtendedCard, when set, is served behind the authenticated extended
	// card endpoint and the public card advertises its availability.
	ExtendedCard *AgentCard

	// Middleware is applied to every route, outermost first.
	Middleware []func(http.Handler) http.Handler
}

// NewServer creates an A2A server for agent.
func NewServer(agent Agent, cfg *ServerConfig) (*Server, error) {
	if agent == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if cfg == nil {
		cfg = &ServerConfig{}
	}

	card := agent.Card()
	if card == nil {
		return nil, fmt.Errorf("agent returned nil card")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	}

	public := *card
	public.URL = baseURL
	public.SupportsAuthenticatedExtendedCard = cfg.ExtendedCard != nil

	var extended *AgentCard
	if cfg.ExtendedCard != nil {
		ext := *cfg.ExtendedCard
		ext.URL = baseURL
		ext.SupportsAuthenticatedExtendedCard = true
		extended = &ext
	}

	return &Server{
		agent:      agent,
		card:       public,
		extended:   extended,
		addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		logger:     logger.GetLogger(),
		middleware: cfg.Middleware,
	}, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	for _, mw := range s.middleware {
		r.Use(mw)
	}

	r.Get(AgentCardPath, s.handleAgentCard)
	r.Get(ExtendedCardPath, s.handleExtendedCard)
	r.Post("/", s.handleJSONRPC)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("a2a server listening",
		"agent", s.card.Name, "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleAgentCard serves the public card.
// GET /.well-known/agent-card.json
func (s *Server) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.card)
}

// handleExtendedCard serves the extended card to bearers of a token. Any
// non-empty token passes: the mesh runs on a placeholder trust model.
// GET /agent/authenticatedExtendedCard
func (s *Server) handleExtendedCard(w http.ResponseWriter, r *http.Request) {
	if s.extended == nil {
		http.Error(w, "extended card not available", http.StatusNotFound)
		return
	}

	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if auth == "" || token == auth || token == "" {
		s.logger.Warn("extended card request rejected", "remote", r.RemoteAddr)
		http.Error(w, "bearer token required", http.StatusUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, s.extended)
}

// handleJSONRPC dispatches JSON-RPC requests.
// POST /
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, "", CodeParseError, "failed to parse request body")
		return
	}

	if req.Method != MethodMessageSend {
		s.respondError(w, req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
		return
	}

	input := firstText(req.Params.Message.Parts)
	if input == "" {
		s.respondError(w, req.ID, CodeInvalidParams, "message has no text part")
		return
	}

	output, err := s.agent.Execute(r.Context(), input)
	if err != nil {
		s.logger.Error("agent execution failed", "agent", s.card.Name, "error", err)
		s.respondError(w, req.ID, CodeInternalError, err.Error())
		return
	}

	task := &Task{
		ID:        uuid.New().String(),
		ContextID: uuid.New().String(),
		Kind:      KindTask,
		Status: TaskStatus{
			State:     TaskStateCompleted,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Artifacts: []Artifact{
			{
				ArtifactID: uuid.New().String(),
				Name:       "response",
				Parts:      []Part{TextPart(output)},
			},
		},
	}

	respondJSON(w, http.StatusOK, SendMessageResponse{
		JSONRPC: JSONRPCVersion,
		ID:      req.ID,
		Result:  &SendResult{Kind: KindTask, Task: task},
	})
}

func (s *Server) respondError(w http.ResponseWriter, id string, code int, message string) {
	respondJSON(w, http.StatusOK, SendMessageResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// firstText returns the first text part, or empty.
func firstText(parts []Part) string {
	for _, p := range parts {
		if p.Type == PartTypeText {
			return p.Text
		}
	}
	return ""
}
