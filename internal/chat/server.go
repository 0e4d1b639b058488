package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/8adimka/chat-gateway/internal/chat/model"
	"github.com/8adimka/chat-gateway/internal/httpx"
	"github.com/8adimka/chat-gateway/internal/metrics"
	"github.com/8adimka/chat-gateway/internal/mongox"
	"github.com/8adimka/chat-gateway/internal/rasa"
)

// Engine forwards one user message to the external bot engine and returns
// its reply fragments in order.
type Engine interface {
	Send(ctx context.Context, sender, message, requestID string) ([]model.BotReply, error)
}

// Recorder persists conversation exchanges. The contract is best-effort: the
// chat handler logs a failed write and moves on, the client response never
// depends on it.
type Recorder interface {
	SaveExchange(ctx context.Context, rec *model.ConversationRecord) error
}

// ConnState reports database reachability for the health endpoint.
type ConnState interface {
	IsConnected() bool
}

type Server struct {
	engine   Engine
	recorder Recorder
	db       ConnState
	rasaURL  string
	metrics  *metrics.Metrics
}

func NewServer(engine Engine, recorder Recorder, db ConnState, rasaURL string, m *metrics.Metrics) *Server {
	return &Server{
		engine:   engine,
		recorder: recorder,
		db:       db,
		rasaURL:  rasaURL,
		metrics:  m,
	}
}

type chatRequest struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

type chatResponse struct {
	Responses []model.BotReply `json:"responses"`
	SessionID string           `json:"sessionId"`
}

type healthResponse struct {
	Status string `json:"status"`
	Rasa   string `json:"rasa"`
	Mongo  bool   `json:"mongo"`
}

// ChatHandler handles POST /chat: validate input, derive the session id,
// call the bot engine, persist the exchange and map the result to the
// client-facing shape.
func (s *Server) ChatHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := httpx.GetRequestID(ctx)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.ErrorContext(ctx, "Malformed chat request body",
			"error", err, "request_id", requestID)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Lỗi server nội bộ"})
		return
	}

	if req.Message == "" {
		slog.WarnContext(ctx, "Chat request without message field", "request_id", requestID)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Thiếu trường 'message'"})
		return
	}

	// The bot engine owns any conversational state keyed by this string.
	sessionID := req.Sender
	if sessionID == "" {
		sessionID = requestID
	}

	start := time.Now()
	replies, err := s.engine.Send(ctx, sessionID, req.Message, requestID)
	if err != nil {
		s.metrics.RecordRasaRequest(ctx, "error", time.Since(start))
		s.writeChatError(ctx, w, err, requestID)
		return
	}
	s.metrics.RecordRasaRequest(ctx, "ok", time.Since(start))

	s.saveHistory(r, sessionID, req.Message, replies)

	if replies == nil {
		replies = []model.BotReply{}
	}
	writeJSON(w, http.StatusOK, chatResponse{Responses: replies, SessionID: sessionID})
}

// writeChatError maps a bot engine failure to the client. The upstream status
// and body pass through when present; anything without a status, and explicit
// upstream 500s, collapse to a sanitized 500 with no detail.
func (s *Server) writeChatError(ctx context.Context, w http.ResponseWriter, err error, requestID string) {
	slog.ErrorContext(ctx, "Chat exchange failed",
		"error", err, "request_id", requestID)

	status := http.StatusInternalServerError
	details := json.RawMessage("null")

	var se *rasa.StatusError
	if errors.As(err, &se) && se.Code != http.StatusInternalServerError {
		status = se.Code
		details = se.Body
	}

	writeJSON(w, status, map[string]any{
		"error":   "Lỗi hệ thống",
		"details": details,
	})
}

// saveHistory writes the conversation record. Best-effort: failures are
// counted and logged, never surfaced and never retried.
func (s *Server) saveHistory(r *http.Request, sessionID, message string, replies []model.BotReply) {
	ctx := r.Context()

	rec := &model.ConversationRecord{
		SessionID:    sessionID,
		UserMessage:  message,
		BotResponses: replies,
		Timestamp:    time.Now(),
		Metadata: model.Metadata{
			IP:        httpx.GetClientIP(r),
			UserAgent: r.UserAgent(),
		},
	}

	if err := s.recorder.SaveExchange(ctx, rec); err != nil {
		reason := "write_error"
		if errors.Is(err, mongox.ErrNotConnected) {
			reason = "not_connected"
		}
		s.metrics.RecordPersistenceFailure(ctx, reason)
		slog.ErrorContext(ctx, "Failed to save chat history",
			"error", err,
			"session_id", sessionID,
			"request_id", httpx.GetRequestID(ctx))
	}
}

// HealthHandler handles GET /health. The endpoint itself has no failure
// path: it always answers 200 and reports database reachability in the body.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "healthy",
		Rasa:   s.rasaURL,
		Mongo:  s.db.IsConnected(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
