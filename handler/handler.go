package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"text2sql-chat/internal/domain"
	"text2sql-chat/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// maxBodyBytes bounds a browser request body.
const maxBodyBytes = 1 << 20

// ConversationController is the slice of usecase.Conversation the browser
// surface drives.
type ConversationController interface {
	Submit(ctx context.Context, text string) (domain.Message, error)
	ToggleFeedback(ctx context.Context, messageID string, rating domain.Rating) (domain.Message, error)
	Reset()
	Snapshot() ([]domain.Message, bool)
	Started() bool
	Examples() []string
	SubmitExample(ctx context.Context, index int) (domain.Message, error)
}

// NoticeDrainer hands over the notices raised since the last drain.
type NoticeDrainer interface {
	Drain() []domain.Notice
}

// Handler serves one conversation to the browser.
type Handler struct {
	conv    ConversationController
	notices NoticeDrainer
	logger  *slog.Logger
}

type submitRequest struct {
	Message string `json:"message"`
}

type feedbackRequest struct {
	Rating domain.Rating `json:"rating"`
}

type conversationResponse struct {
	Messages []domain.Message `json:"messages"`
	Pending  bool             `json:"pending"`
	Started  bool             `json:"started"`
	// Examples are only offered before the first question.
	Examples []string        `json:"examples,omitempty"`
	Notices  []domain.Notice `json:"notices"`
}

type examplesResponse struct {
	Examples []string `json:"examples"`
}

type submitResponse struct {
	Answer domain.Message `json:"answer"`
	conversationResponse
}

type feedbackResponse struct {
	Message domain.Message  `json:"message"`
	Notices []domain.Notice `json:"notices"`
}

type errorResponse struct {
	Error   string          `json:"error"`
	Reason  string          `json:"reason,omitempty"`
	Updated *domain.Message `json:"updated,omitempty"`
	Notices []domain.Notice `json:"notices"`
}

// NewHandler creates a Handler. A nil logger falls back to slog.Default().
func NewHandler(conv ConversationController, notices NoticeDrainer, logger *slog.Logger) (*Handler, error) {
	if conv == nil {
		return nil, errors.New("handler: conversation must not be nil")
	}
	if notices == nil {
		return nil, errors.New("handler: notice drainer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{conv: conv, notices: notices, logger: logger}, nil
}

// Routes returns the browser-facing router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(correlationID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/conversation", func(r chi.Router) {
		r.Get("/", h.getConversation)
		r.Delete("/", h.resetConversation)
		r.Get("/examples", h.listExamples)
		r.Post("/examples/{index}", h.submitExample)
		r.Post("/messages", h.submit)
		r.Post("/messages/{id}/feedback", h.toggleFeedback)
	})
	return r
}

func (h *Handler) getConversation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.conversation())
}

// conversation snapshots the thread and drains pending notices.
func (h *Handler) conversation() conversationResponse {
	msgs, pending := h.conv.Snapshot()
	out := conversationResponse{
		Messages: msgs,
		Pending:  pending,
		Started:  h.conv.Started(),
		Notices:  h.notices.Drain(),
	}
	if !out.Started {
		out.Examples = h.conv.Examples()
	}
	return out
}

func (h *Handler) listExamples(w http.ResponseWriter, _ *http.Request) {
	examples := h.conv.Examples()
	if examples == nil {
		examples = []string{}
	}
	writeJSON(w, http.StatusOK, examplesResponse{Examples: examples})
}

func (h *Handler) submitExample(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, r, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_example_index", Err: err}, nil)
		return
	}

	answer, err := h.conv.SubmitExample(r.Context(), index)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Answer: answer, conversationResponse: h.conversation()})
}

func (h *Handler) resetConversation(w http.ResponseWriter, _ *http.Request) {
	h.conv.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, nil)
		return
	}

	answer, err := h.conv.Submit(r.Context(), req.Message)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Answer: answer, conversationResponse: h.conversation()})
}

func (h *Handler) toggleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, nil)
		return
	}

	msg, err := h.conv.ToggleFeedback(r.Context(), chi.URLParam(r, "id"), req.Rating)
	if err != nil {
		var updated *domain.Message
		if msg.ID != "" {
			updated = &msg
		}
		h.writeError(w, r, err, updated)
		return
	}

	writeJSON(w, http.StatusOK, feedbackResponse{
		Message: msg,
		Notices: h.notices.Drain(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, updated *domain.Message) {
	code, reason, status := classify(err)
	level := slog.LevelWarn
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) && ucErr.IsRejection() {
		level = slog.LevelInfo
	}
	h.logger.Log(r.Context(), level, "request failed",
		"correlationId", w.Header().Get(correlationHeader),
		"path", r.URL.Path,
		"code", string(code),
		"err", err,
	)
	writeJSON(w, status, errorResponse{
		Error:   string(code),
		Reason:  reason,
		Updated: updated,
		Notices: h.notices.Drain(),
	})
}

func classify(err error) (usecase.ErrorCode, string, int) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return usecase.ErrorInternal, "", http.StatusInternalServerError
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return ucErr.Code, ucErr.Reason, http.StatusBadRequest
	case usecase.ErrorBusy, usecase.ErrorReset:
		return ucErr.Code, ucErr.Reason, http.StatusConflict
	case usecase.ErrorNotFound:
		return ucErr.Code, ucErr.Reason, http.StatusNotFound
	case usecase.ErrorTransport:
		return ucErr.Code, ucErr.Reason, http.StatusBadGateway
	default:
		return usecase.ErrorInternal, ucErr.Reason, http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into v. Failures come back as
// INVALID_INPUT.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "body_too_large", Err: err}
	}
	return &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_json", Err: err}
}

// correlationID echoes the caller's correlation id or assigns a new one.
func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(correlationHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
