package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/musemate/backend/internal/application/services"
	"github.com/musemate/backend/internal/domain/entities"
)

// ChatService defines the chat session operations used by the handler.
type ChatService interface {
	MenuOptions() []entities.ChatOption
	StartSession(ctx context.Context) (*entities.ChatSession, error)
	GetSession(ctx context.Context, id string) (*entities.ChatSession, error)
	SelectOption(ctx context.Context, id string, optionID entities.Flow, revision int64) (*entities.ChatSession, error)
	SendMessage(ctx context.Context, id, text string, revision int64) (*entities.ChatSession, error)
	Reset(ctx context.Context, id string, revision int64) (*entities.ChatSession, error)
	UnresolvedQueries(ctx context.Context, limit int) ([]*entities.UnresolvedQuery, error)
}

// ChatHandler handles chat session requests
type ChatHandler struct {
	chat ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// sessionResponse adds the menu buttons whenever the client should show them
type sessionResponse struct {
	*entities.ChatSession
	Options []entities.ChatOption `json:"options,omitempty"`
}

type chatRequest struct {
	OptionID entities.Flow `json:"option_id"`
	Text     string        `json:"text"`
	Revision *int64        `json:"revision"`
}

func (h *ChatHandler) present(s *entities.ChatSession) sessionResponse {
	resp := sessionResponse{ChatSession: s}
	if s.State.ShowButtons {
		resp.Options = h.chat.MenuOptions()
	}
	return resp
}

// Menu handles GET /api/chat/menu
func (h *ChatHandler) Menu(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"options": h.chat.MenuOptions(),
	})
}

// StartSession handles POST /api/chat/sessions
func (h *ChatHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.StartSession(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, h.present(session))
}

// GetSession handles GET /api/chat/sessions/{id}
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.present(session))
}

// SelectOption handles POST /api/chat/sessions/{id}/options
func (h *ChatHandler) SelectOption(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	if payload.OptionID == "" {
		respondWithError(w, http.StatusBadRequest, "option_id is required")
		return
	}

	session, err := h.chat.SelectOption(r.Context(), r.PathValue("id"), payload.OptionID, *payload.Revision)
	h.respond(w, r, session, err)
}

// SendMessage handles POST /api/chat/sessions/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}

	session, err := h.chat.SendMessage(r.Context(), r.PathValue("id"), payload.Text, *payload.Revision)
	h.respond(w, r, session, err)
}

// Reset handles POST /api/chat/sessions/{id}/reset
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}

	session, err := h.chat.Reset(r.Context(), r.PathValue("id"), *payload.Revision)
	h.respond(w, r, session, err)
}

// UnresolvedQueries handles GET /api/analytics/unresolved-queries
func (h *ChatHandler) UnresolvedQueries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	queries, err := h.chat.UnresolvedQueries(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": queries,
		"count":   len(queries),
	})
}

func (h *ChatHandler) decode(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var payload chatRequest
	if !decodeJSON(w, r, &payload) {
		return payload, false
	}
	if payload.Revision == nil {
		respondWithError(w, http.StatusBadRequest, "revision is required")
		return payload, false
	}
	return payload, true
}

// respond renders a stale write as 409 with the state the client should show
func (h *ChatHandler) respond(w http.ResponseWriter, r *http.Request, session *entities.ChatSession, err error) {
	var stale *services.StaleSessionError
	switch {
	case errors.As(err, &stale):
		respondWithJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   stale.Error(),
			"session": h.present(stale.Current),
		})
	case err != nil:
		respondWithAppError(w, r, err)
	default:
		respondWithJSON(w, http.StatusOK, h.present(session))
	}
}
