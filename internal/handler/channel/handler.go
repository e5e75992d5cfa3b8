package channel

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pixhy/voizchat/internal/middleware"
	chatservice "github.com/pixhy/voizchat/internal/service/chat"
	"github.com/pixhy/voizchat/pkg/utils"
)

// Handler serves message history and posting. All routes require auth.
type Handler struct {
	chatSvc *chatservice.Service
}

// New creates the channel handler.
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes registers the channel endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/channel/{channel_id}/messages", h.handleHistory)
	r.Post("/channel/{channel_id}/messages", h.handlePost)
	r.Get("/channel/{channel_id}/unread-count", h.handleUnreadCount)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	before, _ := strconv.ParseInt(r.URL.Query().Get("before"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.chatSvc.History(r.Context(), chi.URLParam(r, "channel_id"), account.UserID, before, limit)
	if err != nil {
		respondChatError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.chatSvc.PostMessage(r.Context(), chi.URLParam(r, "channel_id"), account.UserID, payload.Message)
	if err != nil {
		respondChatError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, msg)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	count, err := h.chatSvc.UnreadCount(r.Context(), chi.URLParam(r, "channel_id"), account.UserID)
	if err != nil {
		respondChatError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}

func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatservice.ErrChannelNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatservice.ErrNotAMember):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, chatservice.ErrEmptyMessage),
		errors.Is(err, chatservice.ErrMessageTooLong):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "message operation failed")
	}
}
