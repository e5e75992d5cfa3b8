package openedchat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pixhy/voizchat/internal/middleware"
	chatservice "github.com/pixhy/voizchat/internal/service/chat"
	userservice "github.com/pixhy/voizchat/internal/service/user"
	"github.com/pixhy/voizchat/pkg/utils"
)

// Handler serves the conversation-list endpoints. All routes require auth.
type Handler struct {
	chatSvc *chatservice.Service
	userSvc *userservice.Service
}

// New creates the opened-chat handler.
func New(chatSvc *chatservice.Service, userSvc *userservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc, userSvc: userSvc}
}

// RegisterRoutes registers the opened-chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/opened_chat/all", h.handleAll)
	r.Post("/opened_chat/channel/{channel_id}", h.handleOpenChannel)
	r.Post("/opened_chat/user/{user_id}", h.handleOpenWithUser)
	r.Delete("/opened_chat/{channel_id}", h.handleClose)
}

func (h *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	chats, err := h.chatSvc.OpenedChats(r.Context(), account.UserID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "listing chats failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, chats)
}

func (h *Handler) handleOpenChannel(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	chat, err := h.chatSvc.OpenChatChannel(r.Context(), account.UserID, chi.URLParam(r, "channel_id"))
	if err != nil {
		respondChatError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, chat)
}

func (h *Handler) handleOpenWithUser(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	otherID := chi.URLParam(r, "user_id")
	if otherID == account.UserID {
		utils.RespondError(w, http.StatusBadRequest, "cannot open a chat with yourself")
		return
	}
	if _, err := h.userSvc.Find(r.Context(), otherID); err != nil {
		if errors.Is(err, userservice.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "user not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "opening chat failed")
		return
	}

	chat, err := h.chatSvc.OpenChatWithUser(r.Context(), account.UserID, otherID)
	if err != nil {
		respondChatError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, chat)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	err := h.chatSvc.CloseChat(r.Context(), account.UserID, chi.URLParam(r, "channel_id"))
	if err != nil {
		respondChatError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatservice.ErrChannelNotFound),
		errors.Is(err, chatservice.ErrChatNotOpen):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatservice.ErrNotAMember):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "chat operation failed")
	}
}
