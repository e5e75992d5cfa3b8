package friend

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pixhy/voizchat/internal/middleware"
	"github.com/pixhy/voizchat/internal/model/user"
	friendservice "github.com/pixhy/voizchat/internal/service/friend"
	"github.com/pixhy/voizchat/pkg/utils"
)

// Handler serves friend relationship endpoints. All routes require auth.
type Handler struct {
	friendSvc *friendservice.Service
}

// New creates the friend handler.
func New(friendSvc *friendservice.Service) *Handler {
	return &Handler{friendSvc: friendSvc}
}

// RegisterRoutes registers the friend endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/user/add-friend/{userid}", h.handleAddFriend)
	r.Post("/user/remove-friend/{userid}", h.handleRemoveFriend)
	r.Get("/user/get-friends", h.listHandler(h.friendSvc.Friends))
	r.Get("/user/incoming-friend-requests", h.listHandler(h.friendSvc.IncomingRequests))
	r.Get("/user/outgoing-friend-requests", h.listHandler(h.friendSvc.OutgoingRequests))
}

func (h *Handler) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	err := h.friendSvc.Request(r.Context(), account.UserID, chi.URLParam(r, "userid"))
	if err != nil {
		respondFriendError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	err := h.friendSvc.Remove(r.Context(), account.UserID, chi.URLParam(r, "userid"))
	if err != nil {
		respondFriendError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) listHandler(list func(context.Context, string) ([]user.Info, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.UserFrom(r.Context())
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		infos, err := list(r.Context(), account.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "listing failed")
			return
		}
		utils.RespondJSON(w, http.StatusOK, infos)
	}
}

func respondFriendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, friendservice.ErrInvalidTarget):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, friendservice.ErrDuplicateRequest),
		errors.Is(err, friendservice.ErrAlreadyFriends):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, friendservice.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "friend operation failed")
	}
}
