package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pixhy/voizchat/internal/middleware"
	usermodel "github.com/pixhy/voizchat/internal/model/user"
	userservice "github.com/pixhy/voizchat/internal/service/user"
	"github.com/pixhy/voizchat/pkg/utils"
)

// Handler serves account endpoints.
type Handler struct {
	userSvc *userservice.Service
}

// New creates the account handler.
func New(userSvc *userservice.Service) *Handler {
	return &Handler{userSvc: userSvc}
}

// RegisterPublicRoutes registers the endpoints that work without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/users/register", h.handleRegister)
	r.Post("/users/login", h.handleLogin)
	r.Post("/users/verify/{code}", h.handleVerify)
}

// RegisterProtectedRoutes registers the endpoints behind the auth gate.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/users/", h.handleList)
	r.Get("/users/me", h.handleMe)
	r.Get("/users/find-by-id/{userid}", h.handleFind)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload usermodel.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, token, err := h.userSvc.Register(r.Context(), payload)
	switch {
	case errors.Is(err, userservice.ErrInvalidRequest):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, userservice.ErrEmailTaken):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload usermodel.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, token, err := h.userSvc.Login(r.Context(), payload)
	switch {
	case errors.Is(err, userservice.ErrInvalidCredentials):
		utils.RespondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	err := h.userSvc.Verify(r.Context(), code)
	switch {
	case errors.Is(err, userservice.ErrInvalidCode):
		utils.RespondError(w, http.StatusNotFound, "invalid verification code")
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	infos, err := h.userSvc.List(r.Context(), offset, limit)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "listing users failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, infos)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	utils.RespondJSON(w, http.StatusOK, account.PrivateInfo())
}

func (h *Handler) handleFind(w http.ResponseWriter, r *http.Request) {
	info, err := h.userSvc.Find(r.Context(), chi.URLParam(r, "userid"))
	switch {
	case errors.Is(err, userservice.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "user not found")
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, info)
}
