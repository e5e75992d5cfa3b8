package friend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	friendHandler "github.com/pixhy/voizchat/internal/handler/friend"
	"github.com/pixhy/voizchat/internal/middleware"
	"github.com/pixhy/voizchat/internal/model/user"
	friendservice "github.com/pixhy/voizchat/internal/service/friend"
	"github.com/pixhy/voizchat/internal/storage/sqlite"
)

type fakeGate struct {
	accounts map[string]user.User
}

func (g *fakeGate) Authenticate(_ context.Context, token string) (user.User, error) {
	account, ok := g.accounts[token]
	if !ok {
		return user.User{}, errors.New("bad token")
	}
	return account, nil
}

type nopNotifier struct{}

func (nopNotifier) SendToUser(string, string, any) {}

func newFriendRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, userID := range []string{"alice", "bob"} {
		if _, err := store.CreateUser(ctx, user.User{
			UserID:       userID,
			Email:        userID + "@example.com",
			Username:     userID,
			PasswordHash: "hash",
		}, uuid.NewString()); err != nil {
			t.Fatalf("seed user %s: %v", userID, err)
		}
	}

	gate := &fakeGate{accounts: map[string]user.User{
		"alice-token": {UserID: "alice", Username: "alice"},
		"bob-token":   {UserID: "bob", Username: "bob"},
	}}

	r := chi.NewRouter()
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(gate))
		friendHandler.New(friendservice.NewService(store, nopNotifier{})).RegisterRoutes(protected)
	})
	return r
}

func do(t *testing.T, router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAddFriendRequiresAuth(t *testing.T) {
	router := newFriendRouter(t)

	if rec := do(t, router, http.MethodPost, "/user/add-friend/bob", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/user/add-friend/bob", "forged"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestAddFriendFlow(t *testing.T) {
	router := newFriendRouter(t)

	if rec := do(t, router, http.MethodPost, "/user/add-friend/bob", "alice-token"); rec.Code != http.StatusOK {
		t.Fatalf("add friend: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// A repeated request conflicts.
	if rec := do(t, router, http.MethodPost, "/user/add-friend/bob", "alice-token"); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}

	// Self-request is invalid.
	if rec := do(t, router, http.MethodPost, "/user/add-friend/alice", "alice-token"); rec.Code != http.StatusBadRequest {
		t.Fatalf("self request: expected 400, got %d", rec.Code)
	}

	// bob sees the request incoming, alice outgoing.
	rec := do(t, router, http.MethodGet, "/user/incoming-friend-requests", "bob-token")
	if rec.Code != http.StatusOK || !contains(rec.Body.String(), "alice") {
		t.Fatalf("incoming: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodGet, "/user/outgoing-friend-requests", "alice-token")
	if rec.Code != http.StatusOK || !contains(rec.Body.String(), "bob") {
		t.Fatalf("outgoing: %d %s", rec.Code, rec.Body.String())
	}

	// bob requests back, which accepts.
	if rec := do(t, router, http.MethodPost, "/user/add-friend/alice", "bob-token"); rec.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/user/get-friends", "alice-token")
	if rec.Code != http.StatusOK || !contains(rec.Body.String(), "bob") {
		t.Fatalf("friends: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRemoveFriend(t *testing.T) {
	router := newFriendRouter(t)

	if rec := do(t, router, http.MethodPost, "/user/add-friend/bob", "alice-token"); rec.Code != http.StatusOK {
		t.Fatalf("add friend: %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/user/remove-friend/bob", "alice-token"); rec.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/user/remove-friend/bob", "alice-token"); rec.Code != http.StatusNotFound {
		t.Fatalf("remove again: expected 404, got %d", rec.Code)
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
