package user_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	userHandler "github.com/pixhy/voizchat/internal/handler/user"
	"github.com/pixhy/voizchat/internal/mail"
	userservice "github.com/pixhy/voizchat/internal/service/user"
	"github.com/pixhy/voizchat/internal/storage/sqlite"
)

type staticTokens struct{}

func (staticTokens) IssueToken(userID string) (string, error) {
	return "token-" + userID, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := userservice.NewService(store, staticTokens{}, mail.LogMailer{}, "http://localhost:5173")
	handler := userHandler.New(svc)

	r := chi.NewRouter()
	handler.RegisterPublicRoutes(r)
	return r
}

func TestHandleRegister(t *testing.T) {
	router := newTestRouter(t)

	body := `{"email":"alice@example.com","username":"alice","password":"s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "token-") {
		t.Fatalf("response lacks token: %s", rec.Body.String())
	}
}

func TestHandleRegisterInvalidBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRegisterMissingFields(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(`{"email":"a@b.c"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRegisterDuplicateEmail(t *testing.T) {
	router := newTestRouter(t)

	body := `{"email":"alice@example.com","username":"alice","password":"s3cret"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestHandleLogin(t *testing.T) {
	router := newTestRouter(t)

	register := httptest.NewRequest(http.MethodPost, "/users/register",
		strings.NewReader(`{"email":"alice@example.com","username":"alice","password":"s3cret"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, register)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", rec.Code)
	}

	login := httptest.NewRequest(http.MethodPost, "/users/login",
		strings.NewReader(`{"email":"alice@example.com","password":"s3cret"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, login)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	badLogin := httptest.NewRequest(http.MethodPost, "/users/login",
		strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, badLogin)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleVerifyUnknownCode(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/users/verify/bogus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
