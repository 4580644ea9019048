package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/expense-tracker/internal/httputil"
	"github.com/redmonkez12/expense-tracker/internal/ratelimit"
)

type handlerFixture struct {
	repo   *memoryUserRepo
	tokens *JWTService
	router http.Handler
}

func newHandlerFixture(t *testing.T, limit int) *handlerFixture {
	t.Helper()

	repo := newMemoryUserRepo()
	tokens, err := NewJWTService([]byte("test-secret"))
	require.NoError(t, err)

	service := NewService(repo, tokens, nil, time.Hour)
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{MaxRequests: limit, Window: time.Minute})
	h := NewHandler(service, limiter)

	r := chi.NewRouter()
	r.Post("/api/register", h.Register)
	r.Post("/api/login", h.Login)
	r.With(NewMiddleware(tokens).RequireAuth).Get("/api/me", h.Me)

	return &handlerFixture{repo: repo, tokens: tokens, router: r}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	return f.doWithHeader(t, method, path, body, token, nil)
}

func (f *handlerFixture) doWithHeader(t *testing.T, method, path string, body any, token string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5123"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var ada = RegisterRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "analytical"}

func TestHandler_RegisterThenDuplicate(t *testing.T) {
	f := newHandlerFixture(t, 100)

	rec := f.do(t, http.MethodPost, "/api/register", ada, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "User registered successfully", created.Message)
	assert.NotEmpty(t, created.UserID)
	assert.NotContains(t, rec.Body.String(), "analytical")

	rec = f.do(t, http.MethodPost, "/api/register", ada, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "User already exists", body.Message)
	assert.Equal(t, httputil.CodeEmailAlreadyExists, body.Code)
}

func TestHandler_RegisterValidation(t *testing.T) {
	f := newHandlerFixture(t, 100)

	rec := f.do(t, http.MethodPost, "/api/register", RegisterRequest{LastName: "L", Email: "a@b.c", Password: "p"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeFirstNameRequired, decodeError(t, rec).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	f.router.ServeHTTP(raw, req)
	require.Equal(t, http.StatusBadRequest, raw.Code)
	assert.Equal(t, httputil.CodeInvalidRequestBody, decodeError(t, raw).Code)
}

func TestHandler_Login(t *testing.T) {
	f := newHandlerFixture(t, 100)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/register", ada, "").Code)

	rec := f.do(t, http.MethodPost, "/api/login", LoginRequest{Email: ada.Email, Password: ada.Password}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "Ada", result.FirstName)
	assert.Equal(t, "Lovelace", result.LastName)
	assert.Equal(t, ada.Email, result.Email)

	wrongPassword := f.do(t, http.MethodPost, "/api/login", LoginRequest{Email: ada.Email, Password: "nope"}, "")
	unknownEmail := f.do(t, http.MethodPost, "/api/login", LoginRequest{Email: "who@example.com", Password: ada.Password}, "")

	require.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	require.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Equal(t, "Invalid credentials", decodeError(t, wrongPassword).Message)

	me := f.do(t, http.MethodGet, "/api/me", nil, result.Token)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"firstName":"Ada"`)
	assert.NotContains(t, me.Body.String(), "password")
}

func TestHandler_MeForDeletedUser(t *testing.T) {
	f := newHandlerFixture(t, 100)
	rec := f.do(t, http.MethodPost, "/api/register", ada, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	token, err := f.tokens.CreateToken(created.UserID, time.Hour)
	require.NoError(t, err)
	f.repo.delete(created.UserID)

	me := f.do(t, http.MethodGet, "/api/me", nil, token)
	require.Equal(t, http.StatusNotFound, me.Code)
	assert.Equal(t, httputil.CodeUserNotFound, decodeError(t, me).Code)
}

func TestHandler_StoreFailureIsServerError(t *testing.T) {
	f := newHandlerFixture(t, 100)
	f.repo.failErr = errStoreDown

	rec := f.do(t, http.MethodPost, "/api/login", LoginRequest{Email: ada.Email, Password: ada.Password}, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "Server error", body.Message)
	assert.Contains(t, body.Error, errStoreDown.Error())
}

func TestHandler_RateLimitsLogin(t *testing.T) {
	f := newHandlerFixture(t, 2)
	creds := LoginRequest{Email: "who@example.com", Password: "x"}

	for range 2 {
		require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/login", creds, "").Code)
	}

	rec := f.do(t, http.MethodPost, "/api/login", creds, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httputil.CodeTooManyRequests, decodeError(t, rec).Code)

	// budgets are per purpose
	assert.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/register", ada, "").Code)
}

func TestHandler_RateLimitIgnoresForwardedFor(t *testing.T) {
	f := newHandlerFixture(t, 2)
	creds := LoginRequest{Email: "who@example.com", Password: "x"}

	var codes []int
	for i := range 4 {
		header := http.Header{}
		header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+10))
		header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+10))
		codes = append(codes, f.doWithHeader(t, http.MethodPost, "/api/login", creds, "", header).Code)
	}

	assert.Equal(t, []int{
		http.StatusBadRequest,
		http.StatusBadRequest,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.2:4444"
	assert.Equal(t, "198.51.100.2", getClientIP(req))

	// forwarding headers are resolved by the router, never here
	req.Header.Set("X-Real-IP", "192.0.2.9")
	req.Header.Set("X-Forwarded-For", "192.0.2.1, 10.0.0.1")
	assert.Equal(t, "198.51.100.2", getClientIP(req))

	req.RemoteAddr = "[2001:db8::7]:4444"
	assert.Equal(t, "2001:db8::7", getClientIP(req))
}
