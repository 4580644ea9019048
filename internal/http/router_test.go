package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/expense-tracker/internal/auth"
	"github.com/redmonkez12/expense-tracker/internal/config"
	"github.com/redmonkez12/expense-tracker/internal/database/dbtest"
	"github.com/redmonkez12/expense-tracker/internal/expense"
	apphttp "github.com/redmonkez12/expense-tracker/internal/http"
	"github.com/redmonkez12/expense-tracker/internal/logging"
	"github.com/redmonkez12/expense-tracker/internal/metrics"
	"github.com/redmonkez12/expense-tracker/internal/ratelimit"
	"github.com/redmonkez12/expense-tracker/internal/user"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type testAPI struct {
	server *httptest.Server
	clock  *testClock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "prod", TrustedOrigins: []string{"*"}},
	}
	logger := logging.New(logging.Config{Level: "error", Format: "json", Output: io.Discard})
	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	db := dbtest.NewSQLite(t)
	userRepo := user.NewRepository(db)

	tokens, err := auth.NewJWTService([]byte("router-test-secret"), auth.WithClock(clock.Now))
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	authService := auth.NewService(userRepo, tokens, collector, time.Hour)
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{MaxRequests: 1000, Window: time.Minute})
	expenseService := expense.NewService(expense.NewRepository(db), userRepo,
		expense.WithClock(clock.Now),
		expense.WithRecorder(collector),
	)

	router := apphttp.NewRouter(apphttp.Deps{
		Config:         cfg,
		Logger:         logger,
		AuthHandler:    auth.NewHandler(authService, limiter),
		AuthMiddleware: auth.NewMiddleware(tokens),
		ExpenseHandler: expense.NewHandler(expenseService),
		Metrics:        collector,
		Gatherer:       registry,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testAPI{server: server, clock: clock}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// signup registers and logs in, returning the access token
func (a *testAPI) signup(t *testing.T, first, last, email string) string {
	t.Helper()

	status, _ := a.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"firstName": first, "lastName": last, "email": email, "password": "secret-" + first,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := a.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": "secret-" + first,
	})
	require.Equal(t, http.StatusOK, status)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

type expenseJSON struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	PaidBy      string    `json:"paidBy"`
	UserID      string    `json:"userId"`
	PaidDate    time.Time `json:"paidDate"`
	FullName    string    `json:"fullName"`
}

func decodeExpenses(t *testing.T, body []byte) []expenseJSON {
	t.Helper()
	var out []expenseJSON
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestRegisterTwice(t *testing.T) {
	api := newTestAPI(t)
	payload := map[string]string{"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "password": "pw"}

	status, body := api.do(t, http.MethodPost, "/api/register", "", payload)
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(body), "User registered successfully")

	status, body = api.do(t, http.MethodPost, "/api/register", "", payload)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "User already exists")
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "Ada", "Lovelace", "ada@example.com")

	wrongStatus, wrongBody := api.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "ada@example.com", "password": "nope"})
	unknownStatus, unknownBody := api.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "who@example.com", "password": "nope"})

	assert.Equal(t, http.StatusBadRequest, wrongStatus)
	assert.Equal(t, wrongStatus, unknownStatus)
	assert.JSONEq(t, string(wrongBody), string(unknownBody))
}

func TestTokenLifetime(t *testing.T) {
	api := newTestAPI(t)
	issued := api.clock.now
	token := api.signup(t, "Ada", "Lovelace", "ada@example.com")

	api.clock.now = issued.Add(59 * time.Minute)
	status, _ := api.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusOK, status)

	api.clock.now = issued.Add(61 * time.Minute)
	status, body := api.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "Unauthorized")
}

func TestMissingVersusInvalidToken(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/expenses", "/api/expenses/all", "/api/expenses/summary", "/api/me"} {
		t.Run(path, func(t *testing.T) {
			status, body := api.do(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusForbidden, status)
			assert.Contains(t, string(body), "No token provided")

			status, body = api.do(t, http.MethodGet, path, "garbage", nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Contains(t, string(body), "Unauthorized")
		})
	}
}

func TestOwnershipAndSharedView(t *testing.T) {
	api := newTestAPI(t)
	adaToken := api.signup(t, "Ada", "Lovelace", "ada@example.com")
	bobToken := api.signup(t, "Bob", "Babbage", "bob@example.com")

	status, body := api.do(t, http.MethodPost, "/api/expenses", adaToken, map[string]any{"amount": 12.5, "description": "lunch"})
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(body), "Expense added successfully")

	status, body = api.do(t, http.MethodGet, "/api/expenses", adaToken, nil)
	require.Equal(t, http.StatusOK, status)
	mine := decodeExpenses(t, body)
	require.Len(t, mine, 1)
	assert.Equal(t, 12.5, mine[0].Amount)
	assert.Equal(t, "Ada", mine[0].PaidBy)

	status, body = api.do(t, http.MethodGet, "/api/expenses", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	for _, token := range []string{adaToken, bobToken} {
		status, body = api.do(t, http.MethodGet, "/api/expenses/all", token, nil)
		require.Equal(t, http.StatusOK, status)
		all := decodeExpenses(t, body)
		require.Len(t, all, 1)
		assert.Equal(t, mine[0].ID, all[0].ID)
		assert.Equal(t, 12.5, all[0].Amount)
		assert.Equal(t, "Ada Lovelace", all[0].FullName)
	}
}

func TestSharedViewIsNewestFirst(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "Ada", "Lovelace", "ada@example.com")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, day := range []int{1, 2, 3} {
		status, _ := api.do(t, http.MethodPost, "/api/expenses", token, map[string]any{
			"amount":      day,
			"description": "day",
			"paidDate":    base.AddDate(0, 0, day),
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := api.do(t, http.MethodGet, "/api/expenses/all", token, nil)
	require.Equal(t, http.StatusOK, status)

	all := decodeExpenses(t, body)
	require.Len(t, all, 3)
	assert.Equal(t, []float64{3, 2, 1}, []float64{all[0].Amount, all[1].Amount, all[2].Amount})
}

func TestSummary(t *testing.T) {
	api := newTestAPI(t)
	adaToken := api.signup(t, "Ada", "Lovelace", "ada@example.com")
	bobToken := api.signup(t, "Bob", "Babbage", "bob@example.com")

	for _, add := range []struct {
		token  string
		amount float64
	}{{adaToken, 5}, {bobToken, 30}, {adaToken, 7.5}} {
		status, _ := api.do(t, http.MethodPost, "/api/expenses", add.token, map[string]any{"amount": add.amount, "description": "x"})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := api.do(t, http.MethodGet, "/api/expenses/summary", adaToken, nil)
	require.Equal(t, http.StatusOK, status)

	var totals []struct {
		FullName string  `json:"fullName"`
		Total    float64 `json:"total"`
		Count    int     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &totals))
	require.Len(t, totals, 2)
	assert.Equal(t, "Bob Babbage", totals[0].FullName)
	assert.InDelta(t, 30, totals[0].Total, 1e-9)
	assert.Equal(t, "Ada Lovelace", totals[1].FullName)
	assert.InDelta(t, 12.5, totals[1].Total, 1e-9)
	assert.Equal(t, 2, totals[1].Count)
}

func TestAddExpenseValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "Ada", "Lovelace", "ada@example.com")

	status, body := api.do(t, http.MethodPost, "/api/expenses", token, map[string]any{"description": "no amount"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "AMOUNT_REQUIRED")

	status, body = api.do(t, http.MethodPost, "/api/expenses", token, map[string]any{"amount": 3})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "DESCRIPTION_REQUIRED")
}

func TestHealthMetricsAndHeaders(t *testing.T) {
	api := newTestAPI(t)

	resp, err := api.server.Client().Get(api.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	api.signup(t, "Ada", "Lovelace", "ada@example.com")

	status, body := api.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	text := string(body)
	assert.Contains(t, text, "expense_tracker_registrations_total 1")
	assert.Contains(t, text, `expense_tracker_logins_total{result="success"} 1`)
	assert.True(t, strings.Contains(text, `route="/api/register"`), "request metrics labelled by route")

	status, _ = api.do(t, http.MethodGet, "/swagger/index.html", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
