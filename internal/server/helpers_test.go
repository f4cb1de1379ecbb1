package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arena/internal/clock"
	"arena/internal/config"
	"arena/internal/database"
	"arena/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testSecret = "server-test-secret-with-enough-length"

var testStart = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           testSecret,
		Port:                "0",
		Env:                 "test",
		AllowedOrigins:      "*",
		DBDriver:            config.DBDriverSQLite,
		DebateStore:         config.DebateStoreMemory,
		LeaderboardCacheTTL: time.Minute,
		BannedWords:         "stupid,idiot,dumb",
	}
}

type testEnv struct {
	srv   *Server
	app   *fiber.App
	clock *clock.Manual
	redis *miniredis.Miniredis
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	db, err := database.OpenTestDB()
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clk := clock.NewManual(testStart)

	srv, err := NewServerWithDeps(cfg, db, rdb, WithClock(clk))
	require.NoError(t, err)
	srv.userService.WithHashCost(4)
	return &testEnv{srv: srv, app: srv.App(), clock: clk, redis: mr}
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gormDB, mock
}

// call issues a JSON request and decodes the response body into out when non-nil.
func (e *testEnv) call(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
		}
	}
	return resp.StatusCode
}

// signup registers a user and returns its token and id.
func (e *testEnv) signup(t *testing.T, name string) (token, userID string) {
	t.Helper()
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	status := e.call(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"name": name, "email": name + "@example.com", "password": "password1",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NewValidationError("bad"), http.StatusBadRequest},
		{models.NewUnauthorizedError("no"), http.StatusUnauthorized},
		{models.NewNotFoundError("Debate", "x"), http.StatusNotFound},
		{models.NewNotParticipantError("join first"), http.StatusForbidden},
		{models.NewForbiddenError("not yours"), http.StatusForbidden},
		{models.NewEditWindowExpiredError(), http.StatusForbidden},
		{models.NewSelfVoteError(), http.StatusForbidden},
		{models.NewDebateClosedError("x"), http.StatusConflict},
		{models.NewDebateOpenError("x"), http.StatusConflict},
		{models.NewDuplicateVoteError(), http.StatusConflict},
		{models.NewConflictError("taken"), http.StatusConflict},
		{models.NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), "%v", tt.err)
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("pq: password authentication failed"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, models.CodeInternal, body.Code)
	assert.NotContains(t, body.Error, "password")
	assert.Empty(t, body.Details)
}
