package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-123456"

func protectedApp(tokens *Tokens) *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthRequired(tokens), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	return app
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := NewTokens(testSecret)

	token, err := tokens.Issue("user-123", "Ada")
	require.NoError(t, err)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	_, err = NewTokens("another-secret-entirely-0123456789").Verify(token)
	assert.Error(t, err)

	_, err = NewTokens("").Issue("user-123", "Ada")
	assert.Error(t, err)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens(testSecret)
	tokens.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	token, err := tokens.Issue("user-123", "Ada")
	require.NoError(t, err)

	_, err = NewTokens(testSecret).Verify(token)
	assert.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	tokens := NewTokens(testSecret)
	valid, err := tokens.Issue("user-123", "Ada")
	require.NoError(t, err)

	wrongAudience := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123", "iss": tokenIssuer, "aud": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	wrongAudienceToken, err := wrongAudience.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized},
		{name: "wrong audience", header: "Bearer " + wrongAudienceToken, wantStatus: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: "user-123"},
	}

	app := protectedApp(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}
