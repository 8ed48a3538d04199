package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims(role string) Claims {
	return Claims{
		UserID: uuid.New(),
		Email:  "admin@example.org",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(LoggingMiddleware())
	app.Get("/me", Protected(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c).String())
	})
	app.Post("/admin", Protected(testSecret), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestProtected(t *testing.T) {
	app := newTestApp()
	expired := validClaims("")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Token abc", fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", validClaims("")), fiber.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, expired), fiber.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, testSecret, validClaims("")), fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	app := newTestApp()
	tests := []struct {
		role   string
		status int
	}{
		{"", fiber.StatusForbidden},
		{"volunteer", fiber.StatusForbidden},
		{RoleAdmin, fiber.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims(tt.role)))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != tt.status {
			t.Fatalf("role %q: expected status %d, got %d", tt.role, tt.status, resp.StatusCode)
		}
	}
}

func TestParseTokenRejectsMissingUser(t *testing.T) {
	claims := validClaims(RoleAdmin)
	claims.UserID = uuid.Nil
	if _, err := ParseToken(testSecret, signToken(t, testSecret, claims)); err == nil {
		t.Fatal("expected token without user id to be rejected")
	}
}
