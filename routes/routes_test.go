// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"payauth-server/db"
	"payauth-server/handlers"
	"payauth-server/models"
	"payauth-server/notifications"
	"payauth-server/otpstore"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T) (*echo.Echo, *handlers.AuthAPI) {
	t.Helper()
	t.Setenv("MOCK_EMAIL_NOTIFICATIONS", "true")
	t.Setenv("ARGON2_MEMORY", "16384")
	t.Setenv("ARGON2_TIME", "1")

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	db.Conn = conn

	notifier := notifications.NewDispatcher(16)
	t.Cleanup(notifier.Close)
	api := handlers.NewAuthAPI(otpstore.NewStore(handlers.OtpValidity), notifier)

	e := echo.New()
	RegisterRoutes(e, api)
	return e, api
}

func request(e *echo.Echo, method, target, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := request(e, http.MethodGet, "/v1/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from health endpoint, got %d", rec.Code)
	}
}

func TestFullLoginFlow(t *testing.T) {
	e, api := setupTestServer(t)

	rec := request(e, http.MethodPost, "/v1/auth/register", `{
		"email": "flow@example.com",
		"password": "Str0ngPassword",
		"first_name": "Ada",
		"last_name": "Lovelace"
	}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Registration failed: %d %s", rec.Code, rec.Body.String())
	}

	// Login before activation is rejected.
	login := `{"email": "flow@example.com", "password": "Str0ngPassword"}`
	rec = request(e, http.MethodPost, "/v1/auth/login", login, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 before activation, got %d", rec.Code)
	}

	rec = request(e, http.MethodGet, "/v1/auth/activate?email=flow@example.com", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Activation failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = request(e, http.MethodPost, "/v1/auth/login", login, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Login failed: %d %s", rec.Code, rec.Body.String())
	}

	code, ok := api.OTP.Peek("flow@example.com")
	if !ok {
		t.Fatal("Expected an outstanding OTP after login")
	}

	rec = request(e, http.MethodPost, "/v1/auth/verify-otp", `{
		"email": "flow@example.com",
		"otp": "`+code+`"
	}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("OTP verification failed: %d %s", rec.Code, rec.Body.String())
	}

	var verified struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &verified); err != nil {
		t.Fatalf("Failed to parse verification response: %v", err)
	}
	if verified.AccessToken == "" {
		t.Fatal("Expected an access token")
	}

	// The credential opens the protected profile endpoint.
	rec = request(e, http.MethodGet, "/v1/users/", "", verified.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("Profile fetch failed: %d %s", rec.Code, rec.Body.String())
	}

	var profile struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("Failed to parse profile response: %v", err)
	}
	if profile.Email != "flow@example.com" {
		t.Errorf("Expected profile email flow@example.com, got %s", profile.Email)
	}

	// The flow left an audit trail.
	rec = request(e, http.MethodGet, "/v1/event-logs", "", verified.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("Event log fetch failed: %d %s", rec.Code, rec.Body.String())
	}

	var events []struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("Failed to parse event log response: %v", err)
	}
	categories := map[string]bool{}
	for _, event := range events {
		categories[event.Category] = true
	}
	for _, want := range []string{"SIGNUP", "ACTIVATION", "LOGIN_OTP", "OTP_VERIFIED"} {
		if !categories[want] {
			t.Errorf("Expected a %s event in the audit trail", want)
		}
	}
}

func TestProtectedEndpointsRejectAnonymous(t *testing.T) {
	e, _ := setupTestServer(t)

	for _, target := range []string{"/v1/users/", "/v1/event-logs"} {
		rec := request(e, http.MethodGet, target, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for %s without credential, got %d", target, rec.Code)
		}

		rec = request(e, http.MethodGet, target, "", "not-a-token")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for %s with garbage credential, got %d", target, rec.Code)
		}
	}
}
