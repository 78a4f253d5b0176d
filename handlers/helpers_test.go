// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"io"
	"net/http/httptest"
	"path/filepath"
	"payauth-server/crypto"
	"payauth-server/db"
	"payauth-server/models"
	"payauth-server/notifications"
	"payauth-server/otpstore"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestAPI wires a fresh sqlite database and a mock notification
// dispatcher for one test. Argon parameters are dialed down so hashing
// does not dominate the test run.
func setupTestAPI(t *testing.T) *AuthAPI {
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

	return NewAuthAPI(otpstore.NewStore(OtpValidity), notifier)
}

// call invokes a handler the way the router would and returns the
// recorded response, running returned errors through echo's error
// handler so status codes land in the recorder.
func call(t *testing.T, h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

// createUser inserts an account directly, bypassing the registration
// handler, for tests that start mid-flow.
func createUser(t *testing.T, email, password string, active bool) *models.User {
	t.Helper()

	hash, err := crypto.NewCrypto().HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  hash,
		IsActive:  active,
		Enabled:   true,
		Role:      models.DefaultRole,
	}
	if err := db.Conn.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func reloadUser(t *testing.T, id uint) *models.User {
	t.Helper()

	user := models.User{}
	if err := db.Conn.First(&user, id).Error; err != nil {
		t.Fatalf("Failed to reload user %d: %v", id, err)
	}
	return &user
}
