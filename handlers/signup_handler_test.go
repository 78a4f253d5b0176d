// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"encoding/json"
	"net/http"
	"payauth-server/db"
	"payauth-server/models"
	"testing"
)

func TestRegisterCreatesInactiveUser(t *testing.T) {
	api := setupTestAPI(t)

	rec := call(t, api.RegisterHandler, http.MethodPost, "/v1/auth/register", `{
		"email": "new@example.com",
		"password": "Str0ngPassword",
		"first_name": "Ada",
		"last_name": "Lovelace"
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp RegisterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.User.Email != "new@example.com" {
		t.Errorf("Expected email new@example.com, got %s", resp.User.Email)
	}
	if resp.User.IsActive {
		t.Error("New account should not be active before activation")
	}

	user := models.User{}
	if err := db.Conn.Where("email = ?", "new@example.com").First(&user).Error; err != nil {
		t.Fatalf("Registered user not found in database: %v", err)
	}
	if user.ActivationToken == nil || *user.ActivationToken == "" {
		t.Error("Expected an activation token to be recorded")
	}
	if user.ActivationExpiresAt == nil {
		t.Error("Expected an activation expiry to be recorded")
	}
	if user.Password == "Str0ngPassword" {
		t.Error("Password must not be stored in plaintext")
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	api := setupTestAPI(t)

	rec := call(t, api.RegisterHandler, http.MethodPost, "/v1/auth/register", `{
		"email": "  Mixed.Case@Example.COM ",
		"password": "Str0ngPassword",
		"first_name": "Ada",
		"last_name": "Lovelace"
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	user := models.User{}
	if err := db.Conn.Where("email = ?", "mixed.case@example.com").First(&user).Error; err != nil {
		t.Fatalf("Expected lowercased trimmed email in database: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	api := setupTestAPI(t)
	createUser(t, "taken@example.com", "Str0ngPassword", true)

	rec := call(t, api.RegisterHandler, http.MethodPost, "/v1/auth/register", `{
		"email": "Taken@Example.com",
		"password": "Str0ngPassword",
		"first_name": "Ada",
		"last_name": "Lovelace"
	}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	api := setupTestAPI(t)

	payloads := []string{
		`{"password": "Str0ngPassword", "first_name": "Ada", "last_name": "Lovelace"}`,
		`{"email": "a@example.com", "first_name": "Ada", "last_name": "Lovelace"}`,
		`{"email": "a@example.com", "password": "Str0ngPassword", "last_name": "Lovelace"}`,
		`{"email": "a@example.com", "password": "Str0ngPassword", "first_name": "Ada"}`,
	}

	for _, payload := range payloads {
		rec := call(t, api.RegisterHandler, http.MethodPost, "/v1/auth/register", payload)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for payload %s, got %d", payload, rec.Code)
		}
	}

	var count int64
	db.Conn.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("No user should be created on validation failure, found %d", count)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	api := setupTestAPI(t)

	weak := []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"}
	for _, password := range weak {
		rec := call(t, api.RegisterHandler, http.MethodPost, "/v1/auth/register", `{
			"email": "weak@example.com",
			"password": "`+password+`",
			"first_name": "Ada",
			"last_name": "Lovelace"
		}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for weak password %q, got %d", password, rec.Code)
		}
	}
}

func TestRegisterAutoActivate(t *testing.T) {
	api := setupTestAPI(t)
	t.Setenv("AUTO_ACTIVATE_ACCOUNTS", "true")

	rec := call(t, api.RegisterHandler, http.MethodPost, "/v1/auth/register", `{
		"email": "auto@example.com",
		"password": "Str0ngPassword",
		"first_name": "Ada",
		"last_name": "Lovelace"
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	user := models.User{}
	if err := db.Conn.Where("email = ?", "auto@example.com").First(&user).Error; err != nil {
		t.Fatalf("Registered user not found: %v", err)
	}
	if !user.IsActive {
		t.Error("Auto-activated account should be active")
	}
	if user.ActivationToken != nil {
		t.Error("Auto-activated account should have no activation token")
	}
}

func TestActivateUnknownEmail(t *testing.T) {
	api := setupTestAPI(t)

	rec := call(t, api.ActivateHandler, http.MethodGet, "/v1/auth/activate?email=nobody@example.com", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown email, got %d", rec.Code)
	}
}

func TestActivateClearsTokenAndIsIdempotent(t *testing.T) {
	api := setupTestAPI(t)

	call(t, api.RegisterHandler, http.MethodPost, "/v1/auth/register", `{
		"email": "pending@example.com",
		"password": "Str0ngPassword",
		"first_name": "Ada",
		"last_name": "Lovelace"
	}`)

	rec := call(t, api.ActivateHandler, http.MethodGet, "/v1/auth/activate?email=pending@example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on activation, got %d: %s", rec.Code, rec.Body.String())
	}

	user := models.User{}
	if err := db.Conn.Where("email = ?", "pending@example.com").First(&user).Error; err != nil {
		t.Fatalf("User not found after activation: %v", err)
	}
	if !user.IsActive {
		t.Error("Account should be active after activation")
	}
	if user.ActivationToken != nil || user.ActivationExpiresAt != nil {
		t.Error("Activation token and expiry should be cleared")
	}

	// Hitting the link again stays a success.
	rec = call(t, api.ActivateHandler, http.MethodGet, "/v1/auth/activate?email=pending@example.com", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 on repeat activation, got %d", rec.Code)
	}
}
