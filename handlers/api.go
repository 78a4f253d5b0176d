// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"payauth-server/commons"
	"payauth-server/db"
	"payauth-server/models"
	"payauth-server/notifications"
	"payauth-server/otpstore"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OtpValidity is the window both OTP copies live for, checked again at
// verification time.
const OtpValidity = 10 * time.Minute

// ActivationValidity is how long an activation token is nominally good
// for. The expiry is recorded at registration but activation does not
// currently re-check it (see ActivateHandler).
const ActivationValidity = 24 * time.Hour

// AuthAPI owns the per-process collaborators the auth flows need: the
// ephemeral OTP store and the notification dispatcher. It is constructed
// once at startup and handed to the router; tests build their own.
type AuthAPI struct {
	OTP      *otpstore.Store
	Notifier *notifications.Dispatcher
}

func NewAuthAPI(otp *otpstore.Store, notifier *notifications.Dispatcher) *AuthAPI {
	return &AuthAPI{OTP: otp, Notifier: notifier}
}

func (api *AuthAPI) notify(data notifications.NotificationData) {
	api.Notifier.Enqueue(notifications.Email, notifications.DefaultProvider(), data)
}

// issueAccessToken signs the bearer credential for a verified email. It
// is a pure function of the email and the clock; nothing is persisted.
func issueAccessToken(email string) (string, error) {
	expiryHours := 24
	if v := commons.GetEnv("JWT_EXPIRY_HOURS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			expiryHours = i
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": commons.GetEnv("BASE_URL", "https://api.payauth.dev"),
		"aud": commons.GetEnv("BASE_URL", "https://api.payauth.dev"),
		"sub": email,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Duration(expiryHours) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key")))
}

func userSummary(user *models.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// recordEvent appends an audit row. Audit failures are logged and
// swallowed; they never affect the flow outcome.
func recordEvent(userID uint, category models.EventCategory, status models.EventStatus, description string) {
	event := models.EventLog{
		Category:    category,
		Status:      status,
		Description: &description,
		UserID:      userID,
	}
	if err := db.Conn.Create(&event).Error; err != nil {
		commons.Logger.Errorf("Failed to record %s event: %v", category, err)
	}
}
