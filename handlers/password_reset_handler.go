// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"payauth-server/commons"
	"payauth-server/crypto"
	"payauth-server/db"
	"payauth-server/models"
	"payauth-server/notifications"
	"payauth-server/passwordcheck"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const resetAcknowledgement = "If the email you entered is linked to an account, you'll " +
	"receive a password reset code in your mail. Be sure to check your inbox and spam folder."

// ResetTokenTTL reads the reset token validity window, 15 minutes unless
// overridden.
func ResetTokenTTL() time.Duration {
	minutes := 15
	if v := commons.GetEnv("RESET_TOKEN_TTL_MINUTES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			minutes = i
		}
	}
	return time.Duration(minutes) * time.Minute
}

// ForgotPasswordHandler godoc
// @Summary      Request a password reset
// @Description  Emails a single-use reset code. The response never reveals whether the email exists.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        forgotPasswordRequest  body  ForgotPasswordRequest  true  "Forgot password request"
// @Success      200 {object} GenericResponse "Generic acknowledgement"
// @Failure      400 {object} echo.HTTPError  "Bad request"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/auth/password-reset/request [post]
func (api *AuthAPI) ForgotPasswordHandler(c echo.Context) error {
	logger := c.Logger()

	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid forgot password request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}

	email := commons.NormalizeEmail(req.Email)
	user := models.User{}

	if err := db.Conn.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same acknowledgement as the success path, no token created.
			logger.Error("User not found for password reset.")
			return c.JSON(http.StatusOK, GenericResponse{Message: resetAcknowledgement})
		}

		logger.Errorf("Failed to find user: %v", err)
		return echo.ErrInternalServerError
	}

	token, err := crypto.GenerateResetCode()
	if err != nil {
		logger.Errorf("Failed to generate password reset token: %v", err)
		return echo.ErrInternalServerError
	}

	// One active token per user: a new request voids every earlier one.
	passwordReset := models.PasswordReset{
		Token:     token,
		ExpiresAt: time.Now().Add(ResetTokenTTL()),
		UserID:    user.ID,
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordReset{}).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to delete previous reset tokens: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Create(&passwordReset).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to create password reset token: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	recordEvent(user.ID, models.Reset, models.Succeeded, "reset token issued")

	name := user.FirstName + " " + user.LastName
	api.notify(notifications.NotificationData{
		To:       user.Email,
		ToName:   &name,
		Subject:  "Reset Your Password",
		Template: "password-reset",
		Variables: map[string]any{
			"name":               name,
			"reset_code":         token,
			"expiration_minutes": fmt.Sprintf("%d", int(ResetTokenTTL().Minutes())),
		},
	})

	logger.Infof("Password reset token issued")
	return c.JSON(http.StatusOK, GenericResponse{Message: resetAcknowledgement})
}

// VerifyResetTokenHandler godoc
// @Summary      Verify a password reset code
// @Description  Checks that the code is unused, unexpired, and belongs to the supplied email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        verifyResetTokenRequest  body  VerifyResetTokenRequest  true  "Reset code verification payload"
// @Success      200 {object} GenericResponse "Code is valid"
// @Failure      400 {object} echo.HTTPError  "Bad request or invalid code"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/auth/password-reset/verify [post]
func (api *AuthAPI) VerifyResetTokenHandler(c echo.Context) error {
	logger := c.Logger()

	var req VerifyResetTokenRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid reset token verification payload:", err)
		return echo.ErrBadRequest
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}

	if req.Token == "" {
		logger.Error("Token is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "token field is required",
		}
	}

	if _, err := findValidResetToken(c, req.Email, req.Token); err != nil {
		return err
	}

	logger.Infof("Password reset token verified")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Reset code validated successfully",
	})
}

// ResetPasswordHandler godoc
// @Summary      Reset password
// @Description  Sets a new password using a valid reset code.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        resetPasswordRequest  body  ResetPasswordRequest  true  "Password reset payload"
// @Success      200 {object} GenericResponse "Password reset successfully"
// @Failure      400 {object} echo.HTTPError  "Bad request, mismatched passwords, or invalid code"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/auth/password-reset/reset [post]
func (api *AuthAPI) ResetPasswordHandler(c echo.Context) error {
	logger := c.Logger()

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid password reset payload:", err)
		return echo.ErrBadRequest
	}

	// Validation order is deliberate and user-facing: field presence,
	// then password policy and match, and only then the token. A
	// mismatched confirmation must not touch the token.
	if req.Email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}

	if req.Token == "" {
		logger.Error("Token is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "token field is required",
		}
	}

	if req.NewPassword == "" {
		logger.Error("New password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "new_password field is required",
		}
	}

	if req.ConfirmPassword == "" {
		logger.Error("Confirm password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "confirm_password field is required",
		}
	}

	if err := passwordcheck.ValidatePassword(c.Request().Context(), req.NewPassword); err != nil {
		logger.Error("New password validation failed: ", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid new password: " + err.Error(),
		}
	}

	if req.NewPassword != req.ConfirmPassword {
		logger.Error("Passwords do not match.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Passwords do not match",
		}
	}

	passwordReset, err := findValidResetToken(c, req.Email, req.Token)
	if err != nil {
		return err
	}

	newCrypto := crypto.NewCrypto()
	hashedNewPassword, err := newCrypto.HashPassword(req.NewPassword)
	if err != nil {
		logger.Errorf("Failed to hash new password: %v", err)
		return echo.ErrInternalServerError
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	if err := tx.Model(&passwordReset.User).Update("password", hashedNewPassword).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to update user password: %v", err)
		return echo.ErrInternalServerError
	}

	// Conditional mark-used: a racing reset with the same token loses.
	result := tx.Model(&models.PasswordReset{}).
		Where("id = ? AND is_used = ?", passwordReset.ID, false).
		Update("is_used", true)
	if result.Error != nil {
		tx.Rollback()
		logger.Errorf("Failed to mark reset token as used: %v", result.Error)
		return echo.ErrInternalServerError
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		logger.Error("Reset token already consumed.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid or expired reset code",
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	recordEvent(passwordReset.UserID, models.Reset, models.Succeeded, "password reset completed")

	name := passwordReset.User.FirstName + " " + passwordReset.User.LastName
	api.notify(notifications.NotificationData{
		To:       passwordReset.User.Email,
		ToName:   &name,
		Subject:  "Your Password Was Changed",
		Template: "password-changed",
		Variables: map[string]any{
			"name": name,
		},
	})

	logger.Infof("Password reset successful for user ID: %d", passwordReset.UserID)
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Password has been reset successfully. You can now log in with your new password.",
	})
}

// findValidResetToken loads a reset token and applies the shared
// validation: it must exist, be unused, be unexpired, and its owning
// user's email must match the supplied one. Every failure surfaces the
// same generic message.
func findValidResetToken(c echo.Context, email, token string) (*models.PasswordReset, error) {
	logger := c.Logger()

	invalidToken := &echo.HTTPError{
		Code:    http.StatusBadRequest,
		Message: "Invalid or expired reset code",
	}

	email = commons.NormalizeEmail(email)
	token = strings.ToUpper(strings.TrimSpace(token))

	passwordReset := models.PasswordReset{}
	if err := db.Conn.Preload("User").
		Where("token = ? AND is_used = ?", token, false).
		First(&passwordReset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Invalid or already used reset token.")
			return nil, invalidToken
		}
		logger.Errorf("Failed to find reset token: %v", err)
		return nil, echo.ErrInternalServerError
	}

	if time.Now().After(passwordReset.ExpiresAt) {
		logger.Error("Reset token has expired.")
		return nil, invalidToken
	}

	// A syntactically valid token presented with another account's email
	// is rejected: cross-account reuse.
	if commons.NormalizeEmail(passwordReset.User.Email) != email {
		logger.Error("Reset token does not belong to the supplied email.")
		return nil, invalidToken
	}

	return &passwordReset, nil
}
