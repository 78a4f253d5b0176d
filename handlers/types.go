// SPDX-License-Identifier: GPL-3.0-only

package handlers

import "time"

// swagger:model RegisterRequest
type RegisterRequest struct {
	// User's email address
	// required: true
	Email string `json:"email" example:"user@example.com"`
	// User's password
	// required: true
	Password string `json:"password" example:"MySecretPassword@123"`
	// User's first name
	// required: true
	FirstName string `json:"first_name" example:"John"`
	// User's last name
	// required: true
	LastName string `json:"last_name" example:"Doe"`
}

// swagger:model UserSummary
type UserSummary struct {
	ID        uint      `json:"id" example:"1"`
	Email     string    `json:"email" example:"user@example.com"`
	FirstName string    `json:"first_name" example:"John"`
	LastName  string    `json:"last_name" example:"Doe"`
	IsActive  bool      `json:"is_active" example:"false"`
	Role      string    `json:"role" example:"USER"`
	CreatedAt time.Time `json:"created_at"`
}

// swagger:model RegisterResponse
type RegisterResponse struct {
	// Message indicating successful registration
	Message string `json:"message" example:"User registered successfully. Please check your email for activation link."`
	// Summary of the created account. Never carries the password hash or
	// the activation token.
	User UserSummary `json:"user"`
}

// swagger:model LoginRequest
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// User's password
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model LoginResponse
type LoginResponse struct {
	// Message indicating an OTP was issued. The code itself is only ever
	// delivered by email.
	Message string `json:"message" example:"OTP sent to your email"`
}

// swagger:model VerifyOtpRequest
type VerifyOtpRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// Six digit code from the OTP email
	Otp string `json:"otp" example:"042917"`
}

// swagger:model VerifyOtpResponse
type VerifyOtpResponse struct {
	// Bearer credential for subsequent authenticated requests
	AccessToken string `json:"access_token" example:"sample_access_token"`
	// Message indicating successful verification
	Message string `json:"message" example:"Login successful"`
}

// swagger:model ForgotPasswordRequest
type ForgotPasswordRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
}

// swagger:model VerifyResetTokenRequest
type VerifyResetTokenRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// Reset code from the password reset email
	Token string `json:"token" example:"K7QX41ZD"`
}

// swagger:model ResetPasswordRequest
type ResetPasswordRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// Reset code from the password reset email
	Token string `json:"token" example:"K7QX41ZD"`
	// New password
	NewPassword string `json:"new_password" example:"MyNewSecretPassword@123"`
	// Confirmation of the new password
	ConfirmPassword string `json:"confirm_password" example:"MyNewSecretPassword@123"`
}

// swagger:model GenericResponse
type GenericResponse struct {
	// Message indicating the result of the operation
	Message string `json:"message" example:"Operation successful"`
}

// swagger:model EventLogResponse
type EventLogResponse struct {
	EID         string    `json:"eid" example:"0c8db2a5-9c1e-4a94-9d8f-0f9a4f9a2b11"`
	Category    string    `json:"category" example:"LOGIN_OTP"`
	Status      string    `json:"status" example:"SUCCEEDED"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
