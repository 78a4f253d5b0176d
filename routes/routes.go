// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"payauth-server/commons"
	"payauth-server/handlers"
	"payauth-server/middlewares"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, api *handlers.AuthAPI) {
	commons.Logger.Debug("Registering v1 routes")
	api_v1 := e.Group("/v1")
	api_v1.GET("/health", handlers.HealthHandler)
	api_v1.POST("/auth/register", api.RegisterHandler)
	api_v1.GET("/auth/activate", api.ActivateHandler)
	api_v1.POST("/auth/login", api.LoginHandler)
	api_v1.POST("/auth/verify-otp", api.VerifyOtpHandler)
	api_v1.POST("/auth/password-reset/request", api.ForgotPasswordHandler)
	api_v1.POST("/auth/password-reset/resend", api.ForgotPasswordHandler)
	api_v1.POST("/auth/password-reset/verify", api.VerifyResetTokenHandler)
	api_v1.POST("/auth/password-reset/reset", api.ResetPasswordHandler)
	api_v1.GET("/users/", api.GetUserHandler, middlewares.VerifyAuthMiddleware())
	api_v1.GET("/event-logs", api.GetEventLogsHandler, middlewares.VerifyAuthMiddleware())
	commons.Logger.Info("v1 routes registered successfully")
}
