// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"
	"payauth-server/db"
	"payauth-server/middlewares"
	"payauth-server/models"

	"github.com/labstack/echo/v4"
)

// GetUserHandler godoc
// @Summary      Get account profile
// @Description  Returns the authenticated user's account summary.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Success      200 {object} UserSummary      "Account profile"
// @Failure      401 {object} echo.HTTPError   "Unauthorized"
// @Router       /v1/users/ [get]
func (api *AuthAPI) GetUserHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	return c.JSON(http.StatusOK, userSummary(user))
}

// GetEventLogsHandler godoc
// @Summary      List auth events
// @Description  Returns the authenticated user's auth audit trail, newest first.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Success      200 {array}  EventLogResponse "Auth events"
// @Failure      401 {object} echo.HTTPError   "Unauthorized"
// @Failure      500 {object} echo.HTTPError   "Internal server error"
// @Router       /v1/event-logs [get]
func (api *AuthAPI) GetEventLogsHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}

	var events []models.EventLog
	if err := db.Conn.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&events).Error; err != nil {
		logger.Errorf("Failed to list event logs: %v", err)
		return echo.ErrInternalServerError
	}

	response := make([]EventLogResponse, 0, len(events))
	for _, event := range events {
		response = append(response, EventLogResponse{
			EID:         event.EID.String(),
			Category:    string(event.Category),
			Status:      string(event.Status),
			Description: event.Description,
			CreatedAt:   event.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, response)
}
