// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"
	"payauth-server/db"

	"github.com/labstack/echo/v4"
)

// HealthHandler godoc
// @Summary      Health check
// @Description  Reports service and database health.
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string "Service is healthy"
// @Failure      503 {object} map[string]string "Database unreachable"
// @Router       /v1/health [get]
func HealthHandler(c echo.Context) error {
	sqlDB, err := db.Conn.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "unreachable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "reachable",
	})
}
