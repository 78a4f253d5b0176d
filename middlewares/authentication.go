// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"errors"
	"net/http"
	"payauth-server/commons"
	"payauth-server/db"
	"payauth-server/models"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// VerifyAuthMiddleware guards endpoints behind the bearer credential
// issued after OTP verification. The credential carries the account
// email as its subject; the user row is loaded fresh on every request.
func VerifyAuthMiddleware() func(echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := c.Logger()

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				logger.Error("Authorization header missing or invalid.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Bearer token is required",
				}
			}

			bearerToken, _ := strings.CutPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(bearerToken, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key")), nil
			})

			if err == nil && token.Valid {
				if claims, ok := token.Claims.(jwt.MapClaims); ok {
					if email, ok := claims["sub"].(string); ok && email != "" {
						user := models.User{}
						err = db.Conn.Where("email = ?", commons.NormalizeEmail(email)).First(&user).Error
						if err == nil && user.Enabled {
							c.Set("user", user)
							return next(c)
						}
					}
				}
			}

			logger.Error("Authentication failed.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired authentication token",
			}
		}
	}
}

func GetAuthenticatedUser(c echo.Context) (*models.User, error) {
	if user, ok := c.Get("user").(models.User); ok {
		return &user, nil
	}
	return nil, errors.New("no authenticated user found")
}
