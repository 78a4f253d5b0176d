// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"fmt"
	"payauth-server/models"
	"strings"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_lowercase_user_emails",
			Migrate: func(tx *gorm.DB) error {
				var users []models.User
				if err := tx.Select("id", "email").Find(&users).Error; err != nil {
					return fmt.Errorf("failed to fetch users: %w", err)
				}

				for i := range users {
					lowered := strings.ToLower(strings.TrimSpace(users[i].Email))
					if lowered == users[i].Email {
						continue
					}
					if err := tx.Model(&users[i]).Update("email", lowered).Error; err != nil {
						return fmt.Errorf("failed to lowercase email for user %d: %w", users[i].ID, err)
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
		{
			ID: "002_purge_expired_reset_tokens",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.Where("expires_at < ?", time.Now()).
					Delete(&models.PasswordReset{}).Error; err != nil {
					return fmt.Errorf("failed to purge expired reset tokens: %w", err)
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
		{
			ID: "003_clear_stale_otp_columns",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.Model(&models.User{}).
					Where("otp_expires_at < ?", time.Now()).
					Updates(map[string]any{
						"otp_hash":       nil,
						"otp_expires_at": nil,
					}).Error; err != nil {
					return fmt.Errorf("failed to clear stale OTP columns: %w", err)
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
	}
}
