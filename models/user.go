// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

var AllModels []any

const DefaultRole = "USER"

type User struct {
	ID                  uint   `gorm:"primaryKey"`
	FirstName           string `gorm:"size:100;not null"`
	LastName            string `gorm:"size:100;not null"`
	Email               string `gorm:"size:255;not null;uniqueIndex"`
	Password            string `gorm:"not null"`
	IsActive            bool   `gorm:"not null;default:false"`
	Enabled             bool   `gorm:"not null;default:true"`
	MfaEnabled          bool   `gorm:"not null;default:false"`
	Role                string `gorm:"size:32;not null;default:USER"`
	ActivationToken     *string
	ActivationExpiresAt *time.Time
	OtpHash             *string
	OtpExpiresAt        *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

// OtpValid reports whether the persisted OTP copy is still inside its
// validity window at the given instant.
func (u *User) OtpValid(now time.Time) bool {
	return u.OtpHash != nil && u.OtpExpiresAt != nil && now.Before(*u.OtpExpiresAt)
}

func init() {
	AllModels = append(AllModels, &User{})
}
