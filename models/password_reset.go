// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"
)

type PasswordReset struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"size:64;not null;uniqueIndex"`
	IsUsed    bool   `gorm:"not null;default:false"`
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint
	User      User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Valid reports whether the token can still authorize a password change.
func (p *PasswordReset) Valid(now time.Time) bool {
	return !p.IsUsed && now.Before(p.ExpiresAt)
}

func init() {
	AllModels = append(AllModels, &PasswordReset{})
}
