// SPDX-License-Identifier: GPL-3.0-only

// Package cleanup removes expired password reset rows on a fixed
// schedule. The sweep is housekeeping only: expired tokens already fail
// validation, so running it alongside live requests is safe.
package cleanup

import (
	"payauth-server/commons"
	"payauth-server/db"
	"payauth-server/models"
	"strconv"
	"time"
)

func sweepInterval() time.Duration {
	minutes := 60
	if v := commons.GetEnv("RESET_SWEEP_INTERVAL_MINUTES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			minutes = i
		}
	}
	return time.Duration(minutes) * time.Minute
}

// SweepExpiredResetTokens deletes reset rows past their expiry,
// regardless of whether they were used. Returns the number removed.
func SweepExpiredResetTokens(now time.Time) (int64, error) {
	result := db.Conn.Where("expires_at < ?", now).Delete(&models.PasswordReset{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// StartResetTokenSweeper runs the sweep on a ticker until stop is
// closed.
func StartResetTokenSweeper(stop <-chan struct{}) {
	interval := sweepInterval()
	commons.Logger.Infof("Reset token sweeper started, interval: %s", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := SweepExpiredResetTokens(time.Now())
				if err != nil {
					commons.Logger.Errorf("Reset token sweep failed: %v", err)
					continue
				}
				if removed > 0 {
					commons.Logger.Infof("Reset token sweep removed %d expired rows", removed)
				}
			case <-stop:
				commons.Logger.Info("Reset token sweeper stopped")
				return
			}
		}
	}()
}
