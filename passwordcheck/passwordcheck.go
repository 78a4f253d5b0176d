package passwordcheck

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"payauth-server/commons"
	"strings"
	"unicode"
)

// ValidatePassword enforces the account password policy. The pwned
// check is best-effort: an unreachable HIBP API never blocks signup.
func ValidatePassword(ctx context.Context, password string) error {
	if len([]rune(password)) < 8 {
		return errors.New("password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one digit")
	}

	if commons.GetEnv("PWNED_PASSWORDS_ENABLED", "false") == "true" {
		pwned, err := checkPasswordPwned(ctx, password)
		if err != nil {
			commons.Logger.Error("Error checking pwned passwords:", err)
		}
		if pwned {
			return errors.New("password has been found in data breaches (pwned); choose a different one")
		}
	}

	return nil
}

func checkPasswordPwned(ctx context.Context, password string) (bool, error) {
	hasher := sha1.New()
	hasher.Write([]byte(password))
	hash := strings.ToUpper(hex.EncodeToString(hasher.Sum(nil)))

	prefix, suffix := hash[:5], hash[5:]
	url := fmt.Sprintf("https://api.pwnedpasswords.com/range/%s", prefix)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("HIBP API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read HIBP response: %w", err)
	}

	for _, line := range strings.Split(string(body), "\n") {
		if parts := strings.Split(line, ":"); len(parts) == 2 {
			if strings.TrimSpace(parts[0]) == suffix {
				return true, nil
			}
		}
	}
	return false, nil
}
