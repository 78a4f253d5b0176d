package passwordcheck

import (
	"context"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	ctx := context.Background()

	valid := []string{"Str0ngPassword", "Abcdefg1", "xY9zxY9z"}
	for _, password := range valid {
		if err := ValidatePassword(ctx, password); err != nil {
			t.Errorf("Expected %q to pass policy, got: %v", password, err)
		}
	}

	invalid := map[string]string{
		"Sh0rt":        "too short",
		"alllower1":    "no uppercase",
		"ALLUPPER1":    "no lowercase",
		"NoDigitsHere": "no digit",
		"":             "empty",
	}
	for password, reason := range invalid {
		if err := ValidatePassword(ctx, password); err == nil {
			t.Errorf("Expected %q to fail policy (%s)", password, reason)
		}
	}
}

func TestValidatePasswordCountsRunes(t *testing.T) {
	// 8 multibyte runes plus the required classes.
	if err := ValidatePassword(context.Background(), "Pässwörd1"); err != nil {
		t.Errorf("Rune-counted password should pass: %v", err)
	}
}
