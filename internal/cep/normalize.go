package cep

import (
	"strings"

	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

// Normalize strips formatting characters and validates that exactly eight
// digits remain. Malformed input fails before any network call is made.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ' ':
			// formatting noise, ignore
		default:
			return "", pkgerrors.New(pkgerrors.CodeValidation, "CEP contains invalid characters")
		}
	}
	digits := b.String()
	if len(digits) != 8 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "CEP must have exactly 8 digits")
	}
	return digits, nil
}

// FormatDisplay renders a normalized code in the conventional 00000-000 form.
func FormatDisplay(normalized string) string {
	if len(normalized) != 8 {
		return normalized
	}
	return normalized[:5] + "-" + normalized[5:]
}
