// Package validation holds the field rules shared by the services.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// TextRule checks a free-text field. MaxLen counts runes; zero means unbounded.
type TextRule struct {
	Field  string
	MaxLen int
}

// Required trims s and rejects blank input with "<field> is required".
func (r TextRule) Required(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is required", r.Field)
	}
	return s, r.checkLength(s)
}

// Replacement trims s for an update and rejects blank input with "<field> cannot be empty".
func (r TextRule) Replacement(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s cannot be empty", r.Field)
	}
	return s, r.checkLength(s)
}

func (r TextRule) checkLength(s string) error {
	if r.MaxLen > 0 && utf8.RuneCountInString(s) > r.MaxLen {
		return fmt.Errorf("%s too long (max %d chars)", r.Field, r.MaxLen)
	}
	return nil
}

// Fits reports whether s is within MaxLen runes.
func (r TextRule) Fits(s string) bool {
	return r.checkLength(s) == nil
}

// OptionalURL trims s and accepts blank, an absolute URI or a rooted path.
func OptionalURL(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if err := validate.Var(s, "omitempty,uri"); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return "", fmt.Errorf("%s must be a valid URL", field)
		}
		return "", err
	}
	return s, nil
}
