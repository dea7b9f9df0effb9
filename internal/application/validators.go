package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-benford/internal/domain"
)

// registerCustomValidators adds the struct-tag validators used by Config.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("digitmode", validateDigitMode); err != nil {
		return fmt.Errorf("failed to register digitmode validator: %w", err)
	}
	if err := v.RegisterValidation("regioncode", validateRegionCode); err != nil {
		return fmt.Errorf("failed to register regioncode validator: %w", err)
	}
	return nil
}

// validateDigitMode accepts any spelling domain.ParseDigitMode accepts.
func validateDigitMode(fl validator.FieldLevel) bool {
	_, err := domain.ParseDigitMode(fl.Field().String())
	return err == nil
}

// validateRegionCode accepts two-letter postal region codes such as "GA"
// or "dc".
func validateRegionCode(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20 // ASCII lower-case
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
