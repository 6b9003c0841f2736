package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/puppymart/rewards-service/internal/couponcode"
)

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Register custom "notblank" validator - rejects whitespace-only strings
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// Register custom "couponcode" validator - accepts any input that carries
	// a full code's worth of significant characters, in masked or raw form
	_ = v.RegisterValidation("couponcode", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		return couponcode.IsComplete(str)
	})

	return v
}
