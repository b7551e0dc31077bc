package domain

import (
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/henriquezago/poker-planning-be/errors"
)

var validate = validator.New()

// ValidateSessionName rejects blank or oversized session names.
func ValidateSessionName(name string) error {
	if err := validate.Var(strings.TrimSpace(name), "required,max=120"); err != nil {
		return errors.Validation("invalid session name %q", name)
	}
	return nil
}

// ValidateParticipantName rejects blank or oversized participant names.
func ValidateParticipantName(name string) error {
	if err := validate.Var(strings.TrimSpace(name), "required,max=120"); err != nil {
		return errors.Validation("invalid participant name %q", name)
	}
	return nil
}

// ValidateEstimate accepts either the unset marker (nil) or a finite number.
// NaN and infinities never enter the data model.
func ValidateEstimate(estimate *float64) error {
	if estimate == nil {
		return nil
	}
	if math.IsNaN(*estimate) || math.IsInf(*estimate, 0) {
		return errors.Validation("estimate must be a finite number")
	}
	return nil
}
