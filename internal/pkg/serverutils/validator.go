package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError carries the per-field failures of one request so the error
// middleware can surface them in the details field.
type ValidationError struct {
	Details string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Details
}

// ValidateRequest runs struct tag validation and folds all field failures
// into a single ValidationError.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var details []string
		for _, fieldErr := range validationErrors {
			details = append(details, fmt.Sprintf("%s failed on %s", fieldErr.Field(), fieldErr.Tag()))
		}
		return &ValidationError{Details: strings.Join(details, ", ")}
	}
	return nil
}
