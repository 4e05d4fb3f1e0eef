// Package validator wraps the go-playground/validator library behind a small
// API for declarative struct validation. Fields are validated through tags
// (e.g. `validate:"required"`) and failures are reported as a joined error
// chain rooted at ErrValidation.
package validator

import (
	"errors"
	"fmt"
	"sync"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidation is the root of every error chain returned when a struct
// fails validation, so callers can detect validation failures with errors.Is
// regardless of how many fields were rejected.
var ErrValidation = errors.New("struct validation failed")

var (
	// validate is the shared validator instance, configured once by Init.
	validate *gvalidator.Validate

	// initOnce guards the one-time setup performed by Init.
	initOnce sync.Once
)

// fieldErrFormat describes a single rejected field.
//
// Example: "'Recipient': value '' does not satisfy the 'required' rule"
const fieldErrFormat = "'%s': value '%v' does not satisfy the '%s' rule"

// Init prepares the shared validator instance. It is safe to call from
// multiple packages; only the first call has any effect.
func Init() {
	initOnce.Do(func() {
		validate = gvalidator.New(gvalidator.WithRequiredStructEnabled())
	})
}

// formatError converts raw validator output into a joined error chain rooted
// at ErrValidation, with one formatted entry per rejected field. Errors that
// are not field validation errors are returned unchanged.
func formatError(err error) error {
	var fieldErrors gvalidator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	errs := []error{ErrValidation}
	for _, fieldErr := range fieldErrors {
		errs = append(errs, fmt.Errorf(fieldErrFormat,
			fieldErr.Field(),
			fieldErr.Value(),
			fieldErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks the given struct against its validation tags. It returns
// nil when every field passes, or an error chain that satisfies
// errors.Is(err, ErrValidation) otherwise.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
