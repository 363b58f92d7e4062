package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Bind decodes the request body into target and validates its struct tags.
// Field failures are joined into one validation error.
func Bind(r *http.Request, v *validator.Validate, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := v.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, ", "))
	}
	return nil
}
