// Package validator wraps go-playground/validator for the deal models. The
// normalizer runs every candidate deal through it as the final gate before the
// record enters the pipeline, so tag changes on NormalizedDeal are enforced in
// exactly one place.
package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// ValidateStruct checks s against its `validate` tags. For deals that means a
// non-empty ID and source and a well-formed required URL; the error wraps the
// library's field-level detail for the skip log.
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
