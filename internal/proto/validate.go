package proto

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags on an inbound payload.
func Validate(v any) error {
	return validate.Struct(v)
}

// Decode unmarshals data into v and validates it.
func Decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := Validate(v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
