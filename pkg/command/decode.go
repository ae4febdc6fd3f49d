package command

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var validate = validator.New()

// Decode converts args into T with weak typing ("3" -> 3) using mapstructure tags,
// then runs `validate` struct tags. Failures wrap ErrValidation.
func Decode[T any](args Args) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(map[string]any(args)); err != nil {
		return out, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validate.Struct(out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return out, nil
}

// Validator returns a ValidateArgs function that checks args decode into T.
func Validator[T any]() func(args Args) error {
	return func(args Args) error {
		_, err := Decode[T](args)
		return err
	}
}
