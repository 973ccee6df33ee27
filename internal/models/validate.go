package models

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate checks struct tags on any request or entity model.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return NewError(KindInvalidArgument, err.Error())
	}
	return nil
}
