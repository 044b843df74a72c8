package handler

import (
    "github.com/go-playground/validator/v10" // struct validation
)

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
    v *validator.Validate
}

// NewValidator returns a validator for request DTOs.
func NewValidator() *RequestValidator {
    return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error {
    return rv.v.Struct(i)
}
