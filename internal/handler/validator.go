package handler

import (
    "net/http"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// RequestValidator adapts go-playground/validator to echo's
// Validator interface so handlers can call c.Validate on bound
// request bodies.
type RequestValidator struct {
    v *validator.Validate
}

// NewRequestValidator returns a validator with struct tag support.
func NewRequestValidator() *RequestValidator {
    return &RequestValidator{v: validator.New()}
}

// Validate implements echo.Validator.  Validation failures are
// surfaced as 400 responses with the underlying message.
func (rv *RequestValidator) Validate(i interface{}) error {
    if err := rv.v.Struct(i); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, err.Error())
    }
    return nil
}
