package errs

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid lifecycle state")
	ErrLimitExceeded = errors.New("borrowing limit exceeded")
	ErrUnavailable   = errors.New("no copies available")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("already exists")
)

type ValidationErrorResponse struct {
	Message string `json:"message"`
	Errors  struct {
		AdditionalProperties string `json:"additionalProperties"`
	} `json:"errors"`
}
