package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")
	ErrValidation = errors.New("validation error")
	ErrUpstream   = errors.New("upstream fault")

	// Configuration errors, detected at process start.
	ErrMissingSecret      = errors.New("signing secret is not configured")
	ErrMissingDatabaseDSN = errors.New("database DSN is not configured")
	ErrWebhookNotSet      = errors.New("campaign webhook URL not configured")
)

// FieldError describes a single rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when caller input is missing or malformed.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(names, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ClearFailureError reports the cascade clear stages that failed fatally.
type ClearFailureError struct {
	Stages []string
	Err    error
}

func (e *ClearFailureError) Error() string {
	return fmt.Sprintf("clear failed at %s: %v", strings.Join(e.Stages, ", "), e.Err)
}

func (e *ClearFailureError) Unwrap() error { return e.Err }

// UpstreamError wraps a failed call to the datastore, media store or webhook.
// It matches ErrUpstream with errors.Is.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
