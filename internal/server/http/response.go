package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  []common.FieldError `json:"errors,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondValidation(c *gin.Context, ve *common.ValidationError) {
	c.JSON(http.StatusBadRequest, envelope{Message: ve.Message, Errors: ve.Fields})
}

// writeError maps err to a status and a public message. fallback is used
// for unclassified failures; internal detail is only attached outside
// production.
func (a *API) writeError(c *gin.Context, err error, fallback string) {
	var (
		ve *common.ValidationError
		cf *common.ClearFailureError
	)

	status, message := http.StatusInternalServerError, fallback
	switch {
	case errors.As(err, &ve):
		respondValidation(c, ve)
		return
	case errors.Is(err, common.ErrorNotFound):
		status, message = http.StatusNotFound, "File not found"
	case errors.Is(err, common.ErrAlreadyExists):
		status, message = http.StatusBadRequest, "Record already exists"
	case errors.As(err, &cf):
		message = "Failed to clear existing records"
	case errors.Is(err, common.ErrWebhookNotSet):
		message = "Campaign webhook URL not configured"
	}

	if status >= http.StatusInternalServerError {
		a.log.Error(c.Request.Context(), message, "error", err, "request_id", c.GetString(requestIDKey))
	}

	body := envelope{Message: message}
	if !a.production {
		body.Error = err.Error()
	}
	c.JSON(status, body)
}

// bindError turns a binding failure into a ValidationError with one entry
// per rejected field.
func bindError(err error) *common.ValidationError {
	ve := &common.ValidationError{Message: "Validation failed"}

	var (
		fieldErrs validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			ve.Fields = append(ve.Fields, common.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	case errors.As(err, &typeErr):
		ve.Fields = append(ve.Fields, common.FieldError{Field: typeErr.Field, Message: "Expected " + typeErr.Type.String()})
	case errors.As(err, &sizeErr):
		ve.Fields = append(ve.Fields, common.FieldError{Field: "body", Message: "Request body too large"})
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		ve.Fields = append(ve.Fields, common.FieldError{Field: "body", Message: "Malformed JSON body"})
	default:
		ve.Fields = append(ve.Fields, common.FieldError{Field: "body", Message: err.Error()})
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Valid email is required"
	case "url":
		return "Valid URL is required"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("Failed on %s", fe.Tag())
	}
}
