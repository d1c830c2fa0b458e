// Package apperror defines the request-terminal error taxonomy shared by the
// billing, generation and auth layers, and maps it to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuthRequired
	KindAuthInvalid
	KindForbidden
	KindNotFound
	KindValidation
	KindRateLimited
	KindGenerationFailed
	KindPaymentConfig
	KindWebhookSignature
)

var kindNames = map[Kind]string{
	KindInternal:         "internal",
	KindAuthRequired:     "auth_required",
	KindAuthInvalid:      "auth_invalid",
	KindForbidden:        "forbidden",
	KindNotFound:         "not_found",
	KindValidation:       "validation_error",
	KindRateLimited:      "rate_limited",
	KindGenerationFailed: "generation_failed",
	KindPaymentConfig:    "payment_config_error",
	KindWebhookSignature: "webhook_signature_invalid",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "internal"
}

// Status returns the HTTP status a handler should answer with.
func (k Kind) Status() int {
	switch k {
	case KindAuthRequired, KindAuthInvalid:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindValidation, KindWebhookSignature:
		return fiber.StatusBadRequest
	case KindRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// Error carries a kind, a caller-safe message and an optional internal cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// PublicMessage returns the message that may be shown to the caller.
// Causes are never included.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "something went wrong, please try again"
}

// Respond writes the JSON error body for err.
func Respond(c *fiber.Ctx, err error) error {
	kind := KindOf(err)
	return c.Status(kind.Status()).JSON(fiber.Map{
		"error": PublicMessage(err),
		"code":  kind.String(),
	})
}
