package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Wallet and generation failures surfaced to clients.
const (
	CodeAccountInactive      Code = "ACCOUNT_INACTIVE"
	CodeInvalidReference     Code = "INVALID_REFERENCE"
	CodeInvalidEnum          Code = "INVALID_ENUM"
	CodeInvalidCount         Code = "INVALID_COUNT"
	CodeInsufficientFunds    Code = "INSUFFICIENT_FUNDS"
	CodeGenerationTimeout    Code = "GENERATION_TIMEOUT"
	CodeGenerationParseError Code = "GENERATION_PARSE_ERROR"
	CodeEmptyGeneration      Code = "EMPTY_GENERATION"
	CodePersistenceFailure   Code = "PERSISTENCE_FAILURE"
	CodeAmountOutOfRange     Code = "AMOUNT_OUT_OF_RANGE"
	CodePaymentDeclined      Code = "PAYMENT_DECLINED"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	// ShowMessage lets the caller-facing message replace PublicMessage.
	ShowMessage bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
		ShowMessage:    true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
		ShowMessage:   true,
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
		ShowMessage:   true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		ShowMessage:   true,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
		ShowMessage:   true,
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
		ShowMessage:    true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
		ShowMessage:    true,
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
		ShowMessage:   true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
	CodeAccountInactive: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "account is inactive",
	},
	CodeInvalidReference: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "referenced curriculum entry is missing or inactive",
		DetailsAllowed: true,
		ShowMessage:    true,
	},
	CodeInvalidEnum: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "unsupported value",
		DetailsAllowed: true,
		ShowMessage:    true,
	},
	CodeInvalidCount: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "question count out of range",
		DetailsAllowed: true,
		ShowMessage:    true,
	},
	CodeInsufficientFunds: {
		HTTPStatus:     http.StatusPaymentRequired,
		PublicMessage:  "insufficient coin balance",
		DetailsAllowed: true,
	},
	CodeGenerationTimeout: {
		HTTPStatus:    http.StatusGatewayTimeout,
		Retryable:     true,
		PublicMessage: "question generation timed out",
	},
	CodeGenerationParseError: {
		HTTPStatus:    http.StatusBadGateway,
		Retryable:     true,
		PublicMessage: "generated output could not be parsed",
	},
	CodeEmptyGeneration: {
		HTTPStatus:    http.StatusBadGateway,
		Retryable:     true,
		PublicMessage: "no questions were generated",
	},
	CodePersistenceFailure: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "could not save results",
	},
	CodeAmountOutOfRange: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "amount out of range",
		DetailsAllowed: true,
		ShowMessage:    true,
	},
	CodePaymentDeclined: {
		HTTPStatus:    http.StatusPaymentRequired,
		PublicMessage: "payment declined",
		ShowMessage:   true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// Ensure returns err unchanged when it already carries a code, otherwise wraps it with code.
func Ensure(code Code, err error, message string) error {
	if err == nil {
		return nil
	}
	if As(err) != nil {
		return err
	}
	return Wrap(code, err, message)
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
