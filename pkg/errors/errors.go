package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"

	// Cart and checkout.
	CodeEmptyCart         Code = "EMPTY_CART"
	CodeNoSelection       Code = "NO_SELECTION"
	CodeProductNotFound   Code = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeMultiFarmerCart   Code = "MULTI_FARMER_CART"

	// Order lifecycle.
	CodeInvalidTransition          Code = "INVALID_TRANSITION"
	CodeInvalidStateForCancel      Code = "INVALID_STATE_FOR_CANCEL"
	CodeInvalidAfterSaleTransition Code = "INVALID_AFTERSALE_TRANSITION"
	CodeAfterSaleNotEligible       Code = "AFTER_SALE_NOT_ELIGIBLE"
	CodeLogisticsNotSet            Code = "LOGISTICS_NOT_SET"
	CodeOrderCancelled             Code = "ORDER_CANCELLED"
)

// Metadata describes how a code is surfaced to API clients.
// ClientFacing codes carry their own message to the client; all others fall back
// to PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	ClientFacing   bool
}

func rule(message string) Metadata {
	return Metadata{
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  message,
		DetailsAllowed: true,
		ClientFacing:   true,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
		ClientFacing:  true,
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
		ClientFacing:  true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		ClientFacing:  true,
	},
	CodeProductNotFound: {
		HTTPStatus:     http.StatusNotFound,
		PublicMessage:  "product not found",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
		ClientFacing:  true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
		ClientFacing:  true,
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

	CodeEmptyCart:                  rule("cart is empty"),
	CodeNoSelection:                rule("no cart items selected"),
	CodeInsufficientStock:          rule("insufficient stock"),
	CodeMultiFarmerCart:            rule("selected items belong to more than one farmer"),
	CodeInvalidTransition:          rule("order status transition not allowed"),
	CodeInvalidStateForCancel:      rule("order can no longer be cancelled"),
	CodeInvalidAfterSaleTransition: rule("after-sale status transition not allowed"),
	CodeAfterSaleNotEligible:       rule("order is not eligible for after-sale service"),
	CodeLogisticsNotSet:            rule("logistics information has not been set"),
	CodeOrderCancelled:             rule("order has been cancelled"),
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

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
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

// CodeOf returns the code of the first typed error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
