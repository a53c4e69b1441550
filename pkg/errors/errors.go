package errors

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors
var (
	ErrMissingConfiguration = errors.New("missing configuration")
	ErrQueryFailure         = errors.New("query failed")
	ErrInvalidDateRange     = errors.New("invalid date range")
	ErrRenderFailure        = errors.New("rendering workbook failed")
	ErrDeliveryFailure      = errors.New("delivering export failed")
	ErrAlreadyDelivered     = errors.New("export already delivered")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeMissingConfiguration = "MISSING_CONFIGURATION"
	ErrCodeQueryFailure         = "QUERY_FAILURE"
	ErrCodeInvalidDateRange     = "INVALID_DATE_RANGE"
	ErrCodeRenderFailure        = "RENDER_FAILURE"
	ErrCodeDeliveryFailure      = "DELIVERY_FAILURE"
	ErrCodeAlreadyDelivered     = "ALREADY_DELIVERED"
)

// Code returns the code of the first BusinessError in err's chain, or "".
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// joined keeps both the sentinel and the cause reachable through errors.Is.
type joined struct {
	sentinel error
	cause    error
}

func (j *joined) Error() string {
	if j.cause == nil {
		return j.sentinel.Error()
	}
	return fmt.Sprintf("%v: %v", j.sentinel, j.cause)
}

func (j *joined) Unwrap() []error {
	if j.cause == nil {
		return []error{j.sentinel}
	}
	return []error{j.sentinel, j.cause}
}

func WrapMissingConfiguration(what string, cause error) *BusinessError {
	return NewBusinessError(
		ErrCodeMissingConfiguration,
		fmt.Sprintf("Required configuration %s is missing", what),
		&joined{sentinel: ErrMissingConfiguration, cause: cause},
	)
}

func WrapQueryFailure(source string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeQueryFailure,
		fmt.Sprintf("Querying %s failed", source),
		&joined{sentinel: ErrQueryFailure, cause: err},
	)
}

func WrapInvalidDateRange(start, end time.Time) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidDateRange,
		fmt.Sprintf("End date %s is before start date %s", end.Format("2006-01-02"), start.Format("2006-01-02")),
		ErrInvalidDateRange,
	)
}

func WrapUnparsableDate(value string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidDateRange,
		fmt.Sprintf("Date %q is not a valid YYYY-MM-DD day", value),
		&joined{sentinel: ErrInvalidDateRange, cause: err},
	)
}

func WrapRenderFailure(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeRenderFailure,
		"xlsx rendering failed",
		&joined{sentinel: ErrRenderFailure, cause: err},
	)
}

func WrapDeliveryFailure(recipient string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDeliveryFailure,
		fmt.Sprintf("Sending export to %s failed", recipient),
		&joined{sentinel: ErrDeliveryFailure, cause: err},
	)
}

func WrapAlreadyDelivered(day string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyDelivered,
		fmt.Sprintf("Export for %s was already delivered", day),
		ErrAlreadyDelivered,
	)
}
