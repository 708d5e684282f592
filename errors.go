package dynaread

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidRequest is matched by every error raised while validating a
	// request, before anything is sent to the service.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConsistencyConflict is returned when reads for the same table carry
	// different explicit 'ConsistentRead' settings.
	ErrConsistencyConflict = errors.New("conflicting consistent read settings")

	// ErrResponseMismatch is returned when a transactional response does not
	// carry one slot per submitted read.
	ErrResponseMismatch = errors.New("response does not match request")
)

var validate = validator.New()

// ValidationError represents a malformed request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConsistencyConflictError names the table whose reads disagree on the
// 'ConsistentRead' setting, along with the two values that collided.
type ConsistencyConflictError struct {
	TableName string
	Existing  bool
	Incoming  bool
}

func (e *ConsistencyConflictError) Error() string {
	return fmt.Sprintf(
		"all batchable read requests for table %q must have the same 'ConsistentRead' setting: got %t and %t",
		e.TableName, e.Existing, e.Incoming,
	)
}

// Is reports whether target is ErrConsistencyConflict or ErrInvalidRequest.
func (e *ConsistencyConflictError) Is(target error) bool {
	return target == ErrConsistencyConflict || target == ErrInvalidRequest
}

// IsValidationError checks if err was raised while validating a request.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsConsistencyConflict checks if err is a consistency conflict.
func IsConsistencyConflict(err error) bool {
	return errors.Is(err, ErrConsistencyConflict)
}

// TransactionCancellationReasons extracts the per-item cancellation reasons
// from a TransactionCanceledException returned by the service. The reasons are
// positionally aligned with the submitted reads.
func TransactionCancellationReasons(err error) ([]types.CancellationReason, bool) {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return nil, false
	}
	return canceled.CancellationReasons, true
}

// ErrorCode returns the service error code carried by err, or an empty
// string if err did not originate from the service.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// validationFailure converts struct validation errors into a ValidationError
// naming the first offending field.
func validationFailure(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return NewValidationError(fe.Namespace(), fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}
