package dynaread

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Tests for error handling

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := NewValidationError("Reads", "read batch is empty")
		expected := `validation failed for field "Reads": read batch is empty`
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("without field", func(t *testing.T) {
		err := NewValidationError("", "bad request")
		if err.Error() != "validation failed: bad request" {
			t.Errorf("Expected message without field, got %q", err.Error())
		}
	})

	t.Run("matches ErrInvalidRequest", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewValidationError("Table", "a table is required"))
		if !errors.Is(err, ErrInvalidRequest) {
			t.Error("Expected wrapped validation error to match ErrInvalidRequest")
		}
		if errors.Is(err, ErrConsistencyConflict) {
			t.Error("Expected validation error not to match ErrConsistencyConflict")
		}

		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "Table" {
			t.Errorf("Expected *ValidationError for field Table, got %v", err)
		}
	})
}

func TestConsistencyConflictError(t *testing.T) {
	err := &ConsistencyConflictError{TableName: "Orders", Existing: true, Incoming: false}

	if !strings.Contains(err.Error(), `"Orders"`) {
		t.Errorf("Expected message to name the table, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "'ConsistentRead'") {
		t.Errorf("Expected message to name the setting, got %q", err.Error())
	}

	wrapped := fmt.Errorf("read batch 1: %w", err)
	if !IsConsistencyConflict(wrapped) {
		t.Error("Expected wrapped conflict to match ErrConsistencyConflict")
	}
	if !IsValidationError(wrapped) {
		t.Error("Expected wrapped conflict to match ErrInvalidRequest")
	}
}

func TestValidationFailure(t *testing.T) {
	t.Run("struct validation errors", func(t *testing.T) {
		err := validationFailure(validate.Struct(&KeySchema{}))

		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Expected *ValidationError, got %T", err)
		}
		if ve.Field != "KeySchema.PartitionKey" {
			t.Errorf("Expected field KeySchema.PartitionKey, got %s", ve.Field)
		}
		if !strings.Contains(ve.Message, "required") {
			t.Errorf("Expected message to name the rule, got %s", ve.Message)
		}
	})

	t.Run("other errors", func(t *testing.T) {
		err := validationFailure(errors.New("unexpected"))
		if !IsValidationError(err) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}

func TestTransactionCancellationReasons(t *testing.T) {
	t.Run("cancelled transaction", func(t *testing.T) {
		canceled := &types.TransactionCanceledException{
			Message: aws.String("Transaction cancelled"),
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("None")},
				{Code: aws.String("ConditionalCheckFailed")},
			},
		}

		reasons, ok := TransactionCancellationReasons(fmt.Errorf("operation error: %w", canceled))
		if !ok {
			t.Fatal("Expected cancellation reasons")
		}
		if len(reasons) != 2 {
			t.Fatalf("Expected 2 reasons, got %d", len(reasons))
		}
		if aws.ToString(reasons[1].Code) != "ConditionalCheckFailed" {
			t.Errorf("Expected second reason ConditionalCheckFailed, got %s", aws.ToString(reasons[1].Code))
		}
	})

	t.Run("other error", func(t *testing.T) {
		if _, ok := TransactionCancellationReasons(errors.New("boom")); ok {
			t.Error("Expected no cancellation reasons")
		}
	})
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"api error", &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"}, "ProvisionedThroughputExceededException"},
		{"wrapped api error", fmt.Errorf("request failed: %w", &types.ResourceNotFoundException{Message: aws.String("missing")}), "ResourceNotFoundException"},
		{"plain error", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("Expected code %q, got %q", tt.expected, got)
			}
		})
	}
}
