package dynamock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynaread"
)

// MockClient is a simple expectation-based mock for DynamoDB read operations.
// Users can set expectations for specific operations without needing integration.
type MockClient struct {
	BatchGetItemFunc     dynaread.ServiceCall[dynamodb.BatchGetItemInput, dynamodb.BatchGetItemOutput]
	TransactGetItemsFunc dynaread.ServiceCall[dynamodb.TransactGetItemsInput, dynamodb.TransactGetItemsOutput]
}

// Ensure MockClient implements dynaread.DynamoDBClient
var _ dynaread.DynamoDBClient = (*MockClient)(nil)

// NewMockClient creates a new mock DynamoDB client. Calls without an
// expectation fail the test.
func NewMockClient(t *testing.T) *MockClient {
	return &MockClient{
		BatchGetItemFunc:     defaultFunc[dynamodb.BatchGetItemInput, dynamodb.BatchGetItemOutput](t),
		TransactGetItemsFunc: defaultFunc[dynamodb.TransactGetItemsInput, dynamodb.TransactGetItemsOutput](t),
	}
}

func defaultFunc[T, U any](t *testing.T) dynaread.ServiceCall[T, U] {
	return func(ctx context.Context, params *T, optFns ...func(*dynamodb.Options)) (*U, error) {
		t.Fatal("unexpected call")
		return nil, nil
	}
}

// BatchGetItem invokes BatchGetItemFunc.
func (m *MockClient) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	return m.BatchGetItemFunc(ctx, params, optFns...)
}

// TransactGetItems invokes TransactGetItemsFunc.
func (m *MockClient) TransactGetItems(ctx context.Context, params *dynamodb.TransactGetItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactGetItemsOutput, error) {
	return m.TransactGetItemsFunc(ctx, params, optFns...)
}

// ExpectBatchGetItem sets an expectation that returns out, after passing the
// input to verify. verify may be nil.
func (m *MockClient) ExpectBatchGetItem(verify func(*dynamodb.BatchGetItemInput), out *dynamodb.BatchGetItemOutput) *MockClient {
	m.BatchGetItemFunc = func(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
		if verify != nil {
			verify(params)
		}
		return out, nil
	}
	return m
}

// ExpectTransactGetItems sets an expectation that answers each transact item
// with the item at the same position. A nil item is reported as not found.
func (m *MockClient) ExpectTransactGetItems(verify func(*dynamodb.TransactGetItemsInput), items ...dynaread.Item) *MockClient {
	m.TransactGetItemsFunc = func(ctx context.Context, params *dynamodb.TransactGetItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactGetItemsOutput, error) {
		if verify != nil {
			verify(params)
		}

		responses := make([]types.ItemResponse, len(items))
		for i, item := range items {
			responses[i] = types.ItemResponse{Item: item}
		}
		return &dynamodb.TransactGetItemsOutput{Responses: responses}, nil
	}
	return m
}

// FailTransactGetItems sets an expectation that cancels the transaction with
// one reason code per transact item. Use "None" for items that did not cause
// the cancellation.
func (m *MockClient) FailTransactGetItems(codes ...string) *MockClient {
	m.TransactGetItemsFunc = func(ctx context.Context, params *dynamodb.TransactGetItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactGetItemsOutput, error) {
		return nil, TransactionCanceled(codes...)
	}
	return m
}

// TransactionCanceled builds the exception DynamoDB returns when a
// transaction is cancelled, with one reason per code.
func TransactionCanceled(codes ...string) *types.TransactionCanceledException {
	reasons := make([]types.CancellationReason, len(codes))
	for i, code := range codes {
		reasons[i] = types.CancellationReason{Code: aws.String(code)}
	}

	return &types.TransactionCanceledException{
		Message:             aws.String("Transaction cancelled, please refer cancellation reasons for specific reasons"),
		CancellationReasons: reasons,
	}
}
