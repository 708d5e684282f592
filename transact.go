package dynaread

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TransactReader can marshal itself into a transactional get item. Each read
// variant decides how it is rendered; the request never inspects the variant.
type TransactReader interface {
	MarshalTransactGet(table *Table, opCtx OperationContext) (types.TransactGetItem, error)
}

// ReadTransaction binds a read to the table it addresses.
type ReadTransaction struct {
	Table *Table
	Read  TransactReader
}

// TransactGetRequest reads items atomically with a single TransactGetItems
// call. Reads are submitted in order, one transact item per read; unlike
// [BatchGetRequest] they are never merged. It implements [Operation].
type TransactGetRequest struct {
	Transactions           []ReadTransaction            // Reads in submission order
	ReturnConsumedCapacity types.ReturnConsumedCapacity // Optional capacity reporting level
}

// MarshalRequest marshals each read transaction, in order, into a transact
// get items input.
func (r *TransactGetRequest) MarshalRequest() (*dynamodb.TransactGetItemsInput, error) {
	if len(r.Transactions) == 0 {
		return nil, NewValidationError("Transactions", "at least one read transaction is required")
	}

	items := make([]types.TransactGetItem, 0, len(r.Transactions))

	for i, tx := range r.Transactions {
		if err := tx.Table.Validate(); err != nil {
			return nil, fmt.Errorf("read transaction %d: %w", i, err)
		}

		if tx.Read == nil {
			return nil, fmt.Errorf("read transaction %d: %w", i, NewValidationError("Read", "a read operation is required"))
		}

		item, err := tx.Read.MarshalTransactGet(tx.Table, tx.Table.operationContext())
		if err != nil {
			return nil, fmt.Errorf("read transaction %d: failed to marshal transact get: %w", i, err)
		}

		items = append(items, item)
	}

	return &dynamodb.TransactGetItemsInput{
		TransactItems:          items,
		ReturnConsumedCapacity: r.ReturnConsumedCapacity,
	}, nil
}

// TransformResponse correlates the service responses with the submitted
// reads. The result at index i answers read transaction i; reads that found
// no item yield an absent result. Found items pass through the extension of
// the table they were read from.
func (r *TransactGetRequest) TransformResponse(out *dynamodb.TransactGetItemsOutput) ([]TransactResult, error) {
	var responses []types.ItemResponse
	if out != nil {
		responses = out.Responses
	}

	if len(responses) != len(r.Transactions) {
		return nil, fmt.Errorf("%w: submitted %d reads, received %d responses",
			ErrResponseMismatch, len(r.Transactions), len(responses))
	}

	results := CorrelateTransactResponses(responses)

	for i, result := range results {
		if !result.Found() {
			continue
		}

		item, err := r.Transactions[i].Table.afterRead(result.Item)
		if err != nil {
			return nil, fmt.Errorf("failed to transform response %d: %w", i, err)
		}

		results[i].Item = item
	}

	return results, nil
}

// TransactResult is the outcome of a single transactional read.
type TransactResult struct {
	Item Item // The item read, or nil if the service found no match
}

// Found reports whether the read matched an item. A result that is not found
// is an absence marker, not an error.
func (r TransactResult) Found() bool {
	return r.Item != nil
}

// CorrelateTransactResponses converts raw transactional responses into
// results at the same positions. Empty slots become absent results.
func CorrelateTransactResponses(responses []types.ItemResponse) []TransactResult {
	results := make([]TransactResult, len(responses))
	for i, response := range responses {
		if len(response.Item) > 0 {
			results[i] = TransactResult{Item: response.Item}
		}
	}
	return results
}

// UnmarshalTransactResults unmarshals each result into a *T and stores the
// values in out, which has the same length as results. Absent results are
// stored as nil so positions keep matching the submitted reads.
func UnmarshalTransactResults[T any](results []TransactResult, out *[]*T) error {
	values := make([]*T, len(results))

	for i, result := range results {
		if !result.Found() {
			continue
		}

		value := new(T)
		if err := attributevalue.UnmarshalMap(result.Item, value); err != nil {
			return fmt.Errorf("failed to unmarshal result %d: %w", i, err)
		}
		values[i] = value
	}

	*out = values
	return nil
}
