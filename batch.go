package dynaread

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// BatchableRead is a read that can be aggregated into a BatchGetItem request.
type BatchableRead interface {
	// BatchKey returns the key of the item to read.
	BatchKey() (Key, error)
	// ReadConsistency returns the requested 'ConsistentRead' setting, or nil
	// if the read has no preference.
	ReadConsistency() *bool
}

// ReadBatch is an ordered group of reads addressed to the same table.
type ReadBatch struct {
	Table *Table
	Reads []BatchableRead
}

// keysAndAttributes folds the batch reads, in order, into the key list and
// the single 'ConsistentRead' setting DynamoDB requires per table.
func (b ReadBatch) keysAndAttributes() (types.KeysAndAttributes, error) {
	if err := b.Table.Validate(); err != nil {
		return types.KeysAndAttributes{}, err
	}

	if len(b.Reads) == 0 {
		return types.KeysAndAttributes{}, NewValidationError("Reads", fmt.Sprintf("read batch for table %q is empty", b.Table.Name))
	}

	var (
		consistent *bool
		keys       = make([]Item, 0, len(b.Reads))
	)

	for i, read := range b.Reads {
		if read == nil {
			return types.KeysAndAttributes{}, NewValidationError("Reads", fmt.Sprintf("read %d for table %q is nil", i, b.Table.Name))
		}

		resolved, err := reconcile(b.Table.Name, consistent, read.ReadConsistency())
		if err != nil {
			return types.KeysAndAttributes{}, err
		}
		consistent = resolved

		key, err := read.BatchKey()
		if err != nil {
			return types.KeysAndAttributes{}, fmt.Errorf("read %d for table %q: %w", i, b.Table.Name, err)
		}

		keyMap, err := b.Table.Schema.KeyMap(key, PrimaryIndexName)
		if err != nil {
			return types.KeysAndAttributes{}, fmt.Errorf("read %d for table %q: %w", i, b.Table.Name, err)
		}

		keys = append(keys, keyMap)
	}

	return types.KeysAndAttributes{
		Keys:           keys,
		ConsistentRead: consistent,
	}, nil
}

// mergeKeysAndAttributes combines two aggregations for the same table. Keys
// of first precede keys of second.
func mergeKeysAndAttributes(tableName string, first, second types.KeysAndAttributes) (types.KeysAndAttributes, error) {
	consistent, err := reconcile(tableName, first.ConsistentRead, second.ConsistentRead)
	if err != nil {
		return types.KeysAndAttributes{}, err
	}

	keys := make([]Item, 0, len(first.Keys)+len(second.Keys))
	keys = append(keys, first.Keys...)
	keys = append(keys, second.Keys...)

	return types.KeysAndAttributes{
		Keys:           keys,
		ConsistentRead: consistent,
	}, nil
}

// MergeReadBatches aggregates the batches into one request item per table.
// Batches addressed to the same table are concatenated in submission order,
// duplicate keys included. Every read for a table must agree on the
// 'ConsistentRead' setting (see [ReconcileConsistency]); on the first
// disagreement a *ConsistencyConflictError is returned and no request items
// are produced.
func MergeReadBatches(batches []ReadBatch) (map[string]types.KeysAndAttributes, error) {
	merged := make(map[string]types.KeysAndAttributes, len(batches))

	for i, batch := range batches {
		next, err := batch.keysAndAttributes()
		if err != nil {
			return nil, fmt.Errorf("read batch %d: %w", i, err)
		}

		existing, ok := merged[batch.Table.Name]
		if !ok {
			merged[batch.Table.Name] = next
			continue
		}

		combined, err := mergeKeysAndAttributes(batch.Table.Name, existing, next)
		if err != nil {
			return nil, fmt.Errorf("read batch %d: %w", i, err)
		}

		merged[batch.Table.Name] = combined
	}

	return merged, nil
}

// BatchGetRequest reads items from one or more tables with a single
// BatchGetItem call. It implements [Operation].
type BatchGetRequest struct {
	Batches                []ReadBatch                  // Reads grouped by table
	ReturnConsumedCapacity types.ReturnConsumedCapacity // Optional capacity reporting level
}

// MarshalRequest merges the request batches into a batch get item input.
func (r *BatchGetRequest) MarshalRequest() (*dynamodb.BatchGetItemInput, error) {
	if len(r.Batches) == 0 {
		return nil, NewValidationError("Batches", "at least one read batch is required")
	}

	requestItems, err := MergeReadBatches(r.Batches)
	if err != nil {
		return nil, fmt.Errorf("failed to merge read batches: %w", err)
	}

	return &dynamodb.BatchGetItemInput{
		RequestItems:           requestItems,
		ReturnConsumedCapacity: r.ReturnConsumedCapacity,
	}, nil
}

// TransformResponse wraps the output into a result page.
func (r *BatchGetRequest) TransformResponse(out *dynamodb.BatchGetItemOutput) (*BatchGetResultPage, error) {
	return newBatchGetResultPage(out, r.tables()), nil
}

// tables indexes the request tables by name. The first table registered
// under a name wins.
func (r *BatchGetRequest) tables() map[string]*Table {
	tables := make(map[string]*Table, len(r.Batches))
	for _, batch := range r.Batches {
		if batch.Table == nil {
			continue
		}
		if _, ok := tables[batch.Table.Name]; !ok {
			tables[batch.Table.Name] = batch.Table
		}
	}
	return tables
}

// BatchGetResultPage is one page of BatchGetItem results. It keeps the tables
// of the originating request so items can be projected per table.
type BatchGetResultPage struct {
	output *dynamodb.BatchGetItemOutput
	tables map[string]*Table
}

func newBatchGetResultPage(out *dynamodb.BatchGetItemOutput, tables map[string]*Table) *BatchGetResultPage {
	if out == nil {
		out = &dynamodb.BatchGetItemOutput{}
	}
	return &BatchGetResultPage{output: out, tables: tables}
}

// Output returns the raw service output.
func (p *BatchGetResultPage) Output() *dynamodb.BatchGetItemOutput {
	return p.output
}

// TableNames returns the sorted names of the tables the request addressed.
func (p *BatchGetResultPage) TableNames() []string {
	return slices.Sorted(maps.Keys(p.tables))
}

// ItemsForTable returns the items read from table on this page, with the
// table extension applied. The order of items is the order the service
// returned them in, which is not the order of the requested keys. Items the
// extension replaces with nil are left out.
func (p *BatchGetResultPage) ItemsForTable(table *Table) ([]Item, error) {
	if table == nil {
		return nil, NewValidationError("Table", "a table is required")
	}

	raw := p.output.Responses[table.Name]
	items := make([]Item, 0, len(raw))

	for i, item := range raw {
		transformed, err := table.afterRead(item)
		if err != nil {
			return nil, fmt.Errorf("failed to transform item %d for table %q: %w", i, table.Name, err)
		}
		if transformed == nil {
			continue
		}
		items = append(items, transformed)
	}

	return items, nil
}

// UnprocessedKeysForTable returns the keys of table that the service did not
// process on this page.
func (p *BatchGetResultPage) UnprocessedKeysForTable(table *Table) []Item {
	if table == nil {
		return nil
	}
	return p.output.UnprocessedKeys[table.Name].Keys
}

// HasUnprocessedKeys reports whether any key was left unprocessed.
func (p *BatchGetResultPage) HasUnprocessedKeys() bool {
	return len(p.output.UnprocessedKeys) > 0
}

// ConsumedCapacity returns the capacity reported by the service, if it was requested.
func (p *BatchGetResultPage) ConsumedCapacity() []types.ConsumedCapacity {
	return p.output.ConsumedCapacity
}

// UnmarshalTableItems calls [BatchGetResultPage.ItemsForTable] and unmarshals
// each item into a T, appending the values to out.
func UnmarshalTableItems[T any](page *BatchGetResultPage, table *Table, out *[]T) error {
	items, err := page.ItemsForTable(table)
	if err != nil {
		return err
	}

	for i, item := range items {
		var value T
		if err := attributevalue.UnmarshalMap(item, &value); err != nil {
			return fmt.Errorf("failed to unmarshal item %d: %w", i, err)
		}
		*out = append(*out, value)
	}

	return nil
}
