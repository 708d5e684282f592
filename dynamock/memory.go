package dynamock

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/nisimpson/dynaread"
)

// MemoryClient is an in-memory stand-in for DynamoDB that answers batch and
// transactional reads from items stored per table. Like DynamoDB, it rejects
// a BatchGetItem call that requests more than 100 keys or the same key twice
// with a ValidationException. It is safe for concurrent use.
type MemoryClient struct {
	// MaxBatchKeys limits the keys processed per BatchGetItem call; the rest
	// are returned as unprocessed. Zero means no limit.
	MaxBatchKeys int

	mu             sync.RWMutex
	tables         map[string]*memoryTable
	batchInputs    []*dynamodb.BatchGetItemInput
	transactInputs []*dynamodb.TransactGetItemsInput
}

// maxBatchGetKeys is the BatchGetItem request limit.
const maxBatchGetKeys = 100

type memoryTable struct {
	schema *dynaread.KeySchema
	items  map[string]dynaread.Item
}

// Ensure MemoryClient implements dynaread.DynamoDBClient
var _ dynaread.DynamoDBClient = (*MemoryClient)(nil)

// NewMemoryClient creates an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		tables: make(map[string]*memoryTable),
	}
}

// CreateTable registers a table. Reads addressed to unknown tables fail with a
// ResourceNotFoundException.
func (m *MemoryClient) CreateTable(name string, schema *dynaread.KeySchema) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables[name] = &memoryTable{
		schema: schema,
		items:  make(map[string]dynaread.Item),
	}
	return m
}

// Put stores items in a table, replacing items with the same key.
func (m *MemoryClient) Put(tableName string, items ...dynaread.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, err := m.table(tableName)
	if err != nil {
		return err
	}

	for i, item := range items {
		id, err := table.identity(item)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		table.items[id] = maps.Clone(item)
	}

	return nil
}

// Seed stores the items of each table. Tables must already exist.
func (m *MemoryClient) Seed(data map[string][]dynaread.Item) error {
	for tableName, items := range data {
		if err := m.Put(tableName, items...); err != nil {
			return fmt.Errorf("failed to seed table %s: %w", tableName, err)
		}
	}
	return nil
}

// BatchGetItemInputs returns the BatchGetItem inputs received so far.
func (m *MemoryClient) BatchGetItemInputs() []*dynamodb.BatchGetItemInput {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*dynamodb.BatchGetItemInput(nil), m.batchInputs...)
}

// TransactGetItemsInputs returns the TransactGetItems inputs received so far.
func (m *MemoryClient) TransactGetItemsInputs() []*dynamodb.TransactGetItemsInput {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*dynamodb.TransactGetItemsInput(nil), m.transactInputs...)
}

// BatchGetItem answers the requested keys. Keys that match no item are
// omitted from the responses, as DynamoDB does.
func (m *MemoryClient) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.batchInputs = append(m.batchInputs, params)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &dynamodb.BatchGetItemOutput{
		Responses: make(map[string][]dynaread.Item),
	}

	if err := m.validateBatchGet(params); err != nil {
		return nil, err
	}

	budget := m.MaxBatchKeys
	for _, tableName := range slices.Sorted(maps.Keys(params.RequestItems)) {
		ka := params.RequestItems[tableName]
		table, err := m.table(tableName)
		if err != nil {
			return nil, err
		}

		for i, key := range ka.Keys {
			if m.MaxBatchKeys > 0 && budget == 0 {
				if out.UnprocessedKeys == nil {
					out.UnprocessedKeys = make(map[string]types.KeysAndAttributes)
				}
				out.UnprocessedKeys[tableName] = types.KeysAndAttributes{
					Keys:           ka.Keys[i:],
					ConsistentRead: ka.ConsistentRead,
				}
				break
			}
			budget--

			item, found, err := table.get(key)
			if err != nil {
				return nil, err
			}
			if found {
				out.Responses[tableName] = append(out.Responses[tableName], item)
			}
		}
	}

	return out, nil
}

// TransactGetItems answers each transact item at the same position. Items that
// match nothing yield an empty response.
func (m *MemoryClient) TransactGetItems(ctx context.Context, params *dynamodb.TransactGetItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactGetItemsOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.transactInputs = append(m.transactInputs, params)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	responses := make([]types.ItemResponse, len(params.TransactItems))
	for i, ti := range params.TransactItems {
		if ti.Get == nil {
			return nil, validationException(fmt.Sprintf("transact item %d has no Get", i))
		}

		table, err := m.table(aws.ToString(ti.Get.TableName))
		if err != nil {
			return nil, err
		}

		item, found, err := table.get(ti.Get.Key)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		if ti.Get.ProjectionExpression != nil {
			item = project(item, aws.ToString(ti.Get.ProjectionExpression), ti.Get.ExpressionAttributeNames)
		}
		responses[i] = types.ItemResponse{Item: item}
	}

	return &dynamodb.TransactGetItemsOutput{Responses: responses}, nil
}

// validateBatchGet rejects requests DynamoDB would reject before reading.
func (m *MemoryClient) validateBatchGet(params *dynamodb.BatchGetItemInput) error {
	total := 0
	for tableName, ka := range params.RequestItems {
		total += len(ka.Keys)

		table, err := m.table(tableName)
		if err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(ka.Keys))
		for _, key := range ka.Keys {
			id, err := table.identity(key)
			if err != nil {
				return err
			}
			if _, ok := seen[id]; ok {
				return validationException("Provided list of item keys contains duplicates")
			}
			seen[id] = struct{}{}
		}
	}

	if total > maxBatchGetKeys {
		return validationException(fmt.Sprintf("Too many items requested for the BatchGetItem call: %d keys, limit %d", total, maxBatchGetKeys))
	}
	return nil
}

func (m *MemoryClient) table(name string) (*memoryTable, error) {
	table, ok := m.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("Requested resource not found: Table: %s not found", name)),
		}
	}
	return table, nil
}

func (t *memoryTable) get(key dynaread.Item) (dynaread.Item, bool, error) {
	id, err := t.identity(key)
	if err != nil {
		return nil, false, err
	}
	item, ok := t.items[id]
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(item), true, nil
}

// identity renders the primary key attributes of item as a string.
func (t *memoryTable) identity(item dynaread.Item) (string, error) {
	names := []string{t.schema.PartitionKey}
	if t.schema.SortKey != "" {
		names = append(names, t.schema.SortKey)
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		value, ok := item[name]
		if !ok {
			return "", validationException(fmt.Sprintf("The provided key element does not match the schema: missing %s", name))
		}
		parts = append(parts, scalarString(value))
	}

	return strings.Join(parts, "\x00"), nil
}

func scalarString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value
	case *types.AttributeValueMemberN:
		return "N:" + v.Value
	case *types.AttributeValueMemberB:
		return "B:" + string(v.Value)
	default:
		return fmt.Sprintf("%T", av)
	}
}

// project keeps the top-level attributes named by a projection expression.
func project(item dynaread.Item, projection string, names map[string]string) dynaread.Item {
	projected := make(dynaread.Item)
	for _, path := range strings.Split(projection, ",") {
		name := strings.TrimSpace(path)
		if resolved, ok := names[name]; ok {
			name = resolved
		}
		if value, ok := item[name]; ok {
			projected[name] = value
		}
	}
	return projected
}

func validationException(message string) error {
	return &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: message,
		Fault:   smithy.FaultClient,
	}
}
