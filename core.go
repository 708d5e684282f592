package dynaread

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// PrimaryIndexName is the index name used to address a table's primary key.
const PrimaryIndexName = "$PRIMARY_INDEX"

// Item is an alias for the dynamodb attribute value map.
type Item = map[string]types.AttributeValue

// Key identifies a single item within a table. SortValue is left nil for
// tables without a sort key.
type Key struct {
	PartitionValue any // Value of the partition (hash) key attribute
	SortValue      any // Value of the sort (range) key attribute, if any
}

// KeyMarshaler can marshal itself into the Key that identifies it.
type KeyMarshaler interface {
	// MarshalKey is invoked by [GetEntity] when rendering batch and
	// transactional reads.
	MarshalKey() (Key, error)
}

// Schema converts a logical Key into the wire-level key attributes of an index.
type Schema interface {
	KeyMap(key Key, indexName string) (Item, error)
}

// IndexKey names the key attributes of a single index.
type IndexKey struct {
	PartitionKey string `validate:"required"` // Partition key attribute name
	SortKey      string // Sort key attribute name; empty if the index has none
}

// KeySchema is a Schema built from attribute names. Key values are encoded
// with the attributevalue package, so any type it can marshal may be used
// as a key value.
type KeySchema struct {
	PartitionKey string              `validate:"required"` // Primary partition key attribute name
	SortKey      string              // Primary sort key attribute name
	Indexes      map[string]IndexKey `validate:"dive"` // Secondary indexes by name
}

// NewKeySchema creates a KeySchema for a table's primary index. The sortKey
// is optional.
func NewKeySchema(partitionKey string, sortKey ...string) *KeySchema {
	schema := &KeySchema{
		PartitionKey: partitionKey,
		Indexes:      make(map[string]IndexKey),
	}
	if len(sortKey) > 0 {
		schema.SortKey = sortKey[0]
	}
	return schema
}

// WithIndex registers the key attributes of a secondary index and returns
// the schema for method chaining.
func (s *KeySchema) WithIndex(name string, key IndexKey) *KeySchema {
	if s.Indexes == nil {
		s.Indexes = make(map[string]IndexKey)
	}
	s.Indexes[name] = key
	return s
}

// Validate checks that the schema names a partition key for every index.
func (s *KeySchema) Validate() error {
	if err := validate.Struct(s); err != nil {
		return validationFailure(err)
	}
	return nil
}

func (s *KeySchema) index(name string) (IndexKey, error) {
	if name == "" || name == PrimaryIndexName {
		return IndexKey{PartitionKey: s.PartitionKey, SortKey: s.SortKey}, nil
	}
	index, ok := s.Indexes[name]
	if !ok {
		return IndexKey{}, NewValidationError("IndexName", fmt.Sprintf("index %q is not defined by the schema", name))
	}
	return index, nil
}

// KeyMap implements Schema. It returns an error if the key does not carry
// exactly the values the index requires.
func (s *KeySchema) KeyMap(key Key, indexName string) (Item, error) {
	index, err := s.index(indexName)
	if err != nil {
		return nil, err
	}

	if key.PartitionValue == nil {
		return nil, NewValidationError("PartitionValue", "a partition value is required")
	}

	pk, err := attributevalue.Marshal(key.PartitionValue)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal partition value: %w", err)
	}

	item := Item{index.PartitionKey: pk}

	switch {
	case index.SortKey == "" && key.SortValue != nil:
		return nil, NewValidationError("SortValue", fmt.Sprintf("index %q has no sort key", indexName))
	case index.SortKey != "" && key.SortValue == nil:
		return nil, NewValidationError("SortValue", fmt.Sprintf("a value for sort key %q is required", index.SortKey))
	case index.SortKey != "":
		sk, err := attributevalue.Marshal(key.SortValue)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal sort value: %w", err)
		}
		item[index.SortKey] = sk
	}

	return item, nil
}

// OperationContext describes the table and index an operation addresses.
type OperationContext struct {
	TableName string
	IndexName string
}

// Extension hooks into every item read through a Table.
type Extension interface {
	// AfterRead is invoked with each item returned by the service. The returned
	// item replaces the original; returning the input unchanged is a no-op.
	AfterRead(opCtx OperationContext, item Item) (Item, error)
}

// ExtensionFunc adapts an ordinary function to the Extension interface.
type ExtensionFunc func(opCtx OperationContext, item Item) (Item, error)

// AfterRead implements Extension.
func (f ExtensionFunc) AfterRead(opCtx OperationContext, item Item) (Item, error) {
	return f(opCtx, item)
}

type extensionChain []Extension

func (c extensionChain) AfterRead(opCtx OperationContext, item Item) (Item, error) {
	var err error
	for _, ext := range c {
		if item, err = ext.AfterRead(opCtx, item); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// ChainExtensions returns an Extension that applies each of exts in order,
// feeding the output of one into the next.
func ChainExtensions(exts ...Extension) Extension {
	chain := make(extensionChain, 0, len(exts))
	for _, ext := range exts {
		if ext != nil {
			chain = append(chain, ext)
		}
	}
	return chain
}

// DynamoDBClient interface for easier testing and connection management.
// It is satisfied by *dynamodb.Client.
type DynamoDBClient interface {
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactGetItems(ctx context.Context, params *dynamodb.TransactGetItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactGetItemsOutput, error)
}
