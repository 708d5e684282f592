package dynaread

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// GetItem is a single-item lookup by key. It can be placed in a [ReadBatch]
// or bound to a [ReadTransaction].
type GetItem struct {
	Key            Key                           // The item key
	ConsistentRead *bool                         // Optional; ignored by transactional reads, which are always consistent
	Projection     *expression.ProjectionBuilder // Optional attributes to return; transactional reads only
}

// BatchKey implements BatchableRead.
func (g GetItem) BatchKey() (Key, error) {
	return g.Key, nil
}

// ReadConsistency implements BatchableRead.
func (g GetItem) ReadConsistency() *bool {
	return g.ConsistentRead
}

// MarshalTransactGet implements TransactReader.
func (g GetItem) MarshalTransactGet(table *Table, opCtx OperationContext) (types.TransactGetItem, error) {
	key, err := table.Schema.KeyMap(g.Key, opCtx.IndexName)
	if err != nil {
		return types.TransactGetItem{}, fmt.Errorf("failed to marshal key: %w", err)
	}

	get := &types.Get{
		TableName: aws.String(opCtx.TableName),
		Key:       key,
	}

	// Add projection if provided
	if g.Projection != nil {
		expr, err := expression.NewBuilder().WithProjection(*g.Projection).Build()
		if err != nil {
			return types.TransactGetItem{}, fmt.Errorf("failed to build expression: %w", err)
		}
		get.ProjectionExpression = expr.Projection()
		get.ExpressionAttributeNames = expr.Names()
	}

	return types.TransactGetItem{Get: get}, nil
}

// GetEntity is a single-item lookup whose key is rendered by the entity itself.
type GetEntity struct {
	Entity         KeyMarshaler                  // The entity to look up
	ConsistentRead *bool                         // Optional; ignored by transactional reads
	Projection     *expression.ProjectionBuilder // Optional attributes to return; transactional reads only
}

// BatchKey implements BatchableRead.
func (g GetEntity) BatchKey() (Key, error) {
	if g.Entity == nil {
		return Key{}, NewValidationError("Entity", "an entity is required")
	}

	key, err := g.Entity.MarshalKey()
	if err != nil {
		return Key{}, fmt.Errorf("failed to marshal entity key: %w", err)
	}

	return key, nil
}

// ReadConsistency implements BatchableRead.
func (g GetEntity) ReadConsistency() *bool {
	return g.ConsistentRead
}

// MarshalTransactGet implements TransactReader.
func (g GetEntity) MarshalTransactGet(table *Table, opCtx OperationContext) (types.TransactGetItem, error) {
	key, err := g.BatchKey()
	if err != nil {
		return types.TransactGetItem{}, err
	}

	return GetItem{Key: key, Projection: g.Projection}.MarshalTransactGet(table, opCtx)
}

// Ensure the read variants implement both read interfaces
var (
	_ BatchableRead  = GetItem{}
	_ TransactReader = GetItem{}
	_ BatchableRead  = GetEntity{}
	_ TransactReader = GetEntity{}
)
