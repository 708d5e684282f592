package dynamock

import (
	"fmt"
	"maps"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynaread"
)

// ItemOption is a functional option for configuring items during building.
type ItemOption func(*ItemBuilder)

// ItemBuilder builds DynamoDB items through functional options.
type ItemBuilder struct {
	item dynaread.Item
	errs []error
}

// NewItem creates a new item builder with the given options applied.
func NewItem(opts ...ItemOption) *ItemBuilder {
	builder := &ItemBuilder{
		item: make(dynaread.Item),
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder
}

// With applies more options to the builder.
func (b *ItemBuilder) With(opts ...ItemOption) *ItemBuilder {
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns a copy of the item. It panics if a value could not be
// marshaled; use BuildE in code that should handle the error.
func (b *ItemBuilder) Build() dynaread.Item {
	item, err := b.BuildE()
	if err != nil {
		panic(err)
	}
	return item
}

// BuildE returns a copy of the item, or the first marshaling error.
func (b *ItemBuilder) BuildE() (dynaread.Item, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	return maps.Clone(b.item), nil
}

// Functional Options

// WithString sets a string attribute.
func WithString(name, value string) ItemOption {
	return func(b *ItemBuilder) {
		b.item[name] = &types.AttributeValueMemberS{Value: value}
	}
}

// WithNumber sets a number attribute.
func WithNumber(name string, value int) ItemOption {
	return func(b *ItemBuilder) {
		b.item[name] = &types.AttributeValueMemberN{Value: fmt.Sprint(value)}
	}
}

// WithBool sets a boolean attribute.
func WithBool(name string, value bool) ItemOption {
	return func(b *ItemBuilder) {
		b.item[name] = &types.AttributeValueMemberBOOL{Value: value}
	}
}

// WithAttribute sets an attribute to any value the attributevalue package can
// marshal.
func WithAttribute(name string, value any) ItemOption {
	return func(b *ItemBuilder) {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("failed to marshal attribute %s: %w", name, err))
			return
		}
		b.item[name] = av
	}
}

// WithValue merges the attributes of a struct or map value into the item.
func WithValue(value any) ItemOption {
	return func(b *ItemBuilder) {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("failed to marshal value: %w", err))
			return
		}
		m, ok := av.(*types.AttributeValueMemberM)
		if !ok {
			b.errs = append(b.errs, fmt.Errorf("value of type %T does not marshal to a map", value))
			return
		}
		maps.Copy(b.item, m.Value)
	}
}

// WithKey sets the key attributes of key as mapped by schema on its primary
// index.
func WithKey(schema dynaread.Schema, key dynaread.Key) ItemOption {
	return func(b *ItemBuilder) {
		keyMap, err := schema.KeyMap(key, dynaread.PrimaryIndexName)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("failed to build key: %w", err))
			return
		}
		maps.Copy(b.item, keyMap)
	}
}

// Without removes an attribute.
func Without(name string) ItemOption {
	return func(b *ItemBuilder) {
		delete(b.item, name)
	}
}

// Reads

// ReadOption configures a dynaread.GetItem.
type ReadOption func(*dynaread.GetItem)

// Consistent sets the 'ConsistentRead' preference of the read.
func Consistent(consistent bool) ReadOption {
	return func(g *dynaread.GetItem) {
		g.ConsistentRead = &consistent
	}
}

// Get creates a GetItem for the item identified by a partition value and an
// optional sort value.
func Get(partitionValue any, sortValue any, opts ...ReadOption) dynaread.GetItem {
	read := dynaread.GetItem{
		Key: dynaread.Key{PartitionValue: partitionValue, SortValue: sortValue},
	}
	for _, opt := range opts {
		opt(&read)
	}
	return read
}

// Batch creates a ReadBatch of GetItem reads for table, one per partition
// value, each configured with opts.
func Batch(table *dynaread.Table, partitionValues []any, opts ...ReadOption) dynaread.ReadBatch {
	reads := make([]dynaread.BatchableRead, 0, len(partitionValues))
	for _, pv := range partitionValues {
		reads = append(reads, Get(pv, nil, opts...))
	}
	return table.ReadBatch(reads...)
}
