// Package assert provides fluent assertion utilities for testing DynamoDB read
// requests and results. It makes tests more readable and maintainable by
// providing expressive assertion methods.
//
// # Usage
//
//	import "github.com/nisimpson/dynaread/dynamock/assert"
//
//	// Assert on merged batch requests
//	assert.BatchGetInput(t, input).
//		HasTableCount(1).
//		Table("Orders").
//		IsConsistent().
//		HasKeysInOrder("id", "1", "2")
//
//	// Assert on transactional results
//	assert.TransactResults(t, results).
//		HasCount(2).
//		IsAbsent(0).
//		IsFound(1)
//
//	// Assert on items
//	assert.Items(t, items).
//		HasCount(3).
//		ContainsKey("id", "O1")
package assert

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynaread"
)

// ItemsAssertion provides fluent assertions for DynamoDB items.
type ItemsAssertion struct {
	t     *testing.T
	items []dynaread.Item
}

// Items creates a new ItemsAssertion for the given DynamoDB items.
func Items(t *testing.T, items []dynaread.Item) *ItemsAssertion {
	return &ItemsAssertion{
		t:     t,
		items: items,
	}
}

// HasCount asserts that the items collection has the expected count.
func (a *ItemsAssertion) HasCount(expected int) *ItemsAssertion {
	a.t.Helper()
	if len(a.items) != expected {
		a.t.Errorf("expected %d items, got %d", expected, len(a.items))
	}
	return a
}

// IsEmpty asserts that the items collection is empty.
func (a *ItemsAssertion) IsEmpty() *ItemsAssertion {
	a.t.Helper()
	return a.HasCount(0)
}

// IsNotEmpty asserts that the items collection is not empty.
func (a *ItemsAssertion) IsNotEmpty() *ItemsAssertion {
	a.t.Helper()
	if len(a.items) == 0 {
		a.t.Error("expected items to not be empty")
	}
	return a
}

// ContainsKey asserts that an item has the scalar attribute with the given value.
func (a *ItemsAssertion) ContainsKey(attributeName, expectedValue string) *ItemsAssertion {
	a.t.Helper()
	for _, item := range a.items {
		if scalar(item[attributeName]) == expectedValue {
			return a
		}
	}

	a.t.Errorf("expected to find item with %s=%s", attributeName, expectedValue)
	return a
}

// HasAttribute asserts that every item has the named attribute.
func (a *ItemsAssertion) HasAttribute(attributeName string) *ItemsAssertion {
	a.t.Helper()
	for i, item := range a.items {
		if _, ok := item[attributeName]; !ok {
			a.t.Errorf("item %d missing attribute %s", i, attributeName)
		}
	}
	return a
}

// HasKeysInOrder asserts that the scalar values of an attribute, read across
// the items, equal the expected values in order.
func (a *ItemsAssertion) HasKeysInOrder(attributeName string, expected ...string) *ItemsAssertion {
	a.t.Helper()
	got := make([]string, 0, len(a.items))
	for _, item := range a.items {
		got = append(got, scalar(item[attributeName]))
	}

	if fmt.Sprint(got) != fmt.Sprint(expected) {
		a.t.Errorf("expected %s values %v, got %v", attributeName, expected, got)
	}
	return a
}

// BatchGetInputAssertion provides fluent assertions for batch get item inputs.
type BatchGetInputAssertion struct {
	t     *testing.T
	input *dynamodb.BatchGetItemInput
}

// BatchGetInput creates a new BatchGetInputAssertion for the given input.
func BatchGetInput(t *testing.T, input *dynamodb.BatchGetItemInput) *BatchGetInputAssertion {
	t.Helper()
	if input == nil {
		t.Fatal("expected batch get item input, got nil")
	}
	return &BatchGetInputAssertion{
		t:     t,
		input: input,
	}
}

// HasTableCount asserts the number of tables in the request.
func (a *BatchGetInputAssertion) HasTableCount(expected int) *BatchGetInputAssertion {
	a.t.Helper()
	if len(a.input.RequestItems) != expected {
		a.t.Errorf("expected %d tables, got %d", expected, len(a.input.RequestItems))
	}
	return a
}

// Table returns assertions on the request item of the named table.
func (a *BatchGetInputAssertion) Table(tableName string) *KeysAndAttributesAssertion {
	a.t.Helper()
	ka, ok := a.input.RequestItems[tableName]
	if !ok {
		a.t.Errorf("expected request items for table %s", tableName)
	}
	return &KeysAndAttributesAssertion{
		t:         a.t,
		tableName: tableName,
		ka:        ka,
	}
}

// KeysAndAttributesAssertion provides fluent assertions for the request item
// of one table.
type KeysAndAttributesAssertion struct {
	t         *testing.T
	tableName string
	ka        types.KeysAndAttributes
}

// HasKeyCount asserts the number of keys requested from the table.
func (a *KeysAndAttributesAssertion) HasKeyCount(expected int) *KeysAndAttributesAssertion {
	a.t.Helper()
	if len(a.ka.Keys) != expected {
		a.t.Errorf("table %s: expected %d keys, got %d", a.tableName, expected, len(a.ka.Keys))
	}
	return a
}

// HasKeysInOrder asserts the values of a key attribute across the requested
// keys, in order.
func (a *KeysAndAttributesAssertion) HasKeysInOrder(attributeName string, expected ...string) *KeysAndAttributesAssertion {
	a.t.Helper()
	Items(a.t, a.ka.Keys).HasKeysInOrder(attributeName, expected...)
	return a
}

// IsConsistent asserts that 'ConsistentRead' is set to true.
func (a *KeysAndAttributesAssertion) IsConsistent() *KeysAndAttributesAssertion {
	a.t.Helper()
	return a.hasConsistency(aws.Bool(true))
}

// IsEventuallyConsistent asserts that 'ConsistentRead' is set to false.
func (a *KeysAndAttributesAssertion) IsEventuallyConsistent() *KeysAndAttributesAssertion {
	a.t.Helper()
	return a.hasConsistency(aws.Bool(false))
}

// HasUnsetConsistency asserts that 'ConsistentRead' is not set.
func (a *KeysAndAttributesAssertion) HasUnsetConsistency() *KeysAndAttributesAssertion {
	a.t.Helper()
	return a.hasConsistency(nil)
}

func (a *KeysAndAttributesAssertion) hasConsistency(expected *bool) *KeysAndAttributesAssertion {
	a.t.Helper()
	if flag(a.ka.ConsistentRead) != flag(expected) {
		a.t.Errorf("table %s: expected ConsistentRead %s, got %s", a.tableName, flag(expected), flag(a.ka.ConsistentRead))
	}
	return a
}

// TransactResultsAssertion provides fluent assertions for transactional results.
type TransactResultsAssertion struct {
	t       *testing.T
	results []dynaread.TransactResult
}

// TransactResults creates a new TransactResultsAssertion for the given results.
func TransactResults(t *testing.T, results []dynaread.TransactResult) *TransactResultsAssertion {
	return &TransactResultsAssertion{
		t:       t,
		results: results,
	}
}

// HasCount asserts the number of results.
func (a *TransactResultsAssertion) HasCount(expected int) *TransactResultsAssertion {
	a.t.Helper()
	if len(a.results) != expected {
		a.t.Errorf("expected %d results, got %d", expected, len(a.results))
	}
	return a
}

// IsAbsent asserts that the read at position i found no item.
func (a *TransactResultsAssertion) IsAbsent(i int) *TransactResultsAssertion {
	a.t.Helper()
	if result, ok := a.at(i); ok && result.Found() {
		a.t.Errorf("expected result %d to be absent, got %v", i, result.Item)
	}
	return a
}

// IsFound asserts that the read at position i found an item.
func (a *TransactResultsAssertion) IsFound(i int) *TransactResultsAssertion {
	a.t.Helper()
	if result, ok := a.at(i); ok && !result.Found() {
		a.t.Errorf("expected result %d to be found", i)
	}
	return a
}

// HasAttribute asserts that the item at position i has the scalar attribute
// with the given value.
func (a *TransactResultsAssertion) HasAttribute(i int, attributeName, expectedValue string) *TransactResultsAssertion {
	a.t.Helper()
	result, ok := a.at(i)
	if !ok {
		return a
	}
	if got := scalar(result.Item[attributeName]); got != expectedValue {
		a.t.Errorf("result %d: expected %s=%s, got %q", i, attributeName, expectedValue, got)
	}
	return a
}

func (a *TransactResultsAssertion) at(i int) (dynaread.TransactResult, bool) {
	a.t.Helper()
	if i < 0 || i >= len(a.results) {
		a.t.Errorf("no result at position %d of %d", i, len(a.results))
		return dynaread.TransactResult{}, false
	}
	return a.results[i], true
}

// DynamoDBItemAssertion provides fluent assertions for individual DynamoDB items.
type DynamoDBItemAssertion struct {
	t    *testing.T
	item dynaread.Item
}

// DynamoDBItem creates a new DynamoDBItemAssertion for the given item.
func DynamoDBItem(t *testing.T, item dynaread.Item) *DynamoDBItemAssertion {
	return &DynamoDBItemAssertion{
		t:    t,
		item: item,
	}
}

// HasKey asserts that the item has the specified string attribute with the expected value.
func (a *DynamoDBItemAssertion) HasKey(keyName, expectedValue string) *DynamoDBItemAssertion {
	a.t.Helper()
	if attr, exists := a.item[keyName]; !exists {
		a.t.Errorf("item missing key %s", keyName)
	} else if attrStr, ok := attr.(*types.AttributeValueMemberS); !ok {
		a.t.Errorf("key %s is not a string", keyName)
	} else if attrStr.Value != expectedValue {
		a.t.Errorf("key %s expected %s, got %s", keyName, expectedValue, attrStr.Value)
	}
	return a
}

// HasNumber asserts that the item has the specified number attribute with the expected value.
func (a *DynamoDBItemAssertion) HasNumber(attrName, expectedValue string) *DynamoDBItemAssertion {
	a.t.Helper()
	if attr, exists := a.item[attrName]; !exists {
		a.t.Errorf("item missing attribute %s", attrName)
	} else if attrNum, ok := attr.(*types.AttributeValueMemberN); !ok {
		a.t.Errorf("attribute %s is not a number", attrName)
	} else if attrNum.Value != expectedValue {
		a.t.Errorf("attribute %s expected %s, got %s", attrName, expectedValue, attrNum.Value)
	}
	return a
}

// HasAttribute asserts that the item has the specified attribute.
func (a *DynamoDBItemAssertion) HasAttribute(attrName string) *DynamoDBItemAssertion {
	a.t.Helper()
	if _, exists := a.item[attrName]; !exists {
		a.t.Errorf("item missing attribute %s", attrName)
	}
	return a
}

// HasNoAttribute asserts that the item does not have the specified attribute.
func (a *DynamoDBItemAssertion) HasNoAttribute(attrName string) *DynamoDBItemAssertion {
	a.t.Helper()
	if _, exists := a.item[attrName]; exists {
		a.t.Errorf("item has unexpected attribute %s", attrName)
	}
	return a
}

// scalar renders a string or number attribute value.
func scalar(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		return ""
	}
}

func flag(b *bool) string {
	if b == nil {
		return "unset"
	}
	return fmt.Sprint(*b)
}
