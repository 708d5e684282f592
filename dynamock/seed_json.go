package dynamock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/nisimpson/dynaread"
)

// SeedDocument maps table names to the items stored in them. Items are plain
// JSON objects:
//
//	{
//	  "Orders": [
//	    {"id": "O1", "customer": "C1", "total": 42}
//	  ]
//	}
//
// Strings, numbers, booleans, null, arrays and objects map to the matching
// DynamoDB types. Numbers are decoded as float64, so integers beyond 2^53 lose
// precision.
type SeedDocument map[string][]map[string]any

// DecodeSeedJSON parses a seed document and marshals every item into its
// attribute value form.
func DecodeSeedJSON(r io.Reader) (map[string][]dynaread.Item, error) {
	var document SeedDocument
	if err := json.NewDecoder(r).Decode(&document); err != nil {
		return nil, fmt.Errorf("failed to parse JSON document: %w", err)
	}

	data := make(map[string][]dynaread.Item, len(document))
	for _, tableName := range slices.Sorted(maps.Keys(document)) {
		if tableName == "" {
			return nil, fmt.Errorf("seed document has an empty table name")
		}

		items := make([]dynaread.Item, 0, len(document[tableName]))
		for i, object := range document[tableName] {
			item, err := attributevalue.MarshalMap(object)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal item %d of table %s: %w", i, tableName, err)
			}
			items = append(items, item)
		}
		data[tableName] = items
	}

	return data, nil
}

// SeedFromJSON stores the items of a seed document in the client tables.
// Returns the number of items stored.
func (m *MemoryClient) SeedFromJSON(r io.Reader) (int, error) {
	data, err := DecodeSeedJSON(r)
	if err != nil {
		return 0, err
	}

	if err := m.Seed(data); err != nil {
		return 0, err
	}

	return countItems(data), nil
}

// SeedFromJSON writes the items of a seed document into live tables.
// Returns the number of items written and any errors generated.
func (s *SeedTestData) SeedFromJSON(ctx context.Context, r io.Reader) (int, error) {
	data, err := DecodeSeedJSON(r)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, tableName := range slices.Sorted(maps.Keys(data)) {
		if err := s.SeedItems(ctx, tableName, data[tableName]...); err != nil {
			return count, fmt.Errorf("failed to seed table %s: %w", tableName, err)
		}
		count += len(data[tableName])
	}

	return count, nil
}

func countItems(data map[string][]dynaread.Item) int {
	count := 0
	for _, items := range data {
		count += len(items)
	}
	return count
}
