package dynamock

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynaread"
)

const seedDocument = `{
	"Orders": [
		{"id": "O1", "customer": "C1", "total": 42, "paid": true},
		{"id": "O2", "customer": "C2", "tags": ["gift"], "address": {"city": "Austin"}}
	],
	"LineItems": [
		{"order_id": "O1", "line": 1, "sku": "SKU-1", "note": null}
	]
}`

func TestDecodeSeedJSON(t *testing.T) {
	data, err := DecodeSeedJSON(strings.NewReader(seedDocument))
	if err != nil {
		t.Fatalf("DecodeSeedJSON failed: %v", err)
	}

	if len(data) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(data))
	}
	if len(data["Orders"]) != 2 {
		t.Errorf("expected 2 orders, got %d", len(data["Orders"]))
	}

	order := data["Orders"][0]
	if v, ok := order["total"].(*types.AttributeValueMemberN); !ok || v.Value != "42" {
		t.Errorf("expected total N 42, got %v", order["total"])
	}
	if v, ok := order["paid"].(*types.AttributeValueMemberBOOL); !ok || !v.Value {
		t.Errorf("expected paid BOOL true, got %v", order["paid"])
	}

	second := data["Orders"][1]
	if _, ok := second["tags"].(*types.AttributeValueMemberL); !ok {
		t.Errorf("expected tags list, got %T", second["tags"])
	}
	if _, ok := second["address"].(*types.AttributeValueMemberM); !ok {
		t.Errorf("expected address map, got %T", second["address"])
	}

	line := data["LineItems"][0]
	if _, ok := line["note"].(*types.AttributeValueMemberNULL); !ok {
		t.Errorf("expected note NULL, got %T", line["note"])
	}
}

func TestDecodeSeedJSON_Errors(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{"invalid JSON", `{"Orders": [`},
		{"not an object", `[{"id": "O1"}]`},
		{"items not objects", `{"Orders": ["O1"]}`},
		{"empty table name", `{"": [{"id": "O1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSeedJSON(strings.NewReader(tt.document)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMemoryClient_SeedFromJSON(t *testing.T) {
	orders := dynaread.NewTable("Orders", dynaread.NewKeySchema("id"))
	lines := dynaread.NewTable("LineItems", dynaread.NewKeySchema("order_id", "line"))

	mem := NewMemoryClient().
		CreateTable(orders.Name, dynaread.NewKeySchema("id")).
		CreateTable(lines.Name, dynaread.NewKeySchema("order_id", "line"))

	count, err := mem.SeedFromJSON(strings.NewReader(seedDocument))
	if err != nil {
		t.Fatalf("SeedFromJSON failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 items seeded, got %d", count)
	}

	results, err := dynaread.NewClient(mem).TransactGetItems(context.Background(), &dynaread.TransactGetRequest{
		Transactions: []dynaread.ReadTransaction{
			orders.ReadTransaction(Get("O2", nil)),
			lines.ReadTransaction(Get("O1", 1)),
		},
	})
	if err != nil {
		t.Fatalf("TransactGetItems failed: %v", err)
	}

	for i, result := range results {
		if !result.Found() {
			t.Errorf("expected result %d to be found", i)
		}
	}

	t.Run("unknown table", func(t *testing.T) {
		_, err := NewMemoryClient().SeedFromJSON(strings.NewReader(`{"Missing": [{"id": "1"}]}`))
		if dynaread.ErrorCode(err) != "ResourceNotFoundException" {
			t.Errorf("expected ResourceNotFoundException, got %v", err)
		}
	})
}
