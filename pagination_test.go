package dynaread

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func newPagedRequest(table *Table, ids ...string) *BatchGetRequest {
	reads := make([]BatchableRead, 0, len(ids))
	for _, id := range ids {
		reads = append(reads, GetItem{Key: Key{PartitionValue: id}})
	}
	return &BatchGetRequest{
		Batches:                []ReadBatch{table.ReadBatch(reads...)},
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
}

func TestBatchGetItemPages(t *testing.T) {
	orders := newOrdersTable()

	mock := newMockDynamoDBClient()
	for _, id := range []string{"1", "2", "3"} {
		mock.put("Orders", orderItem(id, "C"+id), "id")
	}
	mock.unprocessed = 2

	client := NewClient(mock)

	var pages int
	var ids []string
	for page, err := range client.BatchGetItemPages(context.Background(), newPagedRequest(orders, "1", "2", "3")) {
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		pages++

		items, err := page.ItemsForTable(orders)
		if err != nil {
			t.Fatalf("Failed to get items: %v", err)
		}
		for _, item := range items {
			ids = append(ids, stringAttr(t, item, "id"))
		}
	}

	if pages != 2 {
		t.Errorf("Expected 2 pages, got %d", pages)
	}
	if len(ids) != 3 {
		t.Errorf("Expected 3 items, got %v", ids)
	}

	if len(mock.batchInputs) != 2 {
		t.Fatalf("Expected 2 calls, got %d", len(mock.batchInputs))
	}
	followUp := mock.batchInputs[1]
	if got := keyIDs(t, followUp.RequestItems["Orders"].Keys); !slices.Equal(got, []string{"2", "3"}) {
		t.Errorf("Expected follow-up keys [2 3], got %v", got)
	}
	if followUp.ReturnConsumedCapacity != types.ReturnConsumedCapacityTotal {
		t.Errorf("Expected consumed capacity to carry over, got %s", followUp.ReturnConsumedCapacity)
	}
}

func TestBatchGetItemPagesConsistencyCarriesOver(t *testing.T) {
	orders := newOrdersTable()

	mock := newMockDynamoDBClient()
	mock.unprocessed = 1

	req := &BatchGetRequest{
		Batches: []ReadBatch{
			orders.ReadBatch(
				GetItem{Key: Key{PartitionValue: "1"}, ConsistentRead: aws.Bool(true)},
				GetItem{Key: Key{PartitionValue: "2"}},
			),
		},
	}

	for _, err := range NewClient(mock).BatchGetItemPages(context.Background(), req) {
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if len(mock.batchInputs) != 2 {
		t.Fatalf("Expected 2 calls, got %d", len(mock.batchInputs))
	}
	if !aws.ToBool(mock.batchInputs[1].RequestItems["Orders"].ConsistentRead) {
		t.Error("Expected follow-up request to stay consistent")
	}
}

func TestBatchGetItemPagesErrors(t *testing.T) {
	orders := newOrdersTable()

	t.Run("validation error", func(t *testing.T) {
		mock := newMockDynamoDBClient()

		var errs []error
		for page, err := range NewClient(mock).BatchGetItemPages(context.Background(), &BatchGetRequest{}) {
			if page != nil {
				t.Error("Expected no page")
			}
			errs = append(errs, err)
		}

		if len(errs) != 1 || !IsValidationError(errs[0]) {
			t.Errorf("Expected a single validation error, got %v", errs)
		}
		if len(mock.batchInputs) != 0 {
			t.Error("Expected no request to be sent")
		}
	})

	t.Run("service error", func(t *testing.T) {
		errService := errors.New("throttled")
		mock := newMockDynamoDBClient()
		mock.err = errService

		var errs []error
		for _, err := range NewClient(mock).BatchGetItemPages(context.Background(), newPagedRequest(orders, "1")) {
			errs = append(errs, err)
		}

		if len(errs) != 1 || !errors.Is(errs[0], errService) {
			t.Errorf("Expected the service error, got %v", errs)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		mock := newMockDynamoDBClient()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var errs []error
		for _, err := range NewClient(mock).BatchGetItemPages(ctx, newPagedRequest(orders, "1")) {
			errs = append(errs, err)
		}

		if len(errs) != 1 || !errors.Is(errs[0], context.Canceled) {
			t.Errorf("Expected context cancellation, got %v", errs)
		}
		if len(mock.batchInputs) != 0 {
			t.Error("Expected no request to be sent")
		}
	})

	t.Run("stop early", func(t *testing.T) {
		mock := newMockDynamoDBClient()
		mock.unprocessed = 1

		for range NewClient(mock).BatchGetItemPages(context.Background(), newPagedRequest(orders, "1", "2")) {
			break
		}

		if len(mock.batchInputs) != 1 {
			t.Errorf("Expected 1 call, got %d", len(mock.batchInputs))
		}
	})
}

func TestBatchGetItemPageStream(t *testing.T) {
	orders := newOrdersTable()

	mock := newMockDynamoDBClient()
	mock.put("Orders", orderItem("1", "C1"), "id")
	mock.put("Orders", orderItem("2", "C2"), "id")
	mock.unprocessed = 1

	var pages int
	for result := range NewClient(mock).BatchGetItemPageStream(context.Background(), newPagedRequest(orders, "1", "2")) {
		if result.Err != nil {
			t.Fatalf("Unexpected error: %v", result.Err)
		}
		pages++
	}

	if pages != 2 {
		t.Errorf("Expected 2 pages, got %d", pages)
	}
}

func TestCollectTableItems(t *testing.T) {
	orders := newOrdersTable()
	customers := NewTable("Customers", NewKeySchema("id"))

	mock := newMockDynamoDBClient()
	mock.put("Orders", orderItem("1", "C1"), "id")
	mock.put("Orders", orderItem("2", "C2"), "id")
	mock.put("Customers", Item{"id": &types.AttributeValueMemberS{Value: "C1"}}, "id")
	mock.unprocessed = 1

	client := NewClient(mock)
	req := &BatchGetRequest{
		Batches: []ReadBatch{
			orders.ReadBatch(GetItem{Key: Key{PartitionValue: "1"}}, GetItem{Key: Key{PartitionValue: "2"}}),
			customers.ReadBatch(GetItem{Key: Key{PartitionValue: "C1"}}),
		},
	}

	items, err := CollectTableItems(client.BatchGetItemPages(context.Background(), req), orders)
	if err != nil {
		t.Fatalf("Failed to collect items: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 orders, got %d", len(items))
	}

	t.Run("error", func(t *testing.T) {
		mock := newMockDynamoDBClient()
		mock.err = errors.New("boom")

		_, err := CollectTableItems(NewClient(mock).BatchGetItemPages(context.Background(), req), orders)
		if err == nil {
			t.Error("Expected error")
		}
	})
}
