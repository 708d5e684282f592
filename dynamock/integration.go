package dynamock

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynaread"
)

// maxBatchWriteItems is the BatchWriteItem request limit.
const maxBatchWriteItems = 25

// TableManager manages DynamoDB tables for testing, providing automatic cleanup.
type TableManager struct {
	local  *LocalDynamoDB
	tables []string // track created tables for cleanup
}

// NewTableManager creates a new table manager with the given DynamoDB client.
func NewTableManager(client *dynamodb.Client) *TableManager {
	return &TableManager{
		local:  &LocalDynamoDB{Client: client},
		tables: make([]string, 0),
	}
}

// CreateTestTable creates a table with the key attributes of schema and
// tracks it for cleanup. It returns the dynaread table addressing it.
func (tm *TableManager) CreateTestTable(ctx context.Context, tableName string, schema *dynaread.KeySchema, opts ...TableOption) (*dynaread.Table, error) {
	if err := tm.local.CreateTable(ctx, tableName, schema, opts...); err != nil {
		return nil, err
	}

	tm.tables = append(tm.tables, tableName)
	return dynaread.NewTable(tableName, schema), nil
}

// Cleanup deletes all tables created by this manager.
func (tm *TableManager) Cleanup(ctx context.Context) error {
	for _, tableName := range tm.tables {
		if err := tm.local.DeleteTable(ctx, tableName); err != nil {
			return fmt.Errorf("failed to delete table %s: %w", tableName, err)
		}
	}

	tm.tables = tm.tables[:0]
	return nil
}

// GetTableNames returns the names of all tables managed by this manager.
func (tm *TableManager) GetTableNames() []string {
	names := make([]string, len(tm.tables))
	copy(names, tm.tables)
	return names
}

// WithIsolatedTable runs a test function with an isolated table that is automatically cleaned up.
// The table name is generated to be unique for the test.
func WithIsolatedTable(t *testing.T, client *dynamodb.Client, schema *dynaread.KeySchema, fn func(table *dynaread.Table)) {
	ctx := context.Background()
	tableName := NewTestTable("test-" + strings.ReplaceAll(t.Name(), "/", "-"))

	tm := NewTableManager(client)

	// Ensure cleanup happens even if test panics
	defer func() {
		if err := tm.Cleanup(ctx); err != nil {
			t.Errorf("Failed to cleanup table %s: %v", tableName, err)
		}
	}()

	table, err := tm.CreateTestTable(ctx, tableName, schema)
	if err != nil {
		t.Fatalf("Failed to create test table %s: %v", tableName, err)
	}

	fn(table)
}

// WithLocalDynamoDB runs a test function with a local DynamoDB instance.
// It checks if DynamoDB Local is available and skips the test if not.
func WithLocalDynamoDB(t *testing.T, port int, fn func(local *LocalDynamoDB)) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	local := NewLocalDynamoDB(port)

	if !local.IsAvailable(context.Background()) {
		t.Skipf("DynamoDB Local not available on port %d", port)
	}

	fn(local)
}

// WithDefaultLocalDynamoDB runs a test function with the default local DynamoDB instance (port 8000).
func WithDefaultLocalDynamoDB(t *testing.T, fn func(local *LocalDynamoDB)) {
	WithLocalDynamoDB(t, DefaultLocalPort, fn)
}

// NewTestTable generates a unique table name for testing.
func NewTestTable(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// SeedTestData is a helper for seeding test data into live tables.
type SeedTestData struct {
	client *dynamodb.Client
}

// NewSeedTestData creates a new test data seeder.
func NewSeedTestData(client *dynamodb.Client) *SeedTestData {
	return &SeedTestData{client: client}
}

// SeedItems writes items into a table, in BatchWriteItem requests of up to
// 25 items. Items left unprocessed by the service are resubmitted.
func (s *SeedTestData) SeedItems(ctx context.Context, tableName string, items ...dynaread.Item) error {
	for _, chunk := range WriteRequestChunks(tableName, items) {
		pending := chunk
		for len(pending) > 0 {
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: pending,
			})
			if err != nil {
				return fmt.Errorf("failed to batch write: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

// SeedValues marshals each value with the attributevalue package and writes
// the items into a table.
func (s *SeedTestData) SeedValues(ctx context.Context, tableName string, values ...any) error {
	items := make([]dynaread.Item, 0, len(values))
	for i, value := range values {
		item, err := attributevalue.MarshalMap(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value %d: %w", i, err)
		}
		items = append(items, item)
	}
	return s.SeedItems(ctx, tableName, items...)
}

// WriteRequestChunks splits items into BatchWriteItem request items of at
// most 25 put requests each.
func WriteRequestChunks(tableName string, items []dynaread.Item) []map[string][]types.WriteRequest {
	var chunks []map[string][]types.WriteRequest
	for start := 0; start < len(items); start += maxBatchWriteItems {
		end := min(start+maxBatchWriteItems, len(items))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}
		chunks = append(chunks, map[string][]types.WriteRequest{tableName: requests})
	}
	return chunks
}

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	Port             int
	SkipIfNotRunning bool
	TablePrefix      string
	CleanupTimeout   time.Duration
}

// DefaultIntegrationTestConfig returns a default configuration for integration tests.
func DefaultIntegrationTestConfig() *IntegrationTestConfig {
	return &IntegrationTestConfig{
		Port:             DefaultLocalPort,
		SkipIfNotRunning: true,
		TablePrefix:      "integration-test",
		CleanupTimeout:   30 * time.Second,
	}
}

// RunIntegrationTest creates a table with the key attributes of schema on
// DynamoDB Local, runs fn and deletes the table.
func RunIntegrationTest(t *testing.T, config *IntegrationTestConfig, schema *dynaread.KeySchema, fn func(local *LocalDynamoDB, table *dynaread.Table)) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	if config == nil {
		config = DefaultIntegrationTestConfig()
	}

	local := NewLocalDynamoDB(config.Port)
	ctx := context.Background()

	if !local.IsAvailable(ctx) {
		if config.SkipIfNotRunning {
			t.Skipf("DynamoDB Local not available on port %d", config.Port)
		} else {
			t.Fatalf("DynamoDB Local not available on port %d", config.Port)
		}
	}

	tableName := NewTestTable(config.TablePrefix)

	if err := local.CreateTable(ctx, tableName, schema); err != nil {
		t.Fatalf("Failed to create test table %s: %v", tableName, err)
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), config.CleanupTimeout)
		defer cancel()

		if err := local.DeleteTable(cleanupCtx, tableName); err != nil {
			t.Errorf("Failed to cleanup table %s: %v", tableName, err)
		}
	}()

	fn(local, dynaread.NewTable(tableName, schema))
}

// AssertTableExists verifies that a table exists.
func AssertTableExists(t *testing.T, client *dynamodb.Client, tableName string) {
	_, err := client.DescribeTable(context.Background(), &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})

	if err != nil {
		t.Errorf("Table %s does not exist: %v", tableName, err)
	}
}

// AssertTableNotExists verifies that a table does not exist.
func AssertTableNotExists(t *testing.T, client *dynamodb.Client, tableName string) {
	_, err := client.DescribeTable(context.Background(), &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})

	if err == nil {
		t.Errorf("Table %s should not exist but it does", tableName)
	}
}
