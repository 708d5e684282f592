package dynamock

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynaread"
)

// DefaultLocalPort is the default port for DynamoDB Local.
const DefaultLocalPort = 8000

// LocalDynamoDB represents a connection to a local DynamoDB instance.
type LocalDynamoDB struct {
	Client   *dynamodb.Client
	Endpoint string
	Port     int
}

// NewLocalClient creates a DynamoDB client configured to connect to a local DynamoDB instance.
// This is useful for integration testing with DynamoDB Local.
//
// Example usage:
//
//	client := dynamock.NewLocalClient(8000)
//	reader := dynaread.NewClient(client)
func NewLocalClient(port int) *dynamodb.Client {
	cfg := aws.Config{
		Region:      "us-east-1", // DynamoDB Local doesn't care about region
		Credentials: aws.AnonymousCredentials{},
	}

	return NewLocalClientFromConfig(cfg, port)
}

// NewLocalClientFromConfig creates a local DynamoDB client using the provided AWS config.
// This allows for more customization than NewLocalClient.
func NewLocalClientFromConfig(cfg aws.Config, port int) *dynamodb.Client {
	endpoint := localEndpoint(port)

	// Use anonymous credentials for local testing
	cfg.Credentials = aws.AnonymousCredentials{}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// NewDefaultLocalClient creates a local DynamoDB client using the default port (8000).
func NewDefaultLocalClient() *dynamodb.Client {
	return NewLocalClient(DefaultLocalPort)
}

// NewLocalDynamoDB creates a LocalDynamoDB instance with the specified port.
// This provides additional utilities beyond just the client.
func NewLocalDynamoDB(port int) *LocalDynamoDB {
	return &LocalDynamoDB{
		Client:   NewLocalClient(port),
		Endpoint: localEndpoint(port),
		Port:     port,
	}
}

func localEndpoint(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// IsAvailable checks if DynamoDB Local is running on the configured port.
func (l *LocalDynamoDB) IsAvailable(ctx context.Context) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", l.Port), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()

	// Try to list tables to verify it's actually DynamoDB
	_, err = l.Client.ListTables(ctx, &dynamodb.ListTablesInput{})
	return err == nil
}

// WaitForAvailable waits for DynamoDB Local to become available.
// Returns an error if it doesn't become available within the timeout.
func (l *LocalDynamoDB) WaitForAvailable(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if l.IsAvailable(ctx) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}

	return fmt.Errorf("DynamoDB Local not available at %s after %v", l.Endpoint, timeout)
}

// TableOption configures the table created by CreateTable.
type TableOption func(*tableOptions)

type tableOptions struct {
	attributeTypes map[string]types.ScalarAttributeType
}

// WithAttributeType sets the type of a key attribute. Key attributes are
// strings unless configured otherwise.
func WithAttributeType(name string, attrType types.ScalarAttributeType) TableOption {
	return func(o *tableOptions) {
		o.attributeTypes[name] = attrType
	}
}

// CreateTableInput builds the input that creates a table with the key
// attributes of schema. Secondary indexes become global secondary indexes
// projecting all attributes. Tables are billed per request.
func CreateTableInput(tableName string, schema *dynaread.KeySchema, opts ...TableOption) (*dynamodb.CreateTableInput, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	options := tableOptions{attributeTypes: make(map[string]types.ScalarAttributeType)}
	for _, opt := range opts {
		opt(&options)
	}

	definitions := make(map[string]types.AttributeDefinition)
	keySchema := func(partitionKey, sortKey string) []types.KeySchemaElement {
		elements := []types.KeySchemaElement{
			{AttributeName: aws.String(partitionKey), KeyType: types.KeyTypeHash},
		}
		if sortKey != "" {
			elements = append(elements, types.KeySchemaElement{
				AttributeName: aws.String(sortKey),
				KeyType:       types.KeyTypeRange,
			})
		}

		for _, name := range []string{partitionKey, sortKey} {
			if name == "" {
				continue
			}
			attrType, ok := options.attributeTypes[name]
			if !ok {
				attrType = types.ScalarAttributeTypeS
			}
			definitions[name] = types.AttributeDefinition{
				AttributeName: aws.String(name),
				AttributeType: attrType,
			}
		}

		return elements
	}

	input := &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		KeySchema:   keySchema(schema.PartitionKey, schema.SortKey),
		BillingMode: types.BillingModePayPerRequest,
	}

	for _, indexName := range slices.Sorted(maps.Keys(schema.Indexes)) {
		index := schema.Indexes[indexName]
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName: aws.String(indexName),
			KeySchema: keySchema(index.PartitionKey, index.SortKey),
			Projection: &types.Projection{
				ProjectionType: types.ProjectionTypeAll,
			},
		})
	}

	for _, name := range slices.Sorted(maps.Keys(definitions)) {
		input.AttributeDefinitions = append(input.AttributeDefinitions, definitions[name])
	}

	return input, nil
}

// CreateTable creates a table with the key attributes of schema and waits for
// it to become active.
func (l *LocalDynamoDB) CreateTable(ctx context.Context, tableName string, schema *dynaread.KeySchema, opts ...TableOption) error {
	input, err := CreateTableInput(tableName, schema, opts...)
	if err != nil {
		return fmt.Errorf("invalid schema for table %s: %w", tableName, err)
	}

	_, err = l.Client.CreateTable(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	// Wait for table to become active
	return l.WaitForTableActive(ctx, tableName, 30*time.Second)
}

// WaitForTableActive waits for a table to become active.
func (l *LocalDynamoDB) WaitForTableActive(ctx context.Context, tableName string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		output, err := l.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			return fmt.Errorf("failed to describe table %s: %w", tableName, err)
		}

		if output.Table.TableStatus == types.TableStatusActive {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}

	return fmt.Errorf("table %s did not become active within %v", tableName, timeout)
}

// DeleteTable deletes a table and waits for it to be fully deleted.
func (l *LocalDynamoDB) DeleteTable(ctx context.Context, tableName string) error {
	_, err := l.Client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete table %s: %w", tableName, err)
	}

	return l.WaitForTableDeleted(ctx, tableName, 30*time.Second)
}

// WaitForTableDeleted waits for a table to be fully deleted.
func (l *LocalDynamoDB) WaitForTableDeleted(ctx context.Context, tableName string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		_, err := l.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})

		// If we get a ResourceNotFoundException, the table is deleted
		if err != nil {
			var notFoundErr *types.ResourceNotFoundException
			if errors.As(err, &notFoundErr) {
				return nil
			}
			return fmt.Errorf("error checking table deletion status: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}

	return fmt.Errorf("table %s was not deleted within %v", tableName, timeout)
}

// ListTables returns all table names in the local DynamoDB instance.
func (l *LocalDynamoDB) ListTables(ctx context.Context) ([]string, error) {
	output, err := l.Client.ListTables(ctx, &dynamodb.ListTablesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	return output.TableNames, nil
}
