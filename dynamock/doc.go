// Package dynamock provides testing utilities for the dynaread library.
//
// This package includes:
//   - Expectation-based mock DynamoDB client for unit testing
//   - In-memory DynamoDB stand-in answering batch and transactional reads
//   - Item and read builders with functional options
//   - JSON seed documents for memory and live tables
//   - Local DynamoDB integration utilities with automatic cleanup
//
// # Mock Client
//
// The MockClient provides an expectation-based mock implementation where you set
// expectations for specific operations:
//
//	mock := dynamock.NewMockClient(t)
//
//	// Answer the first read with nothing and the second with an item
//	mock.ExpectTransactGetItems(nil, nil, dynamock.NewItem(
//		dynamock.WithString("id", "C1"),
//	).Build())
//
//	client := dynaread.NewClient(mock)
//	results, err := client.TransactGetItems(ctx, req)
//
// Calls without an expectation fail the test.
//
// # Memory Client
//
// The MemoryClient stores items per table and answers reads the way DynamoDB
// does, including unprocessed keys when MaxBatchKeys is set:
//
//	mem := dynamock.NewMemoryClient().
//		CreateTable("Orders", dynaread.NewKeySchema("id"))
//	mem.MaxBatchKeys = 1
//
//	_, err := mem.SeedFromJSON(strings.NewReader(`{"Orders": [{"id": "O1"}, {"id": "O2"}]}`))
//
//	client := dynaread.NewClient(mem)
//	for page, err := range client.BatchGetItemPages(ctx, req) {
//		// two pages
//	}
//
// # Builders
//
//	item := dynamock.NewItem(
//		dynamock.WithString("id", "O1"),
//		dynamock.WithNumber("total", 42),
//	).Build()
//
//	batch := dynamock.Batch(orders, []any{"O1", "O2"}, dynamock.Consistent(true))
//
// # Local DynamoDB
//
// For integration testing, the package provides utilities to work with
// local DynamoDB instances:
//
//	local := dynamock.NewLocalDynamoDB(8000)
//	if local.IsAvailable(ctx) {
//		err := local.CreateTable(ctx, "orders", dynaread.NewKeySchema("id"))
//		// ... run tests
//		err = local.DeleteTable(ctx, "orders")
//	}
//
// RunIntegrationTest and WithIsolatedTable create a uniquely named table for
// the duration of a test:
//
//	dynamock.RunIntegrationTest(t, nil, dynaread.NewKeySchema("id"), func(local *dynamock.LocalDynamoDB, table *dynaread.Table) {
//		seeder := dynamock.NewSeedTestData(local.Client)
//		err := seeder.SeedValues(ctx, table.Name, order1, order2)
//	})
package dynamock
