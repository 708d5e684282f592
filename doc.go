// Package dynaread builds DynamoDB batch and transactional read requests
// over the AWS SDK for Go v2 DynamoDB client.
//
// The library turns logical read intents, each addressed to a [Table], into
// the fewest possible BatchGetItem or TransactGetItems requests, and turns the
// raw responses back into results correlated to the tables and reads that
// produced them.
//
// # Key Concepts
//
// A [Table] pairs a table name with a [Schema] that converts a logical [Key]
// into key attributes. [KeySchema] is a Schema built from attribute names:
//
//	orders := dynaread.NewTable("orders", dynaread.NewKeySchema("id"))
//
// Reads are values implementing [BatchableRead] and/or [TransactReader].
// [GetItem] looks up an item by key; [GetEntity] lets a domain object that
// implements [KeyMarshaler] render its own key.
//
// # Batch Reads
//
// A [BatchGetRequest] groups reads per table in [ReadBatch] values. Batches
// addressed to the same table are merged into one request item, keys in
// submission order. DynamoDB accepts a single 'ConsistentRead' setting per
// table, so reads for a table must agree on it: an unset setting defers to an
// explicit one, and two different explicit settings fail the request with a
// [*ConsistencyConflictError] before anything is sent.
//
//	req := &dynaread.BatchGetRequest{
//	    Batches: []dynaread.ReadBatch{
//	        orders.ReadBatch(dynaread.GetItem{Key: dynaread.Key{PartitionValue: "1"}, ConsistentRead: aws.Bool(true)}),
//	        orders.ReadBatch(dynaread.GetItem{Key: dynaread.Key{PartitionValue: "2"}}),
//	    },
//	}
//	input, err := req.MarshalRequest()
//
// # Transactional Reads
//
// A [TransactGetRequest] submits one transact item per [ReadTransaction], in
// order. Its results are positionally aligned with the submitted reads; a
// read that matched nothing yields a [TransactResult] whose Found method
// returns false.
//
//	req := &dynaread.TransactGetRequest{
//	    Transactions: []dynaread.ReadTransaction{
//	        orders.ReadTransaction(dynaread.GetItem{Key: dynaread.Key{PartitionValue: "1"}}),
//	        customers.ReadTransaction(dynaread.GetItem{Key: dynaread.Key{PartitionValue: "C1"}}),
//	    },
//	}
//
// # Dispatch
//
// Requests implement [Operation] and perform no I/O. They can be used on
// their own with any DynamoDB client, executed with [Execute] or
// [ExecuteAsync], or sent through a [Client]:
//
//	client := dynaread.NewClient(ddb, dynaread.WithLogger(logger))
//	page, err := client.BatchGetItem(ctx, req)
//	for page, err := range client.BatchGetItemPages(ctx, req) {
//	    // follows unprocessed keys
//	}
//
// Errors returned by DynamoDB are passed through unchanged; retries are left
// to the SDK retryer.
package dynaread
