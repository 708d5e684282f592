package dynaread

import (
	"context"
	"iter"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// BatchGetItemPages sends req and keeps requesting the keys the service left
// unprocessed, yielding one result page per call until no keys remain. A
// validation or transport error is yielded once and ends the sequence.
//
// Follow-up requests are sent immediately; throttling and backoff are left to
// the retryer of the underlying DynamoDB client.
func (c *Client) BatchGetItemPages(ctx context.Context, req *BatchGetRequest, optFns ...func(*dynamodb.Options)) iter.Seq2[*BatchGetResultPage, error] {
	return func(yield func(*BatchGetResultPage, error) bool) {
		input, err := req.MarshalRequest()
		if err != nil {
			yield(nil, err)
			return
		}

		tables := req.tables()

		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			out, err := c.batchGetItem(ctx, input, optFns...)
			if err != nil {
				yield(nil, err)
				return
			}

			result := newBatchGetResultPage(out, tables)
			if !yield(result, nil) {
				return
			}

			if !result.HasUnprocessedKeys() {
				return
			}

			c.logger.Debug().
				Str("operation", "BatchGetItem").
				Int("page", page).
				Msg("requesting unprocessed keys")

			input = &dynamodb.BatchGetItemInput{
				RequestItems:           out.UnprocessedKeys,
				ReturnConsumedCapacity: input.ReturnConsumedCapacity,
			}
		}
	}
}

// PageResult carries one page, or the error that ended a page stream.
type PageResult struct {
	Page *BatchGetResultPage
	Err  error
}

// BatchGetItemPageStream is the asynchronous form of BatchGetItemPages. Pages
// are delivered on the returned channel, which is closed after the last page
// or the first error. Cancelling ctx stops the stream.
func (c *Client) BatchGetItemPageStream(ctx context.Context, req *BatchGetRequest, optFns ...func(*dynamodb.Options)) <-chan PageResult {
	results := make(chan PageResult)

	go func() {
		defer close(results)
		for page, err := range c.BatchGetItemPages(ctx, req, optFns...) {
			select {
			case results <- PageResult{Page: page, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results
}

// CollectTableItems drains pages and returns every item read from table, in
// page order.
func CollectTableItems(pages iter.Seq2[*BatchGetResultPage, error], table *Table) ([]Item, error) {
	var items []Item
	for page, err := range pages {
		if err != nil {
			return nil, err
		}

		pageItems, err := page.ItemsForTable(table)
		if err != nil {
			return nil, err
		}

		items = append(items, pageItems...)
	}
	return items, nil
}
