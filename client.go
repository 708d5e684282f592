package dynaread

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
)

// ClientOptions contains configuration options for a Client.
type ClientOptions struct {
	Logger      zerolog.Logger                    // Structured logger; disabled by default
	LoadOptions []func(*config.LoadOptions) error // AWS config options used by NewClientFromConfig
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Logger = logger
	}
}

// WithLoadOptions appends AWS config load options, such as config.WithRegion.
func WithLoadOptions(loadOpts ...func(*config.LoadOptions) error) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.LoadOptions = append(o.LoadOptions, loadOpts...)
	}
}

func newClientOptions(opts []func(*ClientOptions)) ClientOptions {
	options := ClientOptions{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Client dispatches batch and transactional read requests through a
// DynamoDB client. It holds no state beyond its configuration and is safe for
// concurrent use if the underlying DynamoDBClient is.
type Client struct {
	api    DynamoDBClient
	logger zerolog.Logger
}

// NewClient creates a Client that sends requests through api.
func NewClient(api DynamoDBClient, opts ...func(*ClientOptions)) *Client {
	options := newClientOptions(opts)

	return &Client{
		api:    api,
		logger: options.Logger,
	}
}

// NewClientFromConfig creates a Client backed by a *dynamodb.Client built
// from the default AWS configuration chain (environment, shared config files,
// instance roles), adjusted by any [WithLoadOptions].
func NewClientFromConfig(ctx context.Context, opts ...func(*ClientOptions)) (*Client, error) {
	options := newClientOptions(opts)

	cfg, err := config.LoadDefaultConfig(ctx, options.LoadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewClient(dynamodb.NewFromConfig(cfg), opts...), nil
}

// BatchGetItem sends req as a single BatchGetItem call and returns the first
// result page. Keys the service leaves unprocessed are reported by the page;
// use BatchGetItemPages to follow them.
func (c *Client) BatchGetItem(ctx context.Context, req *BatchGetRequest, optFns ...func(*dynamodb.Options)) (*BatchGetResultPage, error) {
	page, err := Execute[dynamodb.BatchGetItemInput, dynamodb.BatchGetItemOutput, *BatchGetResultPage](
		ctx, req, c.batchGetItem, optFns...,
	)
	if err != nil {
		return nil, err
	}

	c.logPage(page)
	return page, nil
}

// BatchGetItemAsync is BatchGetItem returning a Future. Validation errors are
// returned immediately.
func (c *Client) BatchGetItemAsync(ctx context.Context, req *BatchGetRequest, optFns ...func(*dynamodb.Options)) (*Future[*BatchGetResultPage], error) {
	return ExecuteAsync[dynamodb.BatchGetItemInput, dynamodb.BatchGetItemOutput, *BatchGetResultPage](
		ctx, req, c.batchGetItem, optFns...,
	)
}

// TransactGetItems sends req as a single TransactGetItems call. The results
// are positionally aligned with req.Transactions. Transaction failures, such
// as a TransactionCanceledException, are returned as reported by the service.
func (c *Client) TransactGetItems(ctx context.Context, req *TransactGetRequest, optFns ...func(*dynamodb.Options)) ([]TransactResult, error) {
	return Execute[dynamodb.TransactGetItemsInput, dynamodb.TransactGetItemsOutput, []TransactResult](
		ctx, req, c.transactGetItems, optFns...,
	)
}

// TransactGetItemsAsync is TransactGetItems returning a Future. Validation
// errors are returned immediately.
func (c *Client) TransactGetItemsAsync(ctx context.Context, req *TransactGetRequest, optFns ...func(*dynamodb.Options)) (*Future[[]TransactResult], error) {
	return ExecuteAsync[dynamodb.TransactGetItemsInput, dynamodb.TransactGetItemsOutput, []TransactResult](
		ctx, req, c.transactGetItems, optFns...,
	)
}

func (c *Client) batchGetItem(ctx context.Context, input *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	keys := 0
	for _, ka := range input.RequestItems {
		keys += len(ka.Keys)
	}

	c.logger.Debug().
		Str("operation", "BatchGetItem").
		Int("tables", len(input.RequestItems)).
		Int("items", keys).
		Msg("dispatching request")

	out, err := c.api.BatchGetItem(ctx, input, optFns...)
	if err != nil {
		c.logger.Debug().Err(err).Str("operation", "BatchGetItem").Msg("request failed")
		return nil, err
	}

	return out, nil
}

func (c *Client) transactGetItems(ctx context.Context, input *dynamodb.TransactGetItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactGetItemsOutput, error) {
	c.logger.Debug().
		Str("operation", "TransactGetItems").
		Int("items", len(input.TransactItems)).
		Msg("dispatching request")

	out, err := c.api.TransactGetItems(ctx, input, optFns...)
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("operation", "TransactGetItems").
			Str("code", ErrorCode(err)).
			Msg("request failed")
		return nil, err
	}

	return out, nil
}

func (c *Client) logPage(page *BatchGetResultPage) {
	if !page.HasUnprocessedKeys() {
		return
	}

	unprocessed := 0
	for _, ka := range page.Output().UnprocessedKeys {
		unprocessed += len(ka.Keys)
	}

	c.logger.Warn().
		Str("operation", "BatchGetItem").
		Int("unprocessed", unprocessed).
		Msg("service left keys unprocessed")
}
