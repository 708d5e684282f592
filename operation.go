package dynaread

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ServiceCall is a DynamoDB API invocation, such as the BatchGetItem method
// value of a *dynamodb.Client.
type ServiceCall[In, Out any] = func(context.Context, *In, ...func(*dynamodb.Options)) (*Out, error)

// Operation marshals a logical request into a service input, and transforms
// the service output into a result. Operations perform no I/O themselves.
type Operation[In, Out, R any] interface {
	MarshalRequest() (*In, error)
	TransformResponse(*Out) (R, error)
}

// Ensure the requests implement Operation
var (
	_ Operation[dynamodb.BatchGetItemInput, dynamodb.BatchGetItemOutput, *BatchGetResultPage] = (*BatchGetRequest)(nil)
	_ Operation[dynamodb.TransactGetItemsInput, dynamodb.TransactGetItemsOutput, []TransactResult] = (*TransactGetRequest)(nil)
)

// Execute marshals op, invokes call with the input and transforms the output.
// Marshaling errors are returned before call is invoked. Errors returned by
// call are passed through unchanged.
func Execute[In, Out, R any](ctx context.Context, op Operation[In, Out, R], call ServiceCall[In, Out], optFns ...func(*dynamodb.Options)) (R, error) {
	input, err := op.MarshalRequest()
	if err != nil {
		var zero R
		return zero, err
	}
	return invoke(ctx, op, call, input, optFns)
}

// ExecuteAsync marshals op and invokes call on a separate goroutine. Marshaling
// errors are returned immediately and call is never invoked; otherwise the
// returned Future resolves with the transformed output or the error returned
// by call.
func ExecuteAsync[In, Out, R any](ctx context.Context, op Operation[In, Out, R], call ServiceCall[In, Out], optFns ...func(*dynamodb.Options)) (*Future[R], error) {
	input, err := op.MarshalRequest()
	if err != nil {
		return nil, err
	}

	future := newFuture[R]()
	go func() {
		future.resolve(invoke(ctx, op, call, input, optFns))
	}()

	return future, nil
}

func invoke[In, Out, R any](ctx context.Context, op Operation[In, Out, R], call ServiceCall[In, Out], input *In, optFns []func(*dynamodb.Options)) (R, error) {
	output, err := call(ctx, input, optFns...)
	if err != nil {
		var zero R
		return zero, err
	}
	return op.TransformResponse(output)
}

// Future is the pending result of an asynchronous operation.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(value T, err error) {
	f.value, f.err = value, err
	close(f.done)
}

// Done returns a channel that is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx is done. Abandoning a
// future does not cancel the underlying call; cancel the context passed to
// ExecuteAsync for that.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
