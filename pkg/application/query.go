package application

import (
	"context"

	"github.com/ravi-kapoor/ltree/pkg/domain"
	"github.com/ravi-kapoor/ltree/pkg/types"
	"github.com/ravi-kapoor/ltree/pkg/utils"
)

// Query defines the interface for all read-only operations.
type Query interface {
	Execute(ctx context.Context, handler *QueryHandler) (interface{}, error)
}

// QueryHandler dispatches queries against a Store. Unlike
// CommandHandler, queries don't mutate the tree, so async execution
// may run concurrently with other queries — only writes are
// serialized.
type QueryHandler struct {
	store  *domain.Store
	logger utils.Logger
}

// NewQueryHandler creates a new QueryHandler instance.
func NewQueryHandler(store *domain.Store, logger utils.Logger) *QueryHandler {
	return &QueryHandler{store: store, logger: logger}
}

// GetValueQuery retrieves the row stored under Key.
type GetValueQuery struct {
	Key string
}

func (q *GetValueQuery) Execute(ctx context.Context, handler *QueryHandler) (interface{}, error) {
	handler.logger.V(1).Info("executing GetValueQuery", "key", q.Key)
	value, ok := handler.store.Get(q.Key)
	if !ok {
		return nil, nil
	}
	return value, nil
}

// GetRangeQuery collects every live row matching Pred.
type GetRangeQuery struct {
	Pred func(types.Entry) bool
}

func (q *GetRangeQuery) Execute(ctx context.Context, handler *QueryHandler) (interface{}, error) {
	handler.logger.V(1).Info("executing GetRangeQuery")
	return handler.store.GetRange(q.Pred), nil
}

// GetStatsQuery retrieves the store's observed status.
type GetStatsQuery struct{}

func (q *GetStatsQuery) Execute(ctx context.Context, handler *QueryHandler) (interface{}, error) {
	handler.logger.V(1).Info("executing GetStatsQuery")
	return handler.store.Status(), nil
}

// GetSchemaQuery retrieves the store's fixed column schema.
type GetSchemaQuery struct{}

func (q *GetSchemaQuery) Execute(ctx context.Context, handler *QueryHandler) (interface{}, error) {
	handler.logger.V(1).Info("executing GetSchemaQuery")
	return handler.store.Columns(), nil
}

// ExecuteQuery executes query synchronously and returns the result.
func (h *QueryHandler) ExecuteQuery(ctx context.Context, query Query) (interface{}, error) {
	return query.Execute(ctx, h)
}

// ExecuteQueryAsync executes query in its own goroutine and returns a
// channel for the result.
func (h *QueryHandler) ExecuteQueryAsync(ctx context.Context, query Query) <-chan QueryResult {
	resultChan := make(chan QueryResult, 1)
	go func() {
		result, err := query.Execute(ctx, h)
		resultChan <- QueryResult{Result: result, Err: err}
		close(resultChan)
	}()
	return resultChan
}

func (h *QueryHandler) Store() *domain.Store {
	return h.store
}

// QueryResult wraps the result and error of an asynchronous query.
type QueryResult struct {
	Result interface{}
	Err    error
}
