package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ravi-kapoor/ltree/pkg/adapters/lsmtree"
	"github.com/ravi-kapoor/ltree/pkg/domain"
	"github.com/ravi-kapoor/ltree/pkg/types"
	"github.com/ravi-kapoor/ltree/pkg/utils"
)

func setupQueryTest(t *testing.T) (*QueryHandler, *CommandHandler) {
	t.Helper()
	columns := []types.Column{{Name: "Name", Type: types.ColumnText}, {Name: "Age", Type: types.ColumnInt32}}
	config := lsmtree.DefaultConfig()
	config.FilePath = t.TempDir()
	tree, err := lsmtree.Create(config, columns)
	assert.NoError(t, err, "Create should succeed")

	logger := utils.NewLogger("test", 0)
	store, err := domain.NewStore("testdb", columns, tree, logger)
	assert.NoError(t, err, "NewStore should succeed")

	return NewQueryHandler(store, logger), NewCommandHandler(store, logger)
}

func TestQueryHandlerGetValue(t *testing.T) {
	queries, commands := setupQueryTest(t)
	defer commands.Close()

	assert.NoError(t, commands.ExecuteCommand(context.Background(), &InsertCommand{
		Key: "user1", Values: []types.Value{types.TextValue("Alice"), types.Int32Value(30)},
	}))

	result, err := queries.ExecuteQuery(context.Background(), &GetValueQuery{Key: "user1"})
	assert.NoError(t, err, "GetValueQuery should succeed")
	assert.NotNil(t, result)
}

func TestQueryHandlerGetValueMissing(t *testing.T) {
	queries, commands := setupQueryTest(t)
	defer commands.Close()

	result, err := queries.ExecuteQuery(context.Background(), &GetValueQuery{Key: "missing"})
	assert.NoError(t, err, "GetValueQuery should not error on a missing key")
	assert.Nil(t, result)
}

func TestQueryHandlerGetStats(t *testing.T) {
	queries, commands := setupQueryTest(t)
	defer commands.Close()

	assert.NoError(t, commands.ExecuteCommand(context.Background(), &InsertCommand{
		Key: "user1", Values: []types.Value{types.TextValue("Alice"), types.Int32Value(30)},
	}))

	result, err := queries.ExecuteQuery(context.Background(), &GetStatsQuery{})
	assert.NoError(t, err, "GetStatsQuery should succeed")
	status, ok := result.(domain.StoreStatus)
	assert.True(t, ok, "GetStatsQuery should return a StoreStatus")
	assert.True(t, status.Ready)
	assert.Greater(t, status.Size, 0)
}

func TestQueryHandlerGetSchema(t *testing.T) {
	queries, commands := setupQueryTest(t)
	defer commands.Close()

	result, err := queries.ExecuteQuery(context.Background(), &GetSchemaQuery{})
	assert.NoError(t, err, "GetSchemaQuery should succeed")
	columns, ok := result.([]types.Column)
	assert.True(t, ok, "GetSchemaQuery should return a column slice")
	assert.Len(t, columns, 2)
}

func TestQueryHandlerAsyncExecution(t *testing.T) {
	queries, commands := setupQueryTest(t)
	defer commands.Close()

	assert.NoError(t, commands.ExecuteCommand(context.Background(), &InsertCommand{
		Key: "user1", Values: []types.Value{types.TextValue("Alice"), types.Int32Value(30)},
	}))

	resultCh := queries.ExecuteQueryAsync(context.Background(), &GetValueQuery{Key: "user1"})
	result := <-resultCh
	assert.NoError(t, result.Err)
	assert.NotNil(t, result.Result)
}

func TestQueryHandlerGetRange(t *testing.T) {
	queries, commands := setupQueryTest(t)
	defer commands.Close()

	assert.NoError(t, commands.ExecuteCommand(context.Background(), &InsertCommand{
		Key: "user1", Values: []types.Value{types.TextValue("Alice"), types.Int32Value(30)},
	}))
	assert.NoError(t, commands.ExecuteCommand(context.Background(), &InsertCommand{
		Key: "user2", Values: []types.Value{types.TextValue("Bob"), types.Int32Value(40)},
	}))

	result, err := queries.ExecuteQuery(context.Background(), &GetRangeQuery{Pred: func(e types.Entry) bool { return true }})
	assert.NoError(t, err, "GetRangeQuery should succeed")
	values, ok := result.([]string)
	assert.True(t, ok, "GetRangeQuery should return a string slice")
	assert.Len(t, values, 2)
}
