// Command ltree is a small fixed-sequence demo of the tree, command,
// and query layers: open or create a store, insert and delete a few
// rows through the CQRS handlers, print the result, then wait for a
// signal to shut down. The interactive REPL, GUI shell, audit
// log-file writer, and SQL-like parser that would normally sit in
// front of this are external collaborators and out of scope here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ravi-kapoor/ltree/pkg/adapters/lsmtree"
	"github.com/ravi-kapoor/ltree/pkg/application"
	"github.com/ravi-kapoor/ltree/pkg/domain"
	"github.com/ravi-kapoor/ltree/pkg/types"
	"github.com/ravi-kapoor/ltree/pkg/utils"
)

func main() {
	var path string
	var logLevel string
	flag.StringVar(&path, "path", "./ltree_data", "Tree directory path")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := utils.NewLogger("ltree", utils.LevelForLogLevel(logLevel))

	config := lsmtree.DefaultConfig()
	config.FilePath = path
	config.LogLevel = logLevel

	columns := []types.Column{
		{Name: "Name", Type: types.ColumnText},
		{Name: "Age", Type: types.ColumnInt32},
	}

	tree, err := openOrCreate(config, columns)
	if err != nil {
		logger.Error(err, "failed to open tree")
		os.Exit(1)
	}

	store, err := domain.NewStore("ltree", columns, tree, logger)
	if err != nil {
		logger.Error(err, "failed to initialize store")
		os.Exit(1)
	}
	defer store.Close()

	cmdHandler := application.NewCommandHandler(store, logger)
	queryHandler := application.NewQueryHandler(store, logger)

	ctx := context.Background()

	cmdHandler.ExecuteCommandAsync(ctx, &application.InsertCommand{
		Key:    "user1",
		Values: []types.Value{types.TextValue("Alice"), types.Int32Value(30)},
	})
	cmdHandler.ExecuteCommandAsync(ctx, &application.InsertCommand{
		Key:    "user2",
		Values: []types.Value{types.TextValue("Bob"), types.Int32Value(25)},
	})
	cmdHandler.ExecuteCommandAsync(ctx, &application.DeleteCommand{Key: "user2"})

	// Close drains the dispatch queue, so every async command above has
	// applied by the time the queries below read the store. The handler
	// is single-use past this point.
	cmdHandler.Close()

	resultChan := queryHandler.ExecuteQueryAsync(ctx, &application.GetValueQuery{Key: "user1"})
	res := <-resultChan
	if res.Err != nil {
		logger.Error(res.Err, "failed to query user1")
	} else {
		fmt.Printf("user1: %v\n", res.Result)
	}

	statsResult, err := queryHandler.ExecuteQuery(ctx, &application.GetStatsQuery{})
	if err != nil {
		logger.Error(err, "failed to query stats")
	} else {
		stats := statsResult.(domain.StoreStatus)
		fmt.Printf("store status: ready=%v size=%d\n", stats.Ready, stats.Size)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down ltree")
}

// openOrCreate loads an existing tree directory or creates a fresh
// one if config.txt is absent.
func openOrCreate(config lsmtree.Config, columns []types.Column) (*lsmtree.Tree, error) {
	if _, err := os.Stat(configFilePath(config.FilePath)); err == nil {
		return lsmtree.Load(config)
	}
	return lsmtree.Create(config, columns)
}

func configFilePath(path string) string {
	return path + "/config.txt"
}
