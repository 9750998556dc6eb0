package application

import (
	"context"

	"github.com/ravi-kapoor/ltree/pkg/domain"
	"github.com/ravi-kapoor/ltree/pkg/types"
	"github.com/ravi-kapoor/ltree/pkg/utils"
)

// Command defines the interface for all mutating operations.
type Command interface {
	Execute(ctx context.Context, handler *CommandHandler) error
}

// CommandHandler dispatches commands against a Store. Commands passed
// to ExecuteCommandAsync are executed one at a time, in submission
// order, by a single goroutine reading from submitCh: the tree beneath
// the store is not safe for concurrent mutation (see CONCURRENCY &
// RESOURCE MODEL), so ExecuteCommandAsync enqueues rather than
// spawning a writer per call. ExecuteCommand runs on the caller's
// goroutine, outside that queue, and is not serialized against
// queued commands.
type CommandHandler struct {
	store    *domain.Store
	logger   utils.Logger
	submitCh chan asyncCommand
	doneCh   chan struct{}
}

type asyncCommand struct {
	ctx context.Context
	cmd Command
}

// NewCommandHandler creates a CommandHandler and starts its dispatch loop.
func NewCommandHandler(store *domain.Store, logger utils.Logger) *CommandHandler {
	h := &CommandHandler{
		store:    store,
		logger:   logger,
		submitCh: make(chan asyncCommand, 256),
		doneCh:   make(chan struct{}),
	}
	go h.dispatchLoop()
	return h
}

func (h *CommandHandler) dispatchLoop() {
	for submitted := range h.submitCh {
		if err := submitted.cmd.Execute(submitted.ctx, h); err != nil {
			h.logger.Error(err, "async command execution failed")
		}
	}
	close(h.doneCh)
}

// InsertCommand inserts a row under Key.
type InsertCommand struct {
	Key    string
	Values []types.Value
}

func (c *InsertCommand) Execute(ctx context.Context, handler *CommandHandler) error {
	handler.logger.V(1).Info("executing InsertCommand", "key", c.Key)
	if err := handler.store.Insert(c.Key, c.Values); err != nil {
		handler.logger.Error(err, "InsertCommand failed", "key", c.Key)
		return err
	}
	return nil
}

// DeleteCommand removes the row under Key.
type DeleteCommand struct {
	Key string
}

func (c *DeleteCommand) Execute(ctx context.Context, handler *CommandHandler) error {
	handler.logger.V(1).Info("executing DeleteCommand", "key", c.Key)
	handler.store.Delete(c.Key)
	return nil
}

// ClearCommand empties the store.
type ClearCommand struct{}

func (c *ClearCommand) Execute(ctx context.Context, handler *CommandHandler) error {
	handler.logger.V(1).Info("executing ClearCommand")
	handler.store.Clear()
	return nil
}

// ExecuteCommand executes cmd synchronously, bypassing the dispatch queue.
func (h *CommandHandler) ExecuteCommand(ctx context.Context, cmd Command) error {
	return cmd.Execute(ctx, h)
}

// ExecuteCommandAsync enqueues cmd for the dispatch loop and returns
// immediately; commands still execute one at a time, in submission order.
func (h *CommandHandler) ExecuteCommandAsync(ctx context.Context, cmd Command) {
	h.submitCh <- asyncCommand{ctx: ctx, cmd: cmd}
}

// Close stops accepting new async commands and waits for the queue to drain.
func (h *CommandHandler) Close() {
	close(h.submitCh)
	<-h.doneCh
}

func (h *CommandHandler) Store() *domain.Store {
	return h.store
}
