// Package domain holds the aggregate wrapping a single LSM tree: the
// one storage unit this module manages. Multi-table/"database"
// layouts above a single tree are explicitly out of scope.
package domain

import (
	"fmt"

	"github.com/ravi-kapoor/ltree/pkg/ports"
	"github.com/ravi-kapoor/ltree/pkg/types"
	"github.com/ravi-kapoor/ltree/pkg/utils"
)

// StoreStatus mirrors the tree's coarse lifecycle state for callers
// that want to observe it (a REPL status line, a health check).
type StoreStatus struct {
	Ready bool
	Size  int
	Error string
}

// Store is the aggregate root: a single tree plus the logging and
// status bookkeeping a caller needs around it.
type Store struct {
	name    string
	columns []types.Column
	tree    ports.TreePort
	status  StoreStatus
	logger  utils.Logger
}

// NewStore wraps an already-open tree (built via lsmtree.Create or
// lsmtree.Load) as a Store. columns is the tree's fixed schema, kept
// here so callers can inspect it without reaching into the adapter.
func NewStore(name string, columns []types.Column, tree ports.TreePort, logger utils.Logger) (*Store, error) {
	if name == "" {
		return nil, fmt.Errorf("store name is required")
	}
	if tree == nil {
		return nil, fmt.Errorf("tree is required")
	}
	s := &Store{name: name, columns: columns, tree: tree, status: StoreStatus{Ready: true}, logger: logger}
	logger.Info("store initialized", "name", name)
	return s, nil
}

// Columns returns the store's fixed, ordered column schema.
func (s *Store) Columns() []types.Column {
	return s.columns
}

// Insert writes a row under key.
func (s *Store) Insert(key string, values []types.Value) error {
	if err := s.tree.Insert(key, values); err != nil {
		s.status.Error = err.Error()
		s.logger.Error(err, "insert failed", "key", key)
		return err
	}
	s.logger.V(2).Info("inserted", "key", key)
	return nil
}

// Get retrieves the row stored under key.
func (s *Store) Get(key string) (string, bool) {
	value, ok := s.tree.Get(key)
	if !ok {
		s.logger.V(2).Info("key not found", "key", key)
	}
	return value, ok
}

// Delete writes a tombstone for key, returning whether the tree's
// memtable already held an entry for it; a key present only in
// flushed SSTables reports false.
func (s *Store) Delete(key string) bool {
	replaced := s.tree.Delete(key)
	s.logger.V(2).Info("deleted", "key", key, "existed", replaced)
	return replaced
}

// GetRange returns every live value matching pred.
func (s *Store) GetRange(pred func(types.Entry) bool) []string {
	return s.tree.GetRange(pred)
}

// Size returns the store's total entry byte accounting.
func (s *Store) Size() int {
	return s.tree.Size()
}

// Clear empties the store in place.
func (s *Store) Clear() {
	s.tree.Clear()
	s.logger.Info("store cleared", "name", s.name)
}

// Close releases the store's underlying tree.
func (s *Store) Close() error {
	err := s.tree.Close()
	s.status.Ready = false
	if err != nil {
		s.status.Error = err.Error()
		s.logger.Error(err, "failed to close store", "name", s.name)
		return err
	}
	s.logger.Info("store closed", "name", s.name)
	return nil
}

// Status returns the store's current observed status.
func (s *Store) Status() StoreStatus {
	s.status.Size = s.tree.Size()
	return s.status
}

// Name returns the store's name.
func (s *Store) Name() string {
	return s.name
}
