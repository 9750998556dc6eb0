package lsmtree

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ravi-kapoor/ltree/pkg/types"
	"github.com/ravi-kapoor/ltree/pkg/utils"
)

// compactionThreshold is the per-level SSTable count that triggers a
// merge into the next level down. Fixed at 2: a third run tips it over.
const compactionThreshold = 2

// Tree is the LSM tree orchestrator: insert/get/delete/range, flush,
// compact, and the on-disk persistence layout. It assumes exclusive,
// single-threaded access by its caller (see CONCURRENCY & RESOURCE
// MODEL) — no lock guards its state, unlike the teacher's
// RWMutex-and-atomic-pointer original.
type Tree struct {
	path     string
	columns  []types.Column
	memtable *MemTable
	levels   [][]*SSTable
	config   Config
	metrics  *Metrics
	logger   utils.Logger
}

func sstsDir(path string) string {
	return filepath.Join(path, "ssts")
}

func configPath(path string) string {
	return filepath.Join(path, "config.txt")
}

func walPath(path string) string {
	return filepath.Join(path, walFileName)
}

// Insert validates that values has one entry per column, encodes the
// row, writes it to the memtable and the WAL, and flushes if the
// memtable has crossed its byte budget.
func (t *Tree) Insert(key string, values []types.Value) error {
	if containsSeparator(key) {
		return ErrSeparatorInField
	}
	encoded, err := EncodeRow(t.columns, values)
	if err != nil {
		return err
	}
	entry := types.Entry{Key: key, Value: encoded, Tombstone: false}
	t.memtable.Insert(key, encoded, false)
	wal, err := t.wal()
	if err != nil {
		return err
	}
	if err := wal.Write(entry); err != nil {
		return err
	}
	t.metrics.IncWrites()
	t.logger.V(2).Info("inserted row", "key", key, "bytes", len(encoded))
	if t.memtable.IsFull() {
		return t.Flush()
	}
	return nil
}

// Get searches the memtable, then each level in order, within a
// level in stored (freshest-first) order, returning on first hit. A
// memtable tombstone returns absent immediately. An SSTable
// tombstone is also resolved to absent, per the tree's design note
// preserving invariant 2 on the point-read path (the raw stored
// value for an SSTable tombstone is an empty string with no
// meaning on its own).
func (t *Tree) Get(key string) (string, bool) {
	if e, ok := t.memtable.Get(key); ok {
		if e.Tombstone {
			return "", false
		}
		t.metrics.IncReads()
		return e.Value, true
	}
	for _, level := range t.levels {
		for _, sst := range level {
			if e, ok := sst.Get(key); ok {
				if e.Tombstone {
					return "", false
				}
				t.metrics.IncReads()
				return e.Value, true
			}
		}
	}
	return "", false
}

// Delete inserts a tombstone for key: the memtable entry's value is
// empty, but the WAL line's value field is N-1 separator bytes (no
// data between them) so Replay's column-field split still lands on
// len(columns)+2 parts. May trigger a flush. Returns whether the
// memtable already held an entry under key.
func (t *Tree) Delete(key string) bool {
	if containsSeparator(key) {
		return false
	}
	walValue := ""
	if n := len(t.columns); n > 1 {
		walValue = strings.Repeat(string(separator), n-1)
	}
	replaced := t.memtable.Insert(key, "", true)
	entry := types.Entry{Key: key, Value: walValue, Tombstone: true}
	if wal, err := t.wal(); err != nil {
		t.logger.Error(err, "failed to open WAL for tombstone append", "key", key)
	} else if err := wal.Write(entry); err != nil {
		t.logger.Error(err, "failed to append tombstone to WAL", "key", key)
	}
	t.metrics.IncWrites()
	if t.memtable.IsFull() {
		if err := t.Flush(); err != nil {
			t.logger.Error(err, "flush after delete failed")
		}
	}
	return replaced
}

// GetRange collects every entry visible in the memtable and in every
// SSTable, filters by pred, then drops any key seen as a tombstone
// anywhere in the collected set before returning the live values.
// This deliberately does NOT take freshest-wins duplicate resolution
// across collected live entries for the same key: only tombstone
// presence blacklists a key, matching the literal algorithm this
// tree's read path is grounded on. Ordering is stable across repeated
// calls on an unchanged tree but is otherwise unspecified.
func (t *Tree) GetRange(pred func(types.Entry) bool) []string {
	var collected []types.Entry
	collected = append(collected, t.memtable.AllEntries()...)
	for _, level := range t.levels {
		for _, sst := range level {
			collected = append(collected, sst.AllEntries()...)
		}
	}

	tombstoned := make(map[string]bool)
	for _, e := range collected {
		if e.Tombstone {
			tombstoned[e.Key] = true
		}
	}

	var out []string
	for _, e := range collected {
		if tombstoned[e.Key] {
			continue
		}
		if !pred(e) {
			continue
		}
		out = append(out, e.Value)
	}
	return out
}

// Flush builds a new SSTable from the current memtable, prepends it
// at level 0 index 0, re-emits every level's SSTables to path/ssts/,
// then truncates the WAL, clears the memtable, and invokes Compact.
// If the SSTable files cannot be written, the new SSTable is dropped
// from level 0 and the memtable and WAL are left untouched, so a
// later flush retries.
func (t *Tree) Flush() error {
	sst := FromMemtable(t.memtable)

	wal, err := t.wal()
	if err != nil {
		return err
	}

	if len(t.levels) == 0 {
		t.levels = append(t.levels, nil)
	}
	t.levels[0] = append([]*SSTable{sst}, t.levels[0]...)

	if err := t.rewriteSSTFiles(); err != nil {
		t.levels[0] = t.levels[0][1:]
		return err
	}

	if err := wal.Truncate(); err != nil {
		return err
	}
	t.memtable.Clear()

	t.metrics.IncFlushes()
	t.logger.V(1).Info("flushed memtable", "level0_count", len(t.levels[0]))

	return t.Compact()
}

// rewriteSSTFiles removes and recreates path/ssts/, then writes every
// level's SSTables to sst_<i>_<j>.txt in stored order.
func (t *Tree) rewriteSSTFiles() error {
	dir := sstsDir(t.path)
	if err := os.RemoveAll(dir); err != nil {
		return IoError{Op: "remove ssts dir", Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return IoError{Op: "recreate ssts dir", Err: err}
	}
	for i, level := range t.levels {
		for j, sst := range level {
			name := "sst_" + strconv.Itoa(i) + "_" + strconv.Itoa(j) + ".txt"
			if err := sst.SaveToDisk(filepath.Join(dir, name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compact walks levels ascending; any level holding more than
// compactionThreshold SSTables is merged into one run prepended to
// the next level down (the merged run is fresher than anything
// already there, since level i was written to more recently than
// level i+1's last compaction), and the source level is cleared.
func (t *Tree) Compact() error {
	for i := 0; i < len(t.levels); i++ {
		if len(t.levels[i]) <= compactionThreshold {
			continue
		}
		merged := mergeSSTables(t.levels[i])
		if i+1 >= len(t.levels) {
			t.levels = append(t.levels, nil)
		}
		t.levels[i+1] = append([]*SSTable{merged}, t.levels[i+1]...)
		t.levels[i] = nil
		t.metrics.IncCompactions()
		t.logger.V(1).Info("compacted level", "level", i, "into", i+1)
	}
	return t.rewriteSSTFiles()
}

// Size returns the sum of the memtable's size and every SSTable's size.
func (t *Tree) Size() int {
	total := t.memtable.Size()
	for _, level := range t.levels {
		for _, sst := range level {
			total += sst.Size()
		}
	}
	return total
}

// Clear empties the memtable and clears every SSTable in place. Their
// on-disk files are not rewritten until the next flush.
func (t *Tree) Clear() {
	t.memtable.Clear()
	for _, level := range t.levels {
		for _, sst := range level {
			sst.Clear()
		}
	}
}

// Close is a no-op beyond logging: files are opened and closed per
// call, so there is no long-lived descriptor to release.
func (t *Tree) Close() error {
	t.logger.V(1).Info("tree closed", "path", t.path)
	return nil
}

func (t *Tree) wal() (*WAL, error) {
	return OpenWAL(walPath(t.path), t.config.SyncWrites)
}

func containsSeparator(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == separator {
			return true
		}
	}
	return false
}
