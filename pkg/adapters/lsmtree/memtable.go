package lsmtree

import (
	"sort"

	"github.com/ravi-kapoor/ltree/pkg/types"
)

// MemTable is the tree's in-memory ordered map of entries, with a
// byte budget and a membership filter. It is not safe for concurrent
// mutation; the tree is single-writer by design (see CONCURRENCY).
type MemTable struct {
	entries map[string]types.Entry
	filter  *BloomFilter
	size    int
	maxSize int
}

// NewMemTable creates an empty MemTable with the given byte budget.
func NewMemTable(maxSize int) *MemTable {
	return &MemTable{
		entries: make(map[string]types.Entry),
		filter:  NewDefaultBloomFilter(),
		maxSize: maxSize,
	}
}

// Insert stores or overwrites key with value, returning whether an
// entry already existed under key. The filter is updated
// unconditionally, whether the write is a live value or a tombstone:
// a later Get must be able to consult the memtable at all for this key.
// Size accounting uses saturating subtraction on replacement so a
// size computed inconsistently with an old entry can never go negative.
func (m *MemTable) Insert(key, value string, tombstone bool) bool {
	entry := types.Entry{Key: key, Value: value, Tombstone: tombstone}
	old, replaced := m.entries[key]
	if replaced {
		m.size = saturatingSub(m.size, old.Size())
	}
	m.entries[key] = entry
	m.size += entry.Size()
	m.filter.Add(key)
	return replaced
}

func saturatingSub(a, b int) int {
	if b > a {
		return 0
	}
	return a - b
}

// Get returns the raw entry for key, and whether the memtable holds
// an entry (live or tombstone) for it. The filter is consulted first
// to short-circuit definite misses.
func (m *MemTable) Get(key string) (types.Entry, bool) {
	if !m.filter.MightContain(key) {
		return types.Entry{}, false
	}
	e, ok := m.entries[key]
	return e, ok
}

// IsFull reports whether the memtable's byte budget has been crossed.
func (m *MemTable) IsFull() bool {
	return m.size >= m.maxSize
}

// Size returns the current byte accounting total.
func (m *MemTable) Size() int {
	return m.size
}

// Len returns the number of entries (including tombstones) held.
func (m *MemTable) Len() int {
	return len(m.entries)
}

// Clear empties the memtable, resetting its size and filter.
func (m *MemTable) Clear() {
	m.entries = make(map[string]types.Entry)
	m.filter = NewDefaultBloomFilter()
	m.size = 0
}

// AllEntries returns every entry (including tombstones), sorted by key.
// Used by Flush to build an SSTable and by GetRange to collect the
// memtable's contribution to a range scan.
func (m *MemTable) AllEntries() []types.Entry {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.Entry, len(keys))
	for i, k := range keys {
		out[i] = m.entries[k]
	}
	return out
}
