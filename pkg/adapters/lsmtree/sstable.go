package lsmtree

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/ravi-kapoor/ltree/pkg/types"
)

// SSTable is an immutable, ordered on-disk run with its own
// membership filter. The on-disk layout is exactly:
//
//	u64(BE) num_entries
//	per entry: u64(BE) key_len, key bytes,
//	           u64(BE) value_len, value bytes,
//	           u8 tombstone (0x00/0x01)
//
// No checksum, index, or trailer is written; load_from_disk rebuilds
// the in-memory index and filter from a single linear pass.
type SSTable struct {
	path    string
	entries []types.Entry  // sorted by key, as persisted
	index   map[string]int // key -> position in entries
	filter  *BloomFilter
}

// FromMemtable builds a new in-memory SSTable from a memtable's
// sorted entries (including tombstones) without writing to disk yet.
func FromMemtable(mt *MemTable) *SSTable {
	entries := mt.AllEntries()
	return fromEntries(entries)
}

func fromEntries(entries []types.Entry) *SSTable {
	sst := &SSTable{
		entries: entries,
		index:   make(map[string]int, len(entries)),
		filter:  NewDefaultBloomFilter(),
	}
	for i, e := range entries {
		sst.index[e.Key] = i
		sst.filter.Add(e.Key)
	}
	return sst
}

// SaveToDisk writes the SSTable's binary format to path.
func (s *SSTable) SaveToDisk(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return IoError{Op: "create SSTable", Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.BigEndian, uint64(len(s.entries))); err != nil {
		return IoError{Op: "write SSTable header", Err: err}
	}
	for _, e := range s.entries {
		if err := writeEntry(w, e); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return IoError{Op: "flush SSTable", Err: err}
	}
	s.path = path
	return nil
}

func writeEntry(w io.Writer, e types.Entry) error {
	key := []byte(e.Key)
	value := []byte(e.Value)
	if err := binary.Write(w, binary.BigEndian, uint64(len(key))); err != nil {
		return IoError{Op: "write key length", Err: err}
	}
	if _, err := w.Write(key); err != nil {
		return IoError{Op: "write key", Err: err}
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(value))); err != nil {
		return IoError{Op: "write value length", Err: err}
	}
	if _, err := w.Write(value); err != nil {
		return IoError{Op: "write value", Err: err}
	}
	var tombstone byte
	if e.Tombstone {
		tombstone = 0x01
	}
	if _, err := w.Write([]byte{tombstone}); err != nil {
		return IoError{Op: "write tombstone flag", Err: err}
	}
	return nil
}

// LoadFromDisk reads an SSTable file in full and rebuilds its index
// and filter.
func LoadFromDisk(path string) (*SSTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, IoError{Op: "open SSTable", Err: err}
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var numEntries uint64
	if err := binary.Read(r, binary.BigEndian, &numEntries); err != nil {
		return nil, IoError{Op: "read SSTable header", Err: err}
	}
	entries := make([]types.Entry, 0, numEntries)
	for i := uint64(0); i < numEntries; i++ {
		e, err := readEntry(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	sst := fromEntries(entries)
	sst.path = path
	return sst, nil
}

func readEntry(r io.Reader) (types.Entry, error) {
	var keyLen uint64
	if err := binary.Read(r, binary.BigEndian, &keyLen); err != nil {
		return types.Entry{}, IoError{Op: "read key length", Err: err}
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return types.Entry{}, IoError{Op: "read key", Err: err}
	}
	var valLen uint64
	if err := binary.Read(r, binary.BigEndian, &valLen); err != nil {
		return types.Entry{}, IoError{Op: "read value length", Err: err}
	}
	value := make([]byte, valLen)
	if _, err := io.ReadFull(r, value); err != nil {
		return types.Entry{}, IoError{Op: "read value", Err: err}
	}
	tombByte := make([]byte, 1)
	if _, err := io.ReadFull(r, tombByte); err != nil {
		return types.Entry{}, IoError{Op: "read tombstone flag", Err: err}
	}
	return types.Entry{Key: string(key), Value: string(value), Tombstone: tombByte[0] == 0x01}, nil
}

// Get returns the raw entry for key without resolving tombstone
// semantics; the caller (Tree.Get) decides whether a tombstone means
// "absent". Filter-checks first to short-circuit definite misses.
func (s *SSTable) Get(key string) (types.Entry, bool) {
	if !s.filter.MightContain(key) {
		return types.Entry{}, false
	}
	pos, ok := s.index[key]
	if !ok {
		return types.Entry{}, false
	}
	return s.entries[pos], true
}

// GetRange returns every live (non-tombstone) entry for which pred
// returns true.
func (s *SSTable) GetRange(pred func(types.Entry) bool) []types.Entry {
	var out []types.Entry
	for _, e := range s.entries {
		if e.Tombstone {
			continue
		}
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// AllEntries returns every entry, including tombstones, in stored order.
func (s *SSTable) AllEntries() []types.Entry {
	return s.entries
}

// Size returns the byte total over every entry, including tombstones:
// Σ(len(key)+len(value)+1), per Entry.Size().
func (s *SSTable) Size() int {
	total := 0
	for _, e := range s.entries {
		total += e.Size()
	}
	return total
}

// Clear empties the SSTable in memory (used by Tree.Clear); its file
// on disk is left as it is.
func (s *SSTable) Clear() {
	s.entries = nil
	s.index = make(map[string]int)
	s.filter = NewDefaultBloomFilter()
}

// mergeSSTables folds a level's SSTables into one sorted run, last
// write wins. ssts is ordered freshest-first (index 0 is the most
// recently flushed/compacted run in the level, matching how Tree
// prepends new runs); folding proceeds from the OLDEST element toward
// the freshest so a later, fresher insert always overwrites an
// earlier, staler one in the output map (see resolved open question
// on level-freshness in merge order).
func mergeSSTables(ssts []*SSTable) *SSTable {
	merged := make(map[string]types.Entry)
	for i := len(ssts) - 1; i >= 0; i-- {
		for _, e := range ssts[i].entries {
			merged[e.Key] = e
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]types.Entry, len(keys))
	for i, k := range keys {
		entries[i] = merged[k]
	}
	return fromEntries(entries)
}
