package lsmtree

import (
	"bufio"
	"os"
	"strings"

	"github.com/ravi-kapoor/ltree/pkg/types"
)

const walFileName = "wal.txt"

// WAL is the append-only recovery log backing a tree's current,
// unflushed memtable. Unlike the teacher's async channel-backed
// design, writes here are synchronous: the single-writer model (see
// CONCURRENCY) gives every caller an exclusive, blocking WAL.
type WAL struct {
	path       string
	syncWrites bool
}

// OpenWAL returns a WAL handle for path, creating the file if absent.
func OpenWAL(path string, syncWrites bool) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, IoError{Op: "open WAL", Err: err}
	}
	f.Close()
	return &WAL{path: path, syncWrites: syncWrites}, nil
}

// Write appends one line for entry: "<key>|<value>|<tombstone-byte>\n".
// Opens in create-or-append mode and does not fsync unless syncWrites.
func (w *WAL) Write(entry types.Entry) error {
	f, err := os.OpenFile(w.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return IoError{Op: "append WAL", Err: err}
	}
	defer f.Close()

	var line strings.Builder
	line.WriteString(entry.Key)
	line.WriteByte(separator)
	line.WriteString(entry.Value)
	line.WriteByte(separator)
	if entry.Tombstone {
		line.WriteByte(0x01)
	} else {
		line.WriteByte(0x00)
	}
	line.WriteByte('\n')

	if _, err := f.WriteString(line.String()); err != nil {
		return IoError{Op: "append WAL", Err: err}
	}
	if w.syncWrites {
		if err := f.Sync(); err != nil {
			return IoError{Op: "sync WAL", Err: err}
		}
	}
	return nil
}

// Truncate opens the WAL in write-truncate mode, setting its length to 0.
func (w *WAL) Truncate() error {
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return IoError{Op: "truncate WAL", Err: err}
	}
	return f.Close()
}

// Replay reads the WAL line by line and rebuilds a fresh memtable.
// Each well-formed line splits on '|' into exactly len(columns)+2
// parts (key, one field per column, tombstone byte); for a live entry
// the N column fields are rejoined with '|' to recover the stored
// value. A tombstone line's column fields are padding (N-1 separator
// bytes with nothing between them, written by Delete so the line
// still splits into the right number of parts) and carry no value, so
// the rebuilt memtable entry gets an empty value, matching the
// in-memory invariant that a tombstone's value is always empty. A
// line with a different part count yields MalformedWalError and, per
// bestEffort, either aborts recovery or stops short and keeps
// everything read so far.
func (w *WAL) Replay(columns []types.Column, maxSize int, bestEffort bool) (*MemTable, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, IoError{Op: "open WAL for replay", Err: err}
	}
	defer f.Close()

	mt := NewMemTable(maxSize)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, string(separator))
		if len(parts) != len(columns)+2 {
			if bestEffort {
				break
			}
			return nil, MalformedWalError{Line: line}
		}
		key := parts[0]
		tombstoneField := parts[len(parts)-1]
		tombstone := tombstoneField == "\x01"
		value := ""
		if !tombstone {
			value = strings.Join(parts[1:len(parts)-1], string(separator))
		}
		mt.Insert(key, value, tombstone)
	}
	if err := scanner.Err(); err != nil {
		return nil, IoError{Op: "read WAL", Err: err}
	}
	return mt, nil
}
