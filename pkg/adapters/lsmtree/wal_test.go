package lsmtree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ravi-kapoor/ltree/pkg/types"
)

func TestWALWriteAndReplay(t *testing.T) {
	dir := t.TempDir()
	wal, err := OpenWAL(filepath.Join(dir, walFileName), false)
	if err != nil {
		t.Fatalf("OpenWAL failed: %v", err)
	}

	columns := testColumns()
	encoded, err := EncodeRow(columns, []types.Value{types.TextValue("John"), types.Int32Value(42)})
	if err != nil {
		t.Fatalf("EncodeRow failed: %v", err)
	}

	if err := wal.Write(types.Entry{Key: "john", Value: encoded, Tombstone: false}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := wal.Write(types.Entry{Key: "jane", Value: encoded, Tombstone: true}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	mt, err := wal.Replay(columns, 1<<20, false)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	e, ok := mt.Get("john")
	if !ok || e.Tombstone || e.Value != encoded {
		t.Errorf("expected live entry for john, got (%+v, %t)", e, ok)
	}
	e, ok = mt.Get("jane")
	if !ok || !e.Tombstone {
		t.Errorf("expected tombstoned entry for jane, got (%+v, %t)", e, ok)
	}
}

func TestWALTruncate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, walFileName)
	wal, err := OpenWAL(path, false)
	if err != nil {
		t.Fatalf("OpenWAL failed: %v", err)
	}
	if err := wal.Write(types.Entry{Key: "k", Value: "v", Tombstone: false}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := wal.Truncate(); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected truncated WAL to have length 0, got %d", info.Size())
	}
}

func TestWALReplayMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, walFileName)
	if err := os.WriteFile(path, []byte("onlyonefield\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	wal, err := OpenWAL(path, false)
	if err != nil {
		t.Fatalf("OpenWAL failed: %v", err)
	}
	if _, err := wal.Replay(testColumns(), 1<<20, false); err == nil {
		t.Fatalf("expected MalformedWalError for a line with the wrong part count")
	}
}
