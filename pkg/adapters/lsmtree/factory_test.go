package lsmtree

import (
	"testing"

	"github.com/ravi-kapoor/ltree/pkg/types"
)

func TestCreateRejectsEmptyColumns(t *testing.T) {
	config := DefaultConfig()
	config.FilePath = t.TempDir()
	if _, err := Create(config, nil); err == nil {
		t.Fatalf("expected ConfigError for an empty column list")
	}
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.FilePath = t.TempDir()
	config.MemTableMaxSize = 0
	if _, err := Create(config, testColumns()); err == nil {
		t.Fatalf("expected an error for a non-positive MemTableMaxSize")
	}
}

// TestLoadAfterCreateRecoversSchema checks that a tree reloaded from
// a freshly created, empty directory exposes the same column schema
// and an empty store.
func TestLoadAfterCreateRecoversSchema(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.FilePath = dir
	columns := testColumns()

	if _, err := Create(config, columns); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	loaded, err := Load(config)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.columns) != len(columns) {
		t.Fatalf("expected %d columns, got %d", len(columns), len(loaded.columns))
	}
	for i, c := range columns {
		if loaded.columns[i] != c {
			t.Errorf("column %d mismatch: want %+v got %+v", i, c, loaded.columns[i])
		}
	}
	if loaded.Size() != 0 {
		t.Errorf("expected an empty store after loading a freshly created tree")
	}
}

// TestLoadRecoversUncommittedWrites mirrors scenario S5's crash
// recovery: writes that never triggered a flush are recovered purely
// from the WAL on Load.
func TestLoadRecoversUncommittedWrites(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.FilePath = dir
	columns := testColumns()

	tree, err := Create(config, columns)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := tree.Insert("k", []types.Value{types.TextValue("v"), types.Int32Value(7)}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	reloaded, err := Load(config)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	value, ok := reloaded.Get("k")
	if !ok {
		t.Fatalf("expected k to survive a reload via WAL replay")
	}
	decoded, err := DecodeRow(columns, value)
	if err != nil {
		t.Fatalf("DecodeRow failed: %v", err)
	}
	name, _ := decoded["Name"].Text()
	age, _ := decoded["Age"].Int32()
	if name != "v" || age != 7 {
		t.Errorf("expected Name=v Age=7, got Name=%s Age=%d", name, age)
	}
}

// TestLoadRecoversFlushedSSTables mirrors the flush-then-crash path:
// once a flush has happened, the recovered data comes from ssts/, not
// the (now-truncated) WAL.
func TestLoadRecoversFlushedSSTables(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.FilePath = dir
	config.MemTableMaxSize = 8
	columns := testColumns()

	tree, err := Create(config, columns)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := tree.Insert("k1", []types.Value{types.TextValue("alpha"), types.Int32Value(1)}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := tree.Insert("k2", []types.Value{types.TextValue("beta"), types.Int32Value(2)}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(tree.levels) == 0 {
		t.Fatalf("expected the tiny memtable budget to force a flush before reload")
	}

	reloaded, err := Load(config)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := reloaded.Get("k1"); !ok {
		t.Errorf("expected k1 to be recovered from ssts/")
	}
	if _, ok := reloaded.Get("k2"); !ok {
		t.Errorf("expected k2 to be recovered either from ssts/ or the WAL")
	}
}
