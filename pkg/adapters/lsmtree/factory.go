package lsmtree

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ravi-kapoor/ltree/pkg/types"
	"github.com/ravi-kapoor/ltree/pkg/utils"
)

// Create builds a fresh tree at path: the directory, path/ssts/, an
// empty path/wal.txt, and path/config.txt (one "<name>|<type>\n" line
// per column). Fails with ConfigError if columns is empty.
func Create(config Config, columns []types.Column) (*Tree, error) {
	if len(columns) == 0 {
		return nil, ConfigError{Message: "columns must be non-empty"}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(sstsDir(config.FilePath), 0o755); err != nil {
		return nil, IoError{Op: "create tree directory", Err: err}
	}
	if _, err := OpenWAL(walPath(config.FilePath), config.SyncWrites); err != nil {
		return nil, err
	}
	if err := writeConfigFile(config.FilePath, columns); err != nil {
		return nil, err
	}

	return &Tree{
		path:     config.FilePath,
		columns:  columns,
		memtable: NewMemTable(config.MemTableMaxSize),
		levels:   nil,
		config:   config,
		metrics:  NewMetrics(),
		logger:   utils.NewLogger("lsmtree", utils.LevelForLogLevel(config.LogLevel)),
	}, nil
}

// Load reconstructs a tree from an existing directory: reads
// config.txt for the column list, replays wal.txt into a fresh
// memtable, and scans ssts/ for sst_<i>_<j>.txt files, requiring
// level and within-level indices to be contiguous from 0 (scanning
// stops at the first missing sst_i_0).
func Load(config Config) (*Tree, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	columns, err := readConfigFile(config.FilePath)
	if err != nil {
		return nil, err
	}

	wal, err := OpenWAL(walPath(config.FilePath), config.SyncWrites)
	if err != nil {
		return nil, err
	}
	mt, err := wal.Replay(columns, config.MemTableMaxSize, config.RecoveryMode == "best_effort")
	if err != nil {
		return nil, err
	}

	levels, err := loadLevels(sstsDir(config.FilePath))
	if err != nil {
		return nil, err
	}

	return &Tree{
		path:     config.FilePath,
		columns:  columns,
		memtable: mt,
		levels:   levels,
		config:   config,
		metrics:  NewMetrics(),
		logger:   utils.NewLogger("lsmtree", utils.LevelForLogLevel(config.LogLevel)),
	}, nil
}

func writeConfigFile(path string, columns []types.Column) error {
	f, err := os.Create(configPath(path))
	if err != nil {
		return IoError{Op: "create config.txt", Err: err}
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, col := range columns {
		if _, err := w.WriteString(col.Name + string(separator) + string(col.Type) + "\n"); err != nil {
			return IoError{Op: "write config.txt", Err: err}
		}
	}
	return w.Flush()
}

func readConfigFile(path string) ([]types.Column, error) {
	f, err := os.Open(configPath(path))
	if err != nil {
		return nil, IoError{Op: "open config.txt", Err: err}
	}
	defer f.Close()

	var columns []types.Column
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, string(separator), 2)
		if len(parts) != 2 || len(parts[1]) != 1 {
			return nil, ConfigError{Message: "malformed config.txt line: " + line}
		}
		colType, ok := types.ParseColumnType(parts[1][0])
		if !ok {
			return nil, ConfigError{Message: "unknown column type in config.txt: " + parts[1]}
		}
		columns = append(columns, types.Column{Name: parts[0], Type: colType})
	}
	if err := scanner.Err(); err != nil {
		return nil, IoError{Op: "read config.txt", Err: err}
	}
	if len(columns) == 0 {
		return nil, ConfigError{Message: "config.txt has no columns"}
	}
	return columns, nil
}

func loadLevels(dir string) ([][]*SSTable, error) {
	var levels [][]*SSTable
	for i := 0; ; i++ {
		var level []*SSTable
		for j := 0; ; j++ {
			name := filepath.Join(dir, "sst_"+strconv.Itoa(i)+"_"+strconv.Itoa(j)+".txt")
			if _, err := os.Stat(name); err != nil {
				break
			}
			sst, err := LoadFromDisk(name)
			if err != nil {
				return nil, err
			}
			level = append(level, sst)
		}
		if len(level) == 0 {
			break
		}
		levels = append(levels, level)
	}
	return levels, nil
}
