package lsmtree

import (
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"github.com/ravi-kapoor/ltree/pkg/types"
)

// separator is the single byte joining encoded column fields within a
// row's value blob, and joining the fields of a WAL line and of a
// config.txt line (SSTable files are length-prefixed and do not use
// it). It must never appear inside a key or inside a column's raw
// field bytes.
const separator = '|'

// EncodeRow concatenates one raw field per column, in column order,
// joined by separator bytes: N-1 separators, no leading or trailing
// separator. values must have exactly one entry per column and each
// entry's Type must match the column's declared type.
func EncodeRow(columns []types.Column, values []types.Value) (string, error) {
	if len(values) != len(columns) {
		return "", SchemaError{Message: "value count does not match column count"}
	}
	fields := make([]string, len(columns))
	for i, col := range columns {
		v := values[i]
		if v.Type != col.Type {
			return "", SchemaError{Message: "value type does not match column " + col.Name}
		}
		field, err := encodeField(col.Type, v)
		if err != nil {
			return "", err
		}
		if strings.IndexByte(field, separator) >= 0 {
			return "", ErrSeparatorInField
		}
		fields[i] = field
	}
	return strings.Join(fields, string(separator)), nil
}

func encodeField(t types.ColumnType, v types.Value) (string, error) {
	switch t {
	case types.ColumnInt32:
		n, _ := v.Int32()
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(n))
		return string(buf), nil
	case types.ColumnBool:
		b, _ := v.Bool()
		if b {
			return "\x01", nil
		}
		return "\x00", nil
	case types.ColumnText:
		s, _ := v.Text()
		return s, nil
	default:
		return "", SchemaError{Message: "unknown column type"}
	}
}

// DecodeRow splits an encoded value blob on separator into exactly
// len(columns) parts and parses each part per its column's type.
func DecodeRow(columns []types.Column, value string) (map[string]types.Value, error) {
	parts := strings.Split(value, string(separator))
	if len(parts) != len(columns) {
		return nil, DecodeError{Message: "wrong field count after split"}
	}
	out := make(map[string]types.Value, len(columns))
	for i, col := range columns {
		val, err := decodeField(col, parts[i])
		if err != nil {
			return nil, err
		}
		out[col.Name] = val
	}
	return out, nil
}

func decodeField(col types.Column, part string) (types.Value, error) {
	switch col.Type {
	case types.ColumnInt32:
		if len(part) != 4 {
			return types.Value{}, DecodeError{Column: col.Name, Message: "Int32 field must be 4 bytes"}
		}
		n := int32(binary.LittleEndian.Uint32([]byte(part)))
		return types.Int32Value(n), nil
	case types.ColumnBool:
		if len(part) != 1 || (part[0] != 0x00 && part[0] != 0x01) {
			return types.Value{}, DecodeError{Column: col.Name, Message: "Bool field must be a single 0x00/0x01 byte"}
		}
		return types.BoolValue(part[0] == 0x01), nil
	case types.ColumnText:
		if !utf8.ValidString(part) {
			return types.Value{}, DecodeError{Column: col.Name, Message: "Text field is not valid UTF-8"}
		}
		return types.TextValue(part), nil
	default:
		return types.Value{}, DecodeError{Column: col.Name, Message: "unknown column type"}
	}
}
