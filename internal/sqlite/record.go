package sqlite

import "fmt"

// ParseRecord decodes one record payload: a varint header size, one serial
// type varint per column, then the column bodies in the same order.
//
// https://www.sqlite.org/fileformat.html#record_format
func ParseRecord(payload []byte) ([]Value, error) {
	headerSize, n, err := ParseVarInt(payload)
	if err != nil {
		return nil, fmt.Errorf("parse record header size err: %w", err)
	}
	if headerSize < uint64(n) || headerSize > uint64(len(payload)) {
		return nil, fmt.Errorf("%w: header size %d out of range for %d byte payload",
			ErrTruncatedRecord, headerSize, len(payload))
	}

	serialtypes := []uint64{}
	cursor := n
	for cursor < int(headerSize) {
		st, n, err := ParseVarInt(payload[cursor:int(headerSize)])
		if err != nil {
			return nil, fmt.Errorf("parse serial type err: %w", err)
		}
		cursor += n
		serialtypes = append(serialtypes, st)
	}

	cursor = int(headerSize)
	values := make([]Value, len(serialtypes))
	for i, st := range serialtypes {
		val, n, err := ParseSerialValue(payload[cursor:], st)
		if err != nil {
			return nil, fmt.Errorf("parse column %d value err: %w", i, err)
		}
		cursor += n
		values[i] = val
	}

	return values, nil
}

// padColumns grows values with trailing NULLs up to columnCount. Rows written
// before an ALTER TABLE ADD COLUMN carry fewer columns than the schema
// declares, the missing ones read as NULL.
func padColumns(values []Value, columnCount int) []Value {
	for len(values) < columnCount {
		values = append(values, NullValue())
	}
	return values
}
