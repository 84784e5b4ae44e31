package sqlite

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fixture databases are assembled byte by byte: records, then cells, then
// pages, then the file. Everything is big-endian, exactly as on disk.

const testPageSize = 4096

// chooseSerial picks a serial type that can hold v. Integers take the
// narrowest of the 8, 16, 32 and 64-bit types; the 24 and 48-bit types and
// the constants 8 and 9 are never used.
func chooseSerial(v Value) (serialType uint64, body []byte) {
	switch v.Type {
	case TypeNull:
		return 0, nil
	case TypeInt:
		switch {
		case v.Int >= math.MinInt8 && v.Int <= math.MaxInt8:
			return 1, []byte{byte(v.Int)}
		case v.Int >= math.MinInt16 && v.Int <= math.MaxInt16:
			b := make([]byte, 2)
			binary.BigEndian.PutUint16(b, uint16(v.Int))
			return 2, b
		case v.Int >= math.MinInt32 && v.Int <= math.MaxInt32:
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, uint32(v.Int))
			return 4, b
		default:
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, uint64(v.Int))
			return 6, b
		}
	case TypeFloat:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, math.Float64bits(v.Float))
		return 7, b
	case TypeBlob:
		return 12 + 2*uint64(len(v.Bytes)), v.Bytes
	default: // TypeText
		return 13 + 2*uint64(len(v.Bytes)), v.Bytes
	}
}

// encodeRecord builds one record payload: header size varint, serial type
// varints, column bodies.
func encodeRecord(values ...Value) []byte {
	var serials []byte
	var body []byte
	for _, v := range values {
		st, b := chooseSerial(v)
		serials = AppendVarInt(serials, st)
		body = append(body, b...)
	}

	// the header size varint counts itself
	header := []byte{}
	for n := 1; ; n++ {
		header = AppendVarInt(header[:0], uint64(n+len(serials)))
		if len(header) == n {
			break
		}
	}

	record := append(header, serials...)
	return append(record, body...)
}

func leafTableCell(rowID uint64, record []byte) []byte {
	cell := AppendVarInt(nil, uint64(len(record)))
	cell = AppendVarInt(cell, rowID)
	return append(cell, record...)
}

func interiorTableCell(leftChild uint32, maxRowID uint64) []byte {
	cell := make([]byte, 4)
	binary.BigEndian.PutUint32(cell, leftChild)
	return AppendVarInt(cell, maxRowID)
}

func leafIndexCell(record []byte) []byte {
	cell := AppendVarInt(nil, uint64(len(record)))
	return append(cell, record...)
}

func interiorIndexCell(leftChild uint32, record []byte) []byte {
	cell := make([]byte, 4)
	binary.BigEndian.PutUint32(cell, leftChild)
	cell = AppendVarInt(cell, uint64(len(record)))
	return append(cell, record...)
}

// pageSpec describes one b-tree page for buildPage. Cells are fully encoded
// and listed in pointer-array (key) order.
type pageSpec struct {
	typ       PageType
	cells     [][]byte
	rightMost uint32
}

// buildPage lays a b-tree page out the way SQLite does: header and pointer
// array at the front, cell content packed at the back of the page.
func buildPage(t *testing.T, first bool, spec pageSpec) []byte {
	t.Helper()

	page := make([]byte, testPageSize)
	start := 0
	if first {
		start = HEADER_SIZE
	}

	headerSize := 8
	if spec.typ.interior() {
		headerSize = 12
	}

	content := testPageSize
	pointers := make([]uint16, len(spec.cells))
	for i, cell := range spec.cells {
		content -= len(cell)
		copy(page[content:], cell)
		pointers[i] = uint16(content)
	}

	arrayEnd := start + headerSize + 2*len(spec.cells)
	require.LessOrEqual(t, arrayEnd, content, "page overfull")

	page[start] = byte(spec.typ)
	binary.BigEndian.PutUint16(page[start+3:], uint16(len(spec.cells)))
	binary.BigEndian.PutUint16(page[start+5:], uint16(content))
	if spec.typ.interior() {
		binary.BigEndian.PutUint32(page[start+8:], spec.rightMost)
	}
	for i, p := range pointers {
		binary.BigEndian.PutUint16(page[start+headerSize+2*i:], p)
	}

	return page
}

// writeDBFile assembles a database file from pages. pages[0] is page 1 and
// must have been built with first=true, the 100-byte file header is written
// into it here.
func writeDBFile(t *testing.T, pages [][]byte) string {
	t.Helper()

	buf := []byte{}
	for _, page := range pages {
		require.Len(t, page, testPageSize)
		buf = append(buf, page...)
	}

	copy(buf[0:16], SQLiteSignature[:])
	binary.BigEndian.PutUint16(buf[16:], uint16(testPageSize))
	binary.BigEndian.PutUint32(buf[28:], uint32(len(pages)))
	binary.BigEndian.PutUint32(buf[56:], textEncodingUTF8)

	path := filepath.Join(t.TempDir(), "fixture.db")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	return path
}

func openTestDB(t *testing.T, pages [][]byte) *DBLite {
	t.Helper()

	db, err := New(writeDBFile(t, pages))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

// schemaRecord builds one sqlite_schema row.
func schemaRecord(rowType, name, tblName string, rootPage int64, sql string) []byte {
	sqlValue := TextValue(sql)
	if sql == "" {
		sqlValue = NullValue()
	}
	return encodeRecord(TextValue(rowType), TextValue(name), TextValue(tblName), IntValue(rootPage), sqlValue)
}

// schemaPage builds page 1 as a table-leaf holding the given schema rows.
func schemaPage(t *testing.T, records ...[]byte) []byte {
	t.Helper()

	cells := make([][]byte, len(records))
	for i, record := range records {
		cells[i] = leafTableCell(uint64(i+1), record)
	}

	return buildPage(t, true, pageSpec{typ: LEAF_TABLE_PAGE, cells: cells})
}
