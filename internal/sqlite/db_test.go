package sqlite

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	pages := [][]byte{schemaPage(t)}
	db := openTestDB(t, pages)

	assert.Equal(t, uint32(testPageSize), db.PageSize)
	assert.Equal(t, uint32(1), db.PageCount)
}

func TestNew_NotSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.db")
	require.NoError(t, os.WriteFile(path, make([]byte, 200), 0o644))

	_, err := New(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not SQLite format")
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}

func TestNew_TruncatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.db")
	require.NoError(t, os.WriteFile(path, SQLiteSignature[:], 0o644))

	_, err := New(path)
	assert.Error(t, err)
}

func TestNew_UnsupportedTextEncoding(t *testing.T) {
	path := writeDBFile(t, [][]byte{schemaPage(t)})

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.BigEndian.PutUint32(buf[56:], 2) // UTF-16le
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err = New(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text encoding")
}

func TestFetchPage(t *testing.T) {
	leaf := buildPage(t, false, pageSpec{typ: LEAF_TABLE_PAGE})
	db := openTestDB(t, [][]byte{schemaPage(t), leaf})

	page, err := db.FetchPage(2)
	require.NoError(t, err)
	require.Len(t, page, testPageSize)
	assert.Equal(t, byte(LEAF_TABLE_PAGE), page[0])
}

func TestFetchPage_ShortRead(t *testing.T) {
	db := openTestDB(t, [][]byte{schemaPage(t)})

	_, err := db.FetchPage(2)
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestFetchPage_InvalidPageNumber(t *testing.T) {
	db := openTestDB(t, [][]byte{schemaPage(t)})

	_, err := db.FetchPage(0)
	assert.Error(t, err)
}
