package sqlite

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	SQLiteSignature = [16]byte{83, 81, 76, 105, 116, 101, 32, 102, 111, 114, 109, 97, 116, 32, 51, 0} // `SQLite format 3\000`
)

// Offset	Size	Description
// 0		16		The header string: "SQLite format 3\000"
// 16		2		The database page size in bytes. A power of two between 512 and 32768 inclusive, or the value 1 representing a page size of 65536.
// 18		1		File format write version. 1 for legacy; 2 for WAL.
// 19		1		File format read version. 1 for legacy; 2 for WAL.
// 20		1		Bytes of unused "reserved" space at the end of each page. Usually 0.
// 24		4		File change counter.
// 28		4		Size of the database file in pages. The "in-header database size".
// 56		4		The database text encoding. 1 means UTF-8, 2 UTF-16le, 3 UTF-16be.
type dbHeader struct {
	HeaderTitle  [16]byte
	PageSize     uint16
	_            [10]byte
	PageCount    uint32 // Size of the database file in pages. The "in-header database size".
	_            [24]byte
	TextEncoding uint32
	_            [40]byte
}

const textEncodingUTF8 = 1

// DBLite is a read-only handle on one SQLite database file. A single file
// descriptor is held for the lifetime of the handle, pages are read on
// demand and never cached.
type DBLite struct {
	file *os.File

	PageSize  uint32
	PageCount uint32

	log   *zap.SugaredLogger
	trace *zap.SugaredLogger
}

type Option func(*DBLite)

// WithLogger installs the debug logger used for component entry/exit traces.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(db *DBLite) { db.log = log }
}

// WithTraceLogger installs the byte-level trace logger.
func WithTraceLogger(log *zap.SugaredLogger) Option {
	return func(db *DBLite) { db.trace = log }
}

func New(filePath string, opts ...Option) (*DBLite, error) {
	dbfile, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open file db: %s", filePath)
	}

	rawheader := make([]byte, HEADER_SIZE)
	if _, err := io.ReadFull(dbfile, rawheader); err != nil {
		dbfile.Close()
		return nil, errors.Wrap(err, "read header")
	}

	var header dbHeader
	if err := binary.Read(bytes.NewReader(rawheader), binary.BigEndian, &header); err != nil {
		dbfile.Close()
		return nil, errors.Wrap(err, "parse header")
	}

	if header.HeaderTitle != SQLiteSignature {
		dbfile.Close()
		return nil, errors.Errorf("the file %s is not SQLite format", filePath)
	}

	pageSize := uint32(header.PageSize)
	if header.PageSize == 1 {
		pageSize = 65536
	}

	if header.TextEncoding != 0 && header.TextEncoding != textEncodingUTF8 {
		dbfile.Close()
		return nil, errors.Errorf("unsupported text encoding: %d, only UTF-8 is handled", header.TextEncoding)
	}

	db := &DBLite{
		file:      dbfile,
		PageSize:  pageSize,
		PageCount: header.PageCount,
		log:       zap.NewNop().Sugar(),
		trace:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(db)
	}

	db.log.Debugw("opened database", "path", filePath, "page_size", db.PageSize, "page_count", db.PageCount)

	return db, nil
}

func (db *DBLite) Close() error {
	return db.file.Close()
}

// FetchPage reads the pageSize bytes of the given 1-based page number.
func (db *DBLite) FetchPage(pageNum uint32) ([]byte, error) {
	if pageNum < 1 {
		return nil, errors.Errorf("invalid page number: %d", pageNum)
	}

	page := make([]byte, db.PageSize)
	offset := int64(pageNum-1) * int64(db.PageSize)

	n, err := db.file.ReadAt(page, offset)
	if err == io.EOF || err == io.ErrUnexpectedEOF || (err == nil && n < len(page)) {
		return nil, errors.Wrapf(ErrShortRead, "page %d: got %d of %d bytes", pageNum, n, db.PageSize)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read page %d", pageNum)
	}

	db.trace.Debugw("fetched page", "page", pageNum, "offset", offset)

	return page, nil
}

// headerOffset is where the b-tree page header starts within a page. Page 1
// carries the 100-byte file header first.
func headerOffset(pageNum uint32) int {
	if pageNum == 1 {
		return HEADER_SIZE
	}
	return 0
}

// btreePage fetches a page and parses its b-tree header and cell pointers.
func (db *DBLite) btreePage(pageNum uint32) (PageHeader, []uint16, []byte, error) {
	page, err := db.FetchPage(pageNum)
	if err != nil {
		return PageHeader{}, nil, nil, err
	}

	start := headerOffset(pageNum)
	header, err := ParsePageHeader(page, start)
	if err != nil {
		return PageHeader{}, nil, nil, errors.Wrapf(err, "page %d", pageNum)
	}

	pointers, err := parseCellPointers(page, header, start)
	if err != nil {
		return PageHeader{}, nil, nil, errors.Wrapf(err, "page %d", pageNum)
	}

	db.trace.Debugw("parsed b-tree page", "page", pageNum, "type", header.Type.String(), "cells", header.NumberOfCells)

	return header, pointers, page, nil
}
