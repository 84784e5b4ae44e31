package sqlite

import "errors"

// Every byte-level decoding failure maps onto one of these sentinels so the
// caller can match with errors.Is regardless of the context wrapped around it.
var (
	// ErrShortRead means the file ended before an expected page boundary, or
	// a page header, cell pointer or cell runs past the end of its page.
	ErrShortRead = errors.New("short read")
	// ErrInvalidPageType means a b-tree page type outside {0x02, 0x05, 0x0a, 0x0d},
	// or a page of the wrong kind for the walk (an index page in a table scan
	// or the reverse).
	ErrInvalidPageType = errors.New("invalid page type")
	// ErrTruncatedVarint means a varint ran past the end of its buffer.
	ErrTruncatedVarint = errors.New("truncated varint")
	// ErrInvalidSerialType means serial type 10 or 11, which are reserved.
	ErrInvalidSerialType = errors.New("invalid serial type")
	// ErrTruncatedRecord means a record body shorter than its header promises,
	// or a record lacking a column the reader needs in integer form (an index
	// record's row-id, a schema row's rootpage).
	ErrTruncatedRecord = errors.New("truncated record")
	// ErrInvalidSchemaType means a sqlite_schema row with an unknown type column.
	ErrInvalidSchemaType = errors.New("invalid schema type")
	// ErrOverflowPayload means a record too large to fit on its page.
	// Overflow chains are not supported, reject instead of mis-decoding.
	ErrOverflowPayload = errors.New("overflow payload not supported")
	// ErrUnknownTable means the queried table is not in sqlite_schema.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownColumn means a projected or filtered column is not in the table.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnsupportedQuery means a query outside the restricted grammar, or a
	// predicate whose literal cannot take the column's type.
	ErrUnsupportedQuery = errors.New("unsupported query")
)
