package sqlite

const (
	HEADER_SIZE = 100
)

// The one-byte flag at offset 0 of a b-tree page header.
//   - A value of 2 (0x02) means the page is an interior index b-tree page.
//   - A value of 5 (0x05) means the page is an interior table b-tree page.
//   - A value of 10 (0x0a) means the page is a leaf index b-tree page.
//   - A value of 13 (0x0d) means the page is a leaf table b-tree page.
//     Any other value for the b-tree page type is an error.
const (
	INTERIOR_INDEX_PAGE PageType = 0x02
	INTERIOR_TABLE_PAGE PageType = 0x05
	LEAF_INDEX_PAGE     PageType = 0x0a
	LEAF_TABLE_PAGE     PageType = 0x0d
)

const (
	MASK_FIRST_BIT_ENABLE = 0b1000_0000
	MASK_LAST_SEVEN_BIT   = 0b0111_1111
)
