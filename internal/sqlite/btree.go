package sqlite

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// TableCell is one table-leaf cell: the row-id plus the raw record payload.
// Decoding the record is left to the caller so that paths like count(*) can
// skip it.
type TableCell struct {
	RowID   uint64
	Payload []byte
}

// parseLeafTableCell decodes a table-leaf cell at the given page offset:
// varint payload size, varint row-id, payload bytes. Payloads that do not
// fit on the page would continue on an overflow chain, which this reader
// rejects.
func parseLeafTableCell(page []byte, offset int) (TableCell, error) {
	payloadSize, n, err := ParseVarInt(page[offset:])
	if err != nil {
		return TableCell{}, fmt.Errorf("parse payload size err: %w", err)
	}
	offset += n

	rowID, n, err := ParseVarInt(page[offset:])
	if err != nil {
		return TableCell{}, fmt.Errorf("parse row_id err: %w", err)
	}
	offset += n

	if payloadSize > uint64(len(page)-offset) {
		return TableCell{}, fmt.Errorf("%w: payload of %d bytes at offset %d", ErrOverflowPayload, payloadSize, offset)
	}

	return TableCell{RowID: rowID, Payload: page[offset : offset+int(payloadSize)]}, nil
}

// parseIndexPayload decodes the payload of an index cell starting at offset,
// skipping the 4-byte left-child pointer first when interior is set.
func parseIndexPayload(page []byte, offset int, interior bool) (payload []byte, leftChild uint32, err error) {
	if interior {
		if offset+4 > len(page) {
			return nil, 0, fmt.Errorf("%w: interior index cell truncated", ErrShortRead)
		}
		leftChild = binary.BigEndian.Uint32(page[offset : offset+4])
		offset += 4
	}

	payloadSize, n, err := ParseVarInt(page[offset:])
	if err != nil {
		return nil, 0, fmt.Errorf("parse payload size err: %w", err)
	}
	offset += n

	if payloadSize > uint64(len(page)-offset) {
		return nil, 0, fmt.Errorf("%w: payload of %d bytes at offset %d", ErrOverflowPayload, payloadSize, offset)
	}

	return page[offset : offset+int(payloadSize)], leftChild, nil
}

// TableScan walks the table b-tree rooted at pageNum in order and calls fn
// for every leaf cell. Rows arrive in ascending row-id order.
func (db *DBLite) TableScan(pageNum uint32, fn func(TableCell) error) error {
	db.log.Debugw("table scan", "page", pageNum)

	header, pointers, page, err := db.btreePage(pageNum)
	if err != nil {
		return err
	}

	switch header.Type {
	case LEAF_TABLE_PAGE:
		for _, p := range pointers {
			cell, err := parseLeafTableCell(page, int(p))
			if err != nil {
				return errors.Wrapf(err, "page %d cell at 0x%04x", pageNum, p)
			}
			if err := fn(cell); err != nil {
				return err
			}
		}
		return nil

	case INTERIOR_TABLE_PAGE:
		for _, p := range pointers {
			if int(p)+4 > len(page) {
				return errors.Wrapf(ErrShortRead, "page %d interior cell at 0x%04x", pageNum, p)
			}
			leftChild := binary.BigEndian.Uint32(page[int(p) : int(p)+4])
			if err := db.TableScan(leftChild, fn); err != nil {
				return err
			}
		}
		return db.TableScan(header.RightMostPointer, fn)

	default:
		return errors.Wrapf(ErrInvalidPageType, "page %d is %s, want a table page", pageNum, header.Type)
	}
}

// indexKey splits an index record into its key (first indexed column) and
// the row-id it points at (last column of the record).
func indexKey(payload []byte) (Value, uint64, error) {
	values, err := ParseRecord(payload)
	if err != nil {
		return Value{}, 0, err
	}
	if len(values) < 2 {
		return Value{}, 0, fmt.Errorf("%w: index record has %d columns, want at least 2", ErrTruncatedRecord, len(values))
	}

	rowRef := values[len(values)-1]
	if rowRef.Type != TypeInt {
		return Value{}, 0, fmt.Errorf("%w: index record row-id is not an integer", ErrTruncatedRecord)
	}

	return values[0], uint64(rowRef.Int), nil
}

// ReadIndexData walks the index b-tree rooted at pageNum and returns the
// row-ids of every entry whose key equals the literal. Keys are sorted
// ascending within and across pages, so the walk stops as soon as it has
// moved past the window of equal keys.
func (db *DBLite) ReadIndexData(pageNum uint32, literal string) ([]uint64, error) {
	db.log.Debugw("index probe", "page", pageNum, "value", literal)

	rowids, _, err := db.readIndexPage(pageNum, literal)
	return rowids, err
}

// readIndexPage returns the matching row-ids under pageNum and whether the
// walk ran past the last possible match.
func (db *DBLite) readIndexPage(pageNum uint32, literal string) (rowids []uint64, past bool, err error) {
	header, pointers, page, err := db.btreePage(pageNum)
	if err != nil {
		return nil, false, err
	}

	switch header.Type {
	case LEAF_INDEX_PAGE:
		for _, p := range pointers {
			payload, _, err := parseIndexPayload(page, int(p), false)
			if err != nil {
				return nil, false, errors.Wrapf(err, "page %d cell at 0x%04x", pageNum, p)
			}
			key, rowID, err := indexKey(payload)
			if err != nil {
				return nil, false, errors.Wrapf(err, "page %d cell at 0x%04x", pageNum, p)
			}

			cmp, err := compareLiteral(key, literal)
			if err != nil {
				return nil, false, err
			}
			if cmp == 0 {
				rowids = append(rowids, rowID)
			} else if cmp > 0 {
				return rowids, true, nil
			}
		}
		return rowids, false, nil

	case INTERIOR_INDEX_PAGE:
		for _, p := range pointers {
			payload, leftChild, err := parseIndexPayload(page, int(p), true)
			if err != nil {
				return nil, false, errors.Wrapf(err, "page %d cell at 0x%04x", pageNum, p)
			}
			key, rowID, err := indexKey(payload)
			if err != nil {
				return nil, false, errors.Wrapf(err, "page %d cell at 0x%04x", pageNum, p)
			}

			cmp, err := compareLiteral(key, literal)
			if err != nil {
				return nil, false, err
			}
			if cmp < 0 {
				// every key in the left subtree is <= this one
				continue
			}

			sub, subPast, err := db.readIndexPage(leftChild, literal)
			if err != nil {
				return nil, false, err
			}
			rowids = append(rowids, sub...)

			if cmp == 0 {
				// the separator cell itself holds a live entry
				rowids = append(rowids, rowID)
			}
			if cmp > 0 || subPast {
				// past the window of equal keys
				return rowids, true, nil
			}
		}

		sub, subPast, err := db.readIndexPage(header.RightMostPointer, literal)
		if err != nil {
			return nil, false, err
		}
		rowids = append(rowids, sub...)
		return rowids, subPast, nil

	default:
		return nil, false, errors.Wrapf(ErrInvalidPageType, "page %d is %s, want an index page", pageNum, header.Type)
	}
}

// IndexScan walks the table b-tree rooted at pageNum but visits only the
// interior children next to a wanted row-id: for each row-id, the first
// child whose max covers it and the last child whose max is at or below it,
// plus the right-most child for row-ids above every max. Leaf cells are
// filtered to exactly the wanted row-ids. Rows arrive in ascending row-id
// order no matter how rowids was ordered.
func (db *DBLite) IndexScan(pageNum uint32, rowids []uint64, fn func(TableCell) error) error {
	if len(rowids) == 0 {
		return nil
	}

	wanted := make([]uint64, len(rowids))
	copy(wanted, rowids)
	sort.Slice(wanted, func(i, j int) bool { return wanted[i] < wanted[j] })

	db.log.Debugw("index scan", "page", pageNum, "rowids", len(wanted))

	return db.indexScanPage(pageNum, wanted, fn)
}

func (db *DBLite) indexScanPage(pageNum uint32, wanted []uint64, fn func(TableCell) error) error {
	header, pointers, page, err := db.btreePage(pageNum)
	if err != nil {
		return err
	}

	switch header.Type {
	case LEAF_TABLE_PAGE:
		for _, p := range pointers {
			cell, err := parseLeafTableCell(page, int(p))
			if err != nil {
				return errors.Wrapf(err, "page %d cell at 0x%04x", pageNum, p)
			}
			i := sort.Search(len(wanted), func(i int) bool { return wanted[i] >= cell.RowID })
			if i < len(wanted) && wanted[i] == cell.RowID {
				if err := fn(cell); err != nil {
					return err
				}
			}
		}
		return nil

	case INTERIOR_TABLE_PAGE:
		// cell row-ids are the maxima of their subtrees
		type childRef struct {
			page uint32
			max  uint64
		}
		children := make([]childRef, len(pointers))
		for i, p := range pointers {
			if int(p)+4 > len(page) {
				return errors.Wrapf(ErrShortRead, "page %d interior cell at 0x%04x", pageNum, p)
			}
			leftChild := binary.BigEndian.Uint32(page[int(p) : int(p)+4])
			max, _, err := ParseVarInt(page[int(p)+4:])
			if err != nil {
				return errors.Wrapf(err, "page %d interior cell at 0x%04x", pageNum, p)
			}
			children[i] = childRef{page: leftChild, max: max}
		}

		visit := make([]bool, len(children))
		visitRight := false
		for _, r := range wanted {
			// first child whose max covers r
			i := sort.Search(len(children), func(i int) bool { return children[i].max >= r })
			if i < len(children) {
				visit[i] = true
			} else {
				visitRight = true
			}
			// last child whose max is <= r; the same child as above when
			// r equals its max, otherwise its left neighbour, which cannot
			// hold r itself
			j := sort.Search(len(children), func(i int) bool { return children[i].max > r })
			if j-1 >= 0 {
				visit[j-1] = true
			}
		}

		for i, child := range children {
			if !visit[i] {
				continue
			}
			if err := db.indexScanPage(child.page, wanted, fn); err != nil {
				return err
			}
		}
		if visitRight {
			return db.indexScanPage(header.RightMostPointer, wanted, fn)
		}
		return nil

	default:
		return errors.Wrapf(ErrInvalidPageType, "page %d is %s, want a table page", pageNum, header.Type)
	}
}
