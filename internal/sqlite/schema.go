package sqlite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// CREATE TABLE sqlite_schema(
//
//	type text,
//	name text,
//	tbl_name text,
//	rootpage integer,
//	sql text
//
// );
// https://www.sqlite.org/fileformat.html#storage_of_the_sql_database_schema
const schemaColumnCount = 5

const schemaRootPage = 1

// Table describes one user table: where its b-tree lives, the declared
// column order, and which column (if any) aliases the row-id.
type Table struct {
	Name     string
	RootPage uint32
	Columns  []string
	// IdentityColumn is the index into Columns of the INTEGER PRIMARY KEY
	// column, or -1. Its stored value is NULL, the row-id stands in for it.
	IdentityColumn int
	SQL            string
}

// ColumnIndex resolves a column name to its position in the record.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, col := range t.Columns {
		if strings.EqualFold(col, name) {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownColumn, "%s.%s", t.Name, name)
}

// Index describes one index: its b-tree root, the table it targets and the
// indexed columns in declared order.
type Index struct {
	Name      string
	TableName string
	RootPage  uint32
	Columns   []string
	SQL       string
}

// Schema is the parsed content of sqlite_schema, tables and indexes only.
type Schema struct {
	Tables  []*Table
	Indexes []*Index
}

// Table resolves a table by name, case-insensitively like SQLite does.
func (s *Schema) Table(name string) (*Table, error) {
	for _, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownTable, "%s", name)
}

// IndexFor returns an index on the given table whose first indexed column is
// column, or nil when no such index exists.
func (s *Schema) IndexFor(table, column string) *Index {
	for _, idx := range s.Indexes {
		if strings.EqualFold(idx.TableName, table) && len(idx.Columns) > 0 && strings.EqualFold(idx.Columns[0], column) {
			return idx
		}
	}
	return nil
}

// UserTableNames returns the sorted names of user tables. Internal tables
// (sqlite_schema itself is never listed, sqlite_sequence and friends carry
// the reserved sqlite_ prefix) are dropped.
func (s *Schema) UserTableNames() []string {
	names := []string{}
	for _, t := range s.Tables {
		if strings.HasPrefix(t.Name, "sqlite_") {
			continue
		}
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// ReadSchema walks the sqlite_schema table on page 1 and parses every row.
// The schema b-tree goes through the generic table walker, a database with
// many schema rows can have an interior root page.
func (db *DBLite) ReadSchema() (*Schema, error) {
	db.log.Debugw("read schema", "page", schemaRootPage)

	schema := &Schema{}

	err := db.TableScan(schemaRootPage, func(cell TableCell) error {
		values, err := ParseRecord(cell.Payload)
		if err != nil {
			return errors.Wrapf(err, "schema row %d", cell.RowID)
		}
		values = padColumns(values, schemaColumnCount)

		rowType := string(values[0].Bytes)
		switch rowType {
		case "table":
			table, err := schemaTable(values)
			if err != nil {
				return errors.Wrapf(err, "schema row %d", cell.RowID)
			}
			schema.Tables = append(schema.Tables, table)
		case "index":
			if values[4].IsNull() {
				// automatic indexes (sqlite_autoindex_*) carry no SQL, there
				// is no way to know their columns, so they are never picked
				return nil
			}
			index, err := schemaIndex(values)
			if err != nil {
				return errors.Wrapf(err, "schema row %d", cell.RowID)
			}
			schema.Indexes = append(schema.Indexes, index)
		case "view", "trigger":
			// present in the schema but nothing to read from them
		default:
			return errors.Wrapf(ErrInvalidSchemaType, "%q in schema row %d", rowType, cell.RowID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return schema, nil
}

func schemaRootPageValue(v Value) (uint32, error) {
	if v.Type != TypeInt || v.Int < 0 {
		return 0, fmt.Errorf("%w: rootpage is not an integer", ErrTruncatedRecord)
	}
	return uint32(v.Int), nil
}

func schemaTable(values []Value) (*Table, error) {
	rootPage, err := schemaRootPageValue(values[3])
	if err != nil {
		return nil, err
	}

	table := &Table{
		Name:           string(values[1].Bytes),
		RootPage:       rootPage,
		IdentityColumn: -1,
		SQL:            string(values[4].Bytes),
	}

	columns, identity, err := ParseCreateTable(table.SQL)
	if err != nil {
		return nil, errors.Wrapf(err, "table %s", table.Name)
	}
	table.Columns = columns
	table.IdentityColumn = identity

	return table, nil
}

func schemaIndex(values []Value) (*Index, error) {
	rootPage, err := schemaRootPageValue(values[3])
	if err != nil {
		return nil, err
	}

	index := &Index{
		Name:     string(values[1].Bytes),
		RootPage: rootPage,
		SQL:      string(values[4].Bytes),
	}

	tableName, columns, err := ParseCreateIndex(index.SQL)
	if err != nil {
		return nil, errors.Wrapf(err, "index %s", index.Name)
	}
	index.TableName = tableName
	index.Columns = columns

	return index, nil
}
