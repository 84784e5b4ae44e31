package sqlite

import (
	"strconv"

	"github.com/pkg/errors"
)

// Query is the parsed form of the restricted SELECT grammar the front-end
// accepts: a projection, one table, and at most one col = literal filter.
type Query struct {
	// Columns are the projected column names. Ignored when Star or Count is set.
	Columns []string
	// Star projects every column in declared order.
	Star bool
	// Count emits the matching row count instead of rows, for count(*).
	Count bool

	TableName string

	Filter *EqualFilter
}

// EqualFilter is a single col = literal clause. The literal keeps its source
// text, it takes a type only when compared against a column value.
type EqualFilter struct {
	Column string
	Value  string
}

// Execute runs the query against the schema and returns one string slice per
// row, columns already rendered for output. For count(*) the single result
// row holds the decimal count.
func (db *DBLite) Execute(q *Query, schema *Schema) ([][]string, error) {
	table, err := schema.Table(q.TableName)
	if err != nil {
		return nil, err
	}

	db.log.Debugw("execute", "table", table.Name, "root", table.RootPage,
		"count", q.Count, "filtered", q.Filter != nil)

	projection, err := resolveProjection(q, table)
	if err != nil {
		return nil, err
	}

	var filterIndex int
	if q.Filter != nil {
		filterIndex, err = table.ColumnIndex(q.Filter.Column)
		if err != nil {
			return nil, err
		}
	}

	count := 0
	result := [][]string{}

	emit := func(cell TableCell) error {
		// count(*) without a filter never needs the record decoded
		if q.Count && q.Filter == nil {
			count++
			return nil
		}

		values, err := ParseRecord(cell.Payload)
		if err != nil {
			return errors.Wrapf(err, "row %d", cell.RowID)
		}
		values = padColumns(values, len(table.Columns))
		if table.IdentityColumn >= 0 {
			values[table.IdentityColumn] = IntValue(int64(cell.RowID))
		}

		if q.Filter != nil {
			ok, err := matchesLiteral(values[filterIndex], q.Filter.Value)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}

		if q.Count {
			count++
			return nil
		}

		row := make([]string, len(projection))
		for i, col := range projection {
			row[i] = values[col].Text()
		}
		result = append(result, row)
		return nil
	}

	if q.Filter != nil {
		if idx := schema.IndexFor(table.Name, q.Filter.Column); idx != nil {
			db.log.Debugw("using index", "index", idx.Name, "root", idx.RootPage)

			rowids, err := db.ReadIndexData(idx.RootPage, q.Filter.Value)
			if err != nil {
				return nil, err
			}
			if err := db.IndexScan(table.RootPage, rowids, emit); err != nil {
				return nil, err
			}
			return finish(q, count, result), nil
		}
	}

	if err := db.TableScan(table.RootPage, emit); err != nil {
		return nil, err
	}
	return finish(q, count, result), nil
}

func finish(q *Query, count int, result [][]string) [][]string {
	if q.Count {
		return [][]string{{strconv.Itoa(count)}}
	}
	return result
}

// resolveProjection maps the projected column names to record positions.
func resolveProjection(q *Query, table *Table) ([]int, error) {
	if q.Count {
		return nil, nil
	}

	if q.Star {
		projection := make([]int, len(table.Columns))
		for i := range projection {
			projection[i] = i
		}
		return projection, nil
	}

	projection := make([]int, len(q.Columns))
	for i, name := range q.Columns {
		col, err := table.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		projection[i] = col
	}

	return projection, nil
}
