package main

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/thanhfphan/dblite/internal/sqlite"
)

// parseSelect turns a SELECT statement into the executor's query descriptor.
// The accepted grammar is deliberately tiny: a projection of plain columns,
// `*` or a single count(*), one table, and at most one `col = literal`
// WHERE clause. Everything else is an unsupported query.
func parseSelect(command string) (*sqlite.Query, error) {
	stmt, err := sqlparser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sqlite.ErrUnsupportedQuery, err)
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, fmt.Errorf("%w: only SELECT statements are supported", sqlite.ErrUnsupportedQuery)
	}

	if len(sel.GroupBy) > 0 || len(sel.OrderBy) > 0 || sel.Limit != nil || sel.Having != nil || sel.Distinct != "" {
		return nil, fmt.Errorf("%w: GROUP BY, ORDER BY, HAVING, LIMIT and DISTINCT are not supported", sqlite.ErrUnsupportedQuery)
	}

	q := &sqlite.Query{}

	if q.TableName, err = parseFrom(sel); err != nil {
		return nil, err
	}
	if err := parseProjection(sel, q); err != nil {
		return nil, err
	}
	if q.Filter, err = parseWhere(sel); err != nil {
		return nil, err
	}

	return q, nil
}

func parseFrom(sel *sqlparser.Select) (string, error) {
	if len(sel.From) != 1 {
		return "", fmt.Errorf("%w: exactly one table is required", sqlite.ErrUnsupportedQuery)
	}

	aliased, ok := sel.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return "", fmt.Errorf("%w: joins are not supported", sqlite.ErrUnsupportedQuery)
	}

	tableName, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return "", fmt.Errorf("%w: subqueries are not supported", sqlite.ErrUnsupportedQuery)
	}

	return tableName.Name.String(), nil
}

func parseProjection(sel *sqlparser.Select, q *sqlite.Query) error {
	for _, expr := range sel.SelectExprs {
		switch e := expr.(type) {
		case *sqlparser.StarExpr:
			q.Star = true

		case *sqlparser.AliasedExpr:
			switch col := e.Expr.(type) {
			case *sqlparser.ColName:
				q.Columns = append(q.Columns, col.Name.Lowered())
			case *sqlparser.FuncExpr:
				if col.Name.Lowered() != "count" {
					return fmt.Errorf("%w: function %s is not supported", sqlite.ErrUnsupportedQuery, col.Name.Lowered())
				}
				if q.Count || len(col.Exprs) != 1 {
					return fmt.Errorf("%w: only a single count(*) is supported", sqlite.ErrUnsupportedQuery)
				}
				if _, ok := col.Exprs[0].(*sqlparser.StarExpr); !ok {
					return fmt.Errorf("%w: only a single count(*) is supported", sqlite.ErrUnsupportedQuery)
				}
				q.Count = true
			default:
				return fmt.Errorf("%w: unsupported select expression", sqlite.ErrUnsupportedQuery)
			}

		default:
			return fmt.Errorf("%w: unsupported select expression", sqlite.ErrUnsupportedQuery)
		}
	}

	if q.Count && (q.Star || len(q.Columns) > 0) {
		return fmt.Errorf("%w: count(*) cannot be mixed with columns", sqlite.ErrUnsupportedQuery)
	}
	if !q.Count && !q.Star && len(q.Columns) == 0 {
		return fmt.Errorf("%w: empty projection", sqlite.ErrUnsupportedQuery)
	}

	return nil
}

func parseWhere(sel *sqlparser.Select) (*sqlite.EqualFilter, error) {
	if sel.Where == nil {
		return nil, nil
	}

	cmp, ok := sel.Where.Expr.(*sqlparser.ComparisonExpr)
	if !ok || cmp.Operator != sqlparser.EqualStr {
		return nil, fmt.Errorf("%w: only a single col = literal clause is supported", sqlite.ErrUnsupportedQuery)
	}

	col, ok := cmp.Left.(*sqlparser.ColName)
	if !ok {
		return nil, fmt.Errorf("%w: the left side of WHERE must be a column", sqlite.ErrUnsupportedQuery)
	}

	val, ok := cmp.Right.(*sqlparser.SQLVal)
	if !ok || (val.Type != sqlparser.StrVal && val.Type != sqlparser.IntVal && val.Type != sqlparser.FloatVal) {
		return nil, fmt.Errorf("%w: the right side of WHERE must be a literal", sqlite.ErrUnsupportedQuery)
	}

	return &sqlite.EqualFilter{
		Column: strings.ToLower(col.Name.String()),
		Value:  string(val.Val),
	}, nil
}
