package sqlite

import (
	"fmt"
	"strings"
)

// The DDL stored in sqlite_schema is the text the user typed, so only the
// dialect SQLite itself emits needs to parse here: CREATE TABLE with a plain
// comma-separated column list, CREATE INDEX with a column list. Nested
// parentheses, CHECK constraints, FOREIGN KEY clauses and composite
// PRIMARY KEY(...) are outside the supported dialect.

// ParseCreateTable extracts the ordered column names from a CREATE TABLE
// statement, plus the position of the INTEGER PRIMARY KEY column (-1 when
// absent), which aliases the row-id.
func ParseCreateTable(sql string) (columns []string, identity int, err error) {
	body, err := parenBody(sql)
	if err != nil {
		return nil, 0, fmt.Errorf("create table: %w", err)
	}

	identity = -1
	for _, item := range splitTopLevel(body) {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			return nil, 0, fmt.Errorf("create table: empty column definition in %q", sql)
		}

		name := unquoteIdentifier(fields[0])
		rest := strings.ToUpper(strings.Join(fields[1:], " "))

		if strings.Contains(rest, "INTEGER PRIMARY KEY") {
			identity = len(columns)
		}

		columns = append(columns, name)
	}

	if len(columns) == 0 {
		return nil, 0, fmt.Errorf("create table: no columns in %q", sql)
	}

	return columns, identity, nil
}

// ParseCreateIndex extracts the target table name and the ordered indexed
// columns from a CREATE INDEX statement.
func ParseCreateIndex(sql string) (tableName string, columns []string, err error) {
	body, err := parenBody(sql)
	if err != nil {
		return "", nil, fmt.Errorf("create index: %w", err)
	}

	head := sql[:strings.IndexByte(sql, '(')]
	fields := strings.Fields(head)
	onAt := -1
	for i, f := range fields {
		if strings.EqualFold(f, "on") {
			onAt = i
		}
	}
	if onAt < 0 || onAt+1 >= len(fields) {
		return "", nil, fmt.Errorf("create index: missing ON clause in %q", sql)
	}
	tableName = unquoteIdentifier(fields[onAt+1])

	for _, item := range splitTopLevel(body) {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			return "", nil, fmt.Errorf("create index: empty column in %q", sql)
		}
		// drop COLLATE / ASC / DESC qualifiers, the name comes first
		columns = append(columns, unquoteIdentifier(fields[0]))
	}

	if len(columns) == 0 {
		return "", nil, fmt.Errorf("create index: no columns in %q", sql)
	}

	return tableName, columns, nil
}

// parenBody returns the text between the first '(' and its matching last ')'.
func parenBody(sql string) (string, error) {
	open := strings.IndexByte(sql, '(')
	end := strings.LastIndexByte(sql, ')')
	if open < 0 || end < open {
		return "", fmt.Errorf("no parenthesized body in %q", sql)
	}
	return sql[open+1 : end], nil
}

// splitTopLevel splits on commas, ignoring empty items. The supported
// dialect has no nested parentheses, so a plain split is enough.
func splitTopLevel(body string) []string {
	items := []string{}
	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// unquoteIdentifier strips the quoting styles SQLite accepts around an
// identifier: "double", `backtick`, [bracket].
func unquoteIdentifier(s string) string {
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"',
			s[0] == '`' && s[len(s)-1] == '`':
			return s[1 : len(s)-1]
		case s[0] == '[' && s[len(s)-1] == ']':
			return s[1 : len(s)-1]
		}
	}
	return s
}
