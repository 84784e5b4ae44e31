package sqlite

import (
	"fmt"
	"strconv"
	"strings"
)

// compareLiteral orders a stored value against a query literal. The literal
// takes the type of the value it meets: string compare against TEXT, numeric
// compare against INTEGER and REAL. A literal that cannot take the column's
// type is an unsupported mixed-type comparison. NULL orders before
// everything and never equals anything.
func compareLiteral(v Value, literal string) (int, error) {
	switch v.Type {
	case TypeNull:
		return -1, nil
	case TypeText:
		return strings.Compare(string(v.Bytes), literal), nil
	case TypeInt:
		n, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot compare integer column with %q", ErrUnsupportedQuery, literal)
		}
		switch {
		case v.Int < n:
			return -1, nil
		case v.Int > n:
			return 1, nil
		default:
			return 0, nil
		}
	case TypeFloat:
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot compare real column with %q", ErrUnsupportedQuery, literal)
		}
		switch {
		case v.Float < f:
			return -1, nil
		case v.Float > f:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("%w: cannot compare blob column with a literal", ErrUnsupportedQuery)
	}
}

// matchesLiteral is the equality form of compareLiteral. NULL never matches.
func matchesLiteral(v Value, literal string) (bool, error) {
	if v.IsNull() {
		return false, nil
	}
	cmp, err := compareLiteral(v, literal)
	if err != nil {
		return false, err
	}
	return cmp == 0, nil
}
