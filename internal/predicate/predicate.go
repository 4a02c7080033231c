// Package predicate flattens a SQL WHERE clause into the binary
// comparisons the engine understands, and evaluates them against a
// resolved row.
package predicate

import (
	"strings"

	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/record"
	"github.com/xwb1989/sqlparser"
)

// Operator is one of the three comparisons the accepted SQL subset
// supports.
type Operator int

const (
	EQ Operator = iota
	LT
	GT
)

// Predicate is one `column <op> literal` comparison from a WHERE
// conjunction.
type Predicate struct {
	Column  string
	Op      Operator
	Literal record.Value
}

// ExtractConjunction flattens a WHERE expression tree of AndExpr nodes
// into its leaf binary comparisons. Only xwb1989/sqlparser's standard
// `AND` conjunction is supported; the comma-separated WHERE syntax
// named in the grammar is accepted by normalizing commas to `AND`
// before parsing (see the driver), so by the time an Expr reaches here
// it is already a pure AndExpr/ComparisonExpr tree.
func ExtractConjunction(expr sqlparser.Expr) ([]Predicate, error) {
	if expr == nil {
		return nil, nil
	}
	switch n := expr.(type) {
	case *sqlparser.AndExpr:
		left, err := ExtractConjunction(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := ExtractConjunction(n.Right)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case *sqlparser.ComparisonExpr:
		p, err := fromComparison(n)
		if err != nil {
			return nil, err
		}
		return []Predicate{p}, nil
	default:
		return nil, dberrors.New(dberrors.KindUnsupported, "extract_where_conjunction", dberrors.ErrSQLParse)
	}
}

func fromComparison(n *sqlparser.ComparisonExpr) (Predicate, error) {
	col, colOnLeft := n.Left.(*sqlparser.ColName)
	lit, litOnRight := n.Right.(*sqlparser.SQLVal)
	if !colOnLeft || !litOnRight {
		// Tolerate the literal-on-left form by swapping the operator.
		col, colOnLeft = n.Right.(*sqlparser.ColName)
		lit, litOnRight = n.Left.(*sqlparser.SQLVal)
		if !colOnLeft || !litOnRight {
			return Predicate{}, dberrors.New(dberrors.KindUnsupported, "extract_where_conjunction", dberrors.ErrSQLParse)
		}
		op, err := flippedOperator(n.Operator)
		if err != nil {
			return Predicate{}, err
		}
		val, err := literalValue(lit)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Column: col.Name.String(), Op: op, Literal: val}, nil
	}
	op, err := operatorFor(n.Operator)
	if err != nil {
		return Predicate{}, err
	}
	val, err := literalValue(lit)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Column: col.Name.String(), Op: op, Literal: val}, nil
}

// Operators compared as plain strings, matching how the teacher's own
// query optimizer inspects sqlparser.ComparisonExpr.Operator.
const (
	opEqualStr   = "="
	opLessStr    = "<"
	opGreaterStr = ">"
)

func operatorFor(op string) (Operator, error) {
	switch op {
	case opEqualStr:
		return EQ, nil
	case opLessStr:
		return LT, nil
	case opGreaterStr:
		return GT, nil
	default:
		return 0, dberrors.New(dberrors.KindUnsupported, "extract_where_conjunction", dberrors.ErrSQLParse)
	}
}

func flippedOperator(op string) (Operator, error) {
	switch op {
	case opEqualStr:
		return EQ, nil
	case opLessStr:
		return GT, nil
	case opGreaterStr:
		return LT, nil
	default:
		return 0, dberrors.New(dberrors.KindUnsupported, "extract_where_conjunction", dberrors.ErrSQLParse)
	}
}

func literalValue(v *sqlparser.SQLVal) (record.Value, error) {
	switch v.Type {
	case sqlparser.StrVal:
		return record.NewText(v.Val), nil
	case sqlparser.IntVal:
		n, err := parseInt(string(v.Val))
		if err != nil {
			return record.Value{}, dberrors.New(dberrors.KindUnsupported, "extract_where_conjunction", dberrors.ErrSQLParse)
		}
		return record.NewInt(n), nil
	default:
		return record.Value{}, dberrors.New(dberrors.KindUnsupported, "extract_where_conjunction", dberrors.ErrFloatUnsupported)
	}
}

func parseInt(s string) (int64, error) {
	var neg bool
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, dberrors.New(dberrors.KindUnsupported, "parse_int_literal", dberrors.ErrSQLParse)
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

// Holds reports whether predicate p holds for row, looked up via
// columns (a column-name to row-position map). rowidColumn is the
// position of the table's rowid-alias column, or -1 if it has none: a
// predicate resolving to that position compares against row.Rowid
// instead of the stored column value, since SQLite stores NULL (serial
// type 0) in a rowid-alias column rather than the integer itself.
func Holds(p Predicate, row record.Row, columns map[string]int, rowidColumn int) (bool, error) {
	idx, ok := columns[strings.ToLower(p.Column)]
	if !ok {
		return false, dberrors.Newf(dberrors.KindSchema, "evaluate_predicate", dberrors.ErrColumnNotFound, map[string]any{"column": p.Column})
	}
	var lhs record.Value
	if idx == rowidColumn {
		lhs = record.NewInt(int64(row.Rowid))
	} else {
		if idx < 0 || idx >= len(row.Values) {
			return false, dberrors.New(dberrors.KindInvariant, "evaluate_predicate", dberrors.ErrInsufficientData)
		}
		lhs = row.Values[idx]
	}
	cmp, ok := record.Compare(lhs, p.Literal)
	if !ok {
		return false, nil
	}
	switch p.Op {
	case EQ:
		return cmp == 0, nil
	case LT:
		return cmp < 0, nil
	default: // GT
		return cmp > 0, nil
	}
}

// ColumnSet returns the distinct set of column names referenced by preds.
func ColumnSet(preds []Predicate) map[string]bool {
	set := make(map[string]bool, len(preds))
	for _, p := range preds {
		set[strings.ToLower(p.Column)] = true
	}
	return set
}
