// Package resolver maps a query's SELECT/WHERE column references onto
// ordinal positions in a decoded table row, using the table's CREATE
// TABLE column list, and decides whether the leading column is a
// rowid alias.
package resolver

import (
	"strings"

	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/schema"
	"github.com/xwb1989/sqlparser"
)

// Resolver holds the table's declared column list and the column-name
// to position maps derived from it.
type Resolver struct {
	Columns      []schema.Column
	RowidAlias   bool // first declared column is named "id"
	PreAggregate map[string]int
}

// New builds a Resolver from a table's declared columns. The rowid
// alias heuristic keys on the literal name "id", per the declared rule
// this engine retains (the more robust test would be the column's
// INTEGER PRIMARY KEY declaration, not its name).
func New(columns []schema.Column) *Resolver {
	pre := make(map[string]int, len(columns))
	for i, c := range columns {
		pre[strings.ToLower(c.Name)] = i
	}
	rowidAlias := len(columns) > 0 && strings.EqualFold(columns[0].Name, "id")
	return &Resolver{Columns: columns, RowidAlias: rowidAlias, PreAggregate: pre}
}

// Column resolves name to its pre-aggregate row position, for Filter.
func (r *Resolver) Column(name string) (int, bool) {
	idx, ok := r.PreAggregate[strings.ToLower(name)]
	return idx, ok
}

// ProjectionTarget is one output column of the Projection operator.
type ProjectionTarget struct {
	IsRowid     bool // read from the row's Rowid field, not a value column
	IsCount     bool // read from the aggregate's count output
	ColumnIndex int  // pre-aggregate row position, when neither of the above
}

// ResolveSelectList turns a SELECT expression list into the ordered
// Projection targets, and reports whether the list contains an
// aggregate (count(*)), which changes the plan shape to include an
// Aggregate stage. A select list mixing aggregates with plain columns
// is rejected: count(...) is the only recognized aggregate and this
// engine does not support grouping.
func (r *Resolver) ResolveSelectList(exprs sqlparser.SelectExprs) (targets []ProjectionTarget, hasAggregate bool, err error) {
	var plain []ProjectionTarget
	var aggregates []ProjectionTarget

	for _, se := range exprs {
		switch e := se.(type) {
		case *sqlparser.StarExpr:
			for i := range r.Columns {
				plain = append(plain, r.projectionForIndex(i))
			}
		case *sqlparser.AliasedExpr:
			switch inner := e.Expr.(type) {
			case *sqlparser.ColName:
				idx, ok := r.Column(inner.Name.String())
				if !ok {
					return nil, false, dberrors.Newf(dberrors.KindSchema, "resolve_select_list", dberrors.ErrColumnNotFound, map[string]any{"column": inner.Name.String()})
				}
				plain = append(plain, r.projectionForIndex(idx))
			case *sqlparser.FuncExpr:
				if !strings.EqualFold(inner.Name.String(), "count") {
					return nil, false, dberrors.New(dberrors.KindUnsupported, "resolve_select_list", dberrors.ErrSQLParse)
				}
				aggregates = append(aggregates, ProjectionTarget{IsCount: true})
			default:
				return nil, false, dberrors.New(dberrors.KindUnsupported, "resolve_select_list", dberrors.ErrSQLParse)
			}
		default:
			return nil, false, dberrors.New(dberrors.KindUnsupported, "resolve_select_list", dberrors.ErrSQLParse)
		}
	}

	if len(aggregates) > 0 && len(plain) > 0 {
		return nil, false, dberrors.New(dberrors.KindUnsupported, "resolve_select_list", dberrors.ErrSQLParse)
	}
	if len(aggregates) > 0 {
		return aggregates, true, nil
	}
	return plain, false, nil
}

func (r *Resolver) projectionForIndex(idx int) ProjectionTarget {
	if r.RowidAlias && idx == 0 {
		return ProjectionTarget{IsRowid: true}
	}
	return ProjectionTarget{ColumnIndex: idx}
}
