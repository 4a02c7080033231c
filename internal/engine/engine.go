// Package engine wires the pager, schema catalog, index selector, tree
// walker, and plan operators together and drives the three accepted
// CLI commands: .dbinfo, .tables, and SQL SELECT.
package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattleeder/sgl/internal/btree"
	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/engineconfig"
	"github.com/mattleeder/sgl/internal/indexselect"
	"github.com/mattleeder/sgl/internal/pager"
	"github.com/mattleeder/sgl/internal/plan"
	"github.com/mattleeder/sgl/internal/predicate"
	"github.com/mattleeder/sgl/internal/resolver"
	"github.com/mattleeder/sgl/internal/schema"
	"github.com/xwb1989/sqlparser"
)

// Engine holds the database's long-lived state: the page cache and the
// scanned sqlite_schema catalog. It is created once per invocation and
// threaded explicitly into every query, per the single-owner pager
// discipline.
type Engine struct {
	pager   *pager.Pager
	catalog *schema.Catalog
	res     *ResourceTracker
}

// ResourceTracker is engineconfig.ResourceManager specialized to close
// the pager on the way out, LIFO with anything else registered.
type ResourceTracker = engineconfig.ResourceManager

// Open loads the database at path and scans its schema catalog.
func Open(path string, opts ...engineconfig.Option) (*Engine, error) {
	cfg := engineconfig.Default()
	for _, opt := range opts {
		opt(cfg)
	}
	p, err := pager.Open(path, cfg.CacheCapacityOverride)
	if err != nil {
		return nil, err
	}
	res := &ResourceTracker{}
	res.Add(closerFunc(p.Close))

	cat, err := schema.Load(p, pager.OverflowReader{Pager: p})
	if err != nil {
		res.Close()
		return nil, err
	}
	return &Engine{pager: p, catalog: cat, res: res}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Close releases the pager and any other tracked resources.
func (e *Engine) Close() error {
	return e.res.Close()
}

// DBInfo returns the values printed by `.dbinfo`: the database's page
// size and the number of objects recorded in sqlite_schema.
func (e *Engine) DBInfo() (pageSize int, objectCount int) {
	return e.pager.PageSize(), e.catalog.CellCount()
}

// Tables returns every table name in sqlite_schema, in scan order, for
// `.tables`.
func (e *Engine) Tables() []string {
	return e.catalog.Tables()
}

// PageFetches returns the number of pages read from disk so far,
// exposed for tests comparing an index-driven scan's I/O against a
// full table scan's.
func (e *Engine) PageFetches() int {
	return e.pager.FetchCount()
}

// Run executes sql and writes the resulting rows to w, one per line,
// columns joined by `|`, per the row output format.
func (e *Engine) Run(sql string, w io.Writer) error {
	stmt, err := sqlparser.Parse(normalizeWhereConjunction(sql))
	if err != nil {
		return dberrors.Newf(dberrors.KindSchema, "parse_sql", dberrors.ErrSQLParse, map[string]any{"sql": sql})
	}
	selectStmt, ok := stmt.(*sqlparser.Select)
	if !ok {
		return dberrors.New(dberrors.KindUnsupported, "parse_sql", dberrors.ErrSQLParse)
	}

	op, scan, err := e.buildPlan(selectStmt)
	if err != nil {
		return err
	}
	defer scan.Close()

	for {
		row, err := op.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		parts := make([]string, len(row.Values))
		for i, v := range row.Values {
			parts[i] = v.String()
		}
		fmt.Fprintln(w, strings.Join(parts, "|"))
	}
}

// buildPlan resolves the table and WHERE clause, picks an index if one
// applies, and composes the TableScan -> Filter -> Aggregate ->
// Projection pipeline.
func (e *Engine) buildPlan(sel *sqlparser.Select) (plan.Operator, *plan.TableScan, error) {
	tableName, err := tableNameFrom(sel)
	if err != nil {
		return nil, nil, err
	}
	tableRecord, ok := e.catalog.Table(tableName)
	if !ok {
		return nil, nil, dberrors.Newf(dberrors.KindSchema, "resolve_table", dberrors.ErrTableNotFound, map[string]any{"table": tableName})
	}
	columns, err := schema.ParseCreateTable(tableRecord.SQL)
	if err != nil {
		return nil, nil, err
	}
	res := resolver.New(columns)

	var preds []predicate.Predicate
	if sel.Where != nil {
		preds, err = predicate.ExtractConjunction(sel.Where.Expr)
		if err != nil {
			return nil, nil, err
		}
	}

	var scan *plan.TableScan
	indexRecords := e.catalog.Indexes(tableName)
	candidates := indexselect.FromSchema(indexRecords)
	choice, usedIndex := indexselect.Select(preds, candidates)
	if usedIndex {
		idx, err := btree.NewIndexScanIterator(e.pager, choice.RootPage, btreeOperator(choice.Leading.Op), choice.Leading.Literal)
		if err != nil {
			return nil, nil, err
		}
		scan = plan.NewIndexDrivenScan(e.pager, tableRecord.RootPage, idx)
	} else {
		scan, err = plan.NewFullTableScan(e.pager, tableRecord.RootPage)
		if err != nil {
			return nil, nil, err
		}
	}

	var upstream plan.Operator = scan
	if len(preds) > 0 {
		rowidColumn := -1
		if res.RowidAlias {
			rowidColumn = 0
		}
		upstream = plan.NewFilter(upstream, preds, res.PreAggregate, rowidColumn)
	}

	targets, hasAggregate, err := res.ResolveSelectList(sel.SelectExprs)
	if err != nil {
		return nil, nil, err
	}
	if hasAggregate {
		upstream = plan.NewAggregate(upstream)
	}
	return plan.NewProjection(upstream, targets), scan, nil
}

func btreeOperator(op predicate.Operator) btree.Operator {
	switch op {
	case predicate.LT:
		return btree.OpLT
	case predicate.GT:
		return btree.OpGT
	default:
		return btree.OpEQ
	}
}

func tableNameFrom(sel *sqlparser.Select) (string, error) {
	if len(sel.From) == 0 {
		return "", dberrors.New(dberrors.KindSchema, "resolve_table", dberrors.ErrSQLParse)
	}
	aliased, ok := sel.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return "", dberrors.New(dberrors.KindUnsupported, "resolve_table", dberrors.ErrSQLParse)
	}
	name, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return "", dberrors.New(dberrors.KindUnsupported, "resolve_table", dberrors.ErrSQLParse)
	}
	return name.Name.String(), nil
}

// normalizeWhereConjunction rewrites the grammar's comma-separated
// WHERE predicate list into `AND`, the only conjunction
// xwb1989/sqlparser accepts; `, ` only ever appears there or inside a
// SELECT/column list, where rewriting to `AND` would be a syntax
// error, so only the clause after WHERE is touched.
func normalizeWhereConjunction(sql string) string {
	lower := strings.ToLower(sql)
	i := strings.Index(lower, " where ")
	if i < 0 {
		return sql
	}
	head := sql[:i+7]
	tail := sql[i+7:]
	tail = strings.ReplaceAll(tail, ",", " AND ")
	return head + tail
}
