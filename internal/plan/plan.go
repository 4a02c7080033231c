// Package plan implements the pull-model query operators: TableScan,
// Filter, Aggregate (COUNT only), and Projection, composed bottom-up
// into the shape TableScan -> [Filter] -> [Aggregate] -> Projection.
// Every operator exposes Next() (record.Row, error), using io.EOF as
// the exhaustion sentinel in place of the source's next(row_out) bool
// signature.
package plan

import (
	"io"

	"github.com/mattleeder/sgl/internal/btree"
	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/pager"
	"github.com/mattleeder/sgl/internal/predicate"
	"github.com/mattleeder/sgl/internal/record"
	"github.com/mattleeder/sgl/internal/resolver"
)

// Operator is the pull-model interface every plan stage implements.
type Operator interface {
	Next() (record.Row, error)
}

// TableScan produces raw table rows, either by a full left-to-right
// walk of the table B-tree or by driving an index cursor for rowids
// and fetching each one from the table B-tree.
type TableScan struct {
	full *btree.TableScanIterator
	idx  *btree.IndexScanIterator
	tc   *btree.TableCursor
}

// NewFullTableScan scans every row of the table rooted at rootPage, in
// ascending rowid order.
func NewFullTableScan(p *pager.Pager, rootPage uint32) (*TableScan, error) {
	it, err := btree.NewTableScanIterator(p, rootPage)
	if err != nil {
		return nil, err
	}
	return &TableScan{full: it}, nil
}

// NewIndexDrivenScan drives rowids out of idx and fetches each
// corresponding row from the table rooted at tableRootPage.
func NewIndexDrivenScan(p *pager.Pager, tableRootPage uint32, idx *btree.IndexScanIterator) *TableScan {
	return &TableScan{idx: idx, tc: btree.NewTableCursor(p, tableRootPage)}
}

// Next returns the next table row, or io.EOF when the scan is done.
func (ts *TableScan) Next() (record.Row, error) {
	if ts.full != nil {
		return ts.full.Next()
	}
	for {
		rowid, err := ts.idx.NextRowid()
		if err != nil {
			return record.Row{}, err
		}
		row, found, err := ts.tc.SeekRowid(rowid)
		if err != nil {
			return record.Row{}, err
		}
		if found {
			return row, nil
		}
		// The index pointed at a rowid no longer present in the table;
		// this cannot happen against a consistent, read-only file, but
		// skip rather than fail outright.
	}
}

// Close releases any pages the scan still holds pinned.
func (ts *TableScan) Close() error {
	if ts.full != nil {
		return ts.full.Close()
	}
	return ts.idx.Close()
}

// Filter emits upstream rows for which every predicate holds, using
// the resolver's pre-aggregate column-to-position map. rowidColumn is
// the pre-aggregate position of the table's rowid-alias column, or -1
// if it has none; a predicate on that column is evaluated against the
// row's rowid rather than its (NULL) stored value.
type Filter struct {
	upstream    Operator
	preds       []predicate.Predicate
	columns     map[string]int
	rowidColumn int
}

// NewFilter builds a Filter evaluating preds against upstream rows.
func NewFilter(upstream Operator, preds []predicate.Predicate, columns map[string]int, rowidColumn int) *Filter {
	return &Filter{upstream: upstream, preds: preds, columns: columns, rowidColumn: rowidColumn}
}

// Next returns the next row for which every predicate holds.
func (f *Filter) Next() (record.Row, error) {
	for {
		row, err := f.upstream.Next()
		if err != nil {
			return record.Row{}, err
		}
		allHold := true
		for _, p := range f.preds {
			holds, err := predicate.Holds(p, row, f.columns, f.rowidColumn)
			if err != nil {
				return record.Row{}, err
			}
			if !holds {
				allHold = false
				break
			}
		}
		if allHold {
			return row, nil
		}
	}
}

// Aggregate drains its upstream and emits a single row holding one
// value, the upstream row count; every call after the first returns
// io.EOF. Projection copies that value into each count(...) target.
type Aggregate struct {
	upstream Operator
	emitted  bool
}

// NewAggregate builds a COUNT(*)-only Aggregate over upstream.
func NewAggregate(upstream Operator) *Aggregate {
	return &Aggregate{upstream: upstream}
}

// Next drains the child on its first call and returns the single
// count row; subsequent calls return io.EOF.
func (a *Aggregate) Next() (record.Row, error) {
	if a.emitted {
		return record.Row{}, io.EOF
	}
	a.emitted = true
	count := int64(0)
	for {
		_, err := a.upstream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return record.Row{}, err
		}
		count++
	}
	return record.Row{Values: []record.Value{record.NewInt(count)}}, nil
}

// Projection reorders/selects the upstream row's columns according to
// a precomputed target list.
type Projection struct {
	upstream Operator
	targets  []resolver.ProjectionTarget
}

// NewProjection builds a Projection selecting targets from upstream
// rows.
func NewProjection(upstream Operator, targets []resolver.ProjectionTarget) *Projection {
	return &Projection{upstream: upstream, targets: targets}
}

// Next returns the next projected row.
func (pr *Projection) Next() (record.Row, error) {
	row, err := pr.upstream.Next()
	if err != nil {
		return record.Row{}, err
	}
	out := make([]record.Value, len(pr.targets))
	for i, t := range pr.targets {
		switch {
		case t.IsRowid:
			out[i] = record.NewInt(int64(row.Rowid))
		case t.IsCount:
			out[i] = row.Values[0]
		default:
			if t.ColumnIndex < 0 || t.ColumnIndex >= len(row.Values) {
				return record.Row{}, dberrors.New(dberrors.KindInvariant, "project_row", dberrors.ErrInsufficientData)
			}
			out[i] = row.Values[t.ColumnIndex]
		}
	}
	return record.Row{Rowid: row.Rowid, Values: out}, nil
}
