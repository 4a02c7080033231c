package btree

import (
	"io"

	"github.com/mattleeder/sgl/internal/page"
	"github.com/mattleeder/sgl/internal/pager"
	"github.com/mattleeder/sgl/internal/record"
)

// TableScanIterator walks a table B-tree's leaf cells left to right,
// producing rows in ascending rowid order. It is the full-scan path;
// TableCursor, which fetches single rows by rowid, builds on the same
// pinned-frame walker rather than on this iterator.
type TableScanIterator struct {
	w      walker
	usable int
}

// NewTableScanIterator starts a full scan of the table rooted at rootPage.
func NewTableScanIterator(p *pager.Pager, rootPage uint32) (*TableScanIterator, error) {
	it := &TableScanIterator{w: walker{pager: p}, usable: p.UsableSize()}
	if _, err := it.w.pushPage(rootPage); err != nil {
		return nil, err
	}
	return it, nil
}

// Close abandons the scan, releasing any pages still pinned.
func (it *TableScanIterator) Close() error {
	return it.w.Close()
}

// Next decodes and returns the next row in ascending rowid order, or
// io.EOF once the tree is exhausted.
func (it *TableScanIterator) Next() (record.Row, error) {
	asm := pager.OverflowReader{Pager: it.w.pager}
	for {
		f := it.w.top()
		if f == nil {
			return record.Row{}, io.EOF
		}
		if f.header.Type == page.LeafTable {
			if f.cellIndex >= int(f.header.CellCount) {
				if err := it.w.pop(); err != nil {
					return record.Row{}, err
				}
				continue
			}
			cell, err := parseCellAt(f, f.cellIndex, it.usable)
			if err != nil {
				return record.Row{}, err
			}
			f.cellIndex++
			return record.DecodeTableRow(cell, it.usable, asm)
		}
		if f.header.Type != page.InteriorTable {
			return record.Row{}, invalidPageType()
		}
		if f.cellIndex < int(f.header.CellCount) {
			cell, err := parseCellAt(f, f.cellIndex, it.usable)
			if err != nil {
				return record.Row{}, err
			}
			f.cellIndex++
			if _, err := it.w.pushPage(cell.LeftChild); err != nil {
				return record.Row{}, err
			}
			continue
		}
		if !f.visitedRightmost {
			f.visitedRightmost = true
			if _, err := it.w.pushPage(f.header.RightmostPointer); err != nil {
				return record.Row{}, err
			}
			continue
		}
		if err := it.w.pop(); err != nil {
			return record.Row{}, err
		}
	}
}

// TableCursor fetches rows by rowid, descending fresh from the root on
// every call. Used by the index-driven scan, which calls it once per
// rowid produced by the index cursor.
type TableCursor struct {
	pager    *pager.Pager
	rootPage uint32
	usable   int
}

// NewTableCursor builds a point-lookup cursor over the table rooted at
// rootPage.
func NewTableCursor(p *pager.Pager, rootPage uint32) *TableCursor {
	return &TableCursor{pager: p, rootPage: rootPage, usable: p.UsableSize()}
}

// SeekRowid descends the table B-tree for the row with the given rowid.
// found is false if no such row exists.
func (tc *TableCursor) SeekRowid(rowid uint64) (row record.Row, found bool, err error) {
	w := walker{pager: tc.pager}
	defer w.Close()

	pageNumber := tc.rootPage
	for {
		f, err := w.pushPage(pageNumber)
		if err != nil {
			return record.Row{}, false, err
		}
		if f.header.Type == page.LeafTable {
			lo, hi := 0, int(f.header.CellCount)
			for lo < hi {
				mid := (lo + hi) / 2
				cell, err := parseCellAt(f, mid, tc.usable)
				if err != nil {
					return record.Row{}, false, err
				}
				if cell.Rowid < rowid {
					lo = mid + 1
				} else {
					hi = mid
				}
			}
			if lo >= int(f.header.CellCount) {
				return record.Row{}, false, nil
			}
			cell, err := parseCellAt(f, lo, tc.usable)
			if err != nil {
				return record.Row{}, false, err
			}
			if cell.Rowid != rowid {
				return record.Row{}, false, nil
			}
			row, err := record.DecodeTableRow(cell, tc.usable, pager.OverflowReader{Pager: tc.pager})
			return row, true, err
		}
		if f.header.Type != page.InteriorTable {
			return record.Row{}, false, invalidPageType()
		}
		// Lower bound: first cell whose rowid (upper bound of its left
		// subtree) is >= target; descend its left child, or the
		// right-most child if the target exceeds every key.
		lo, hi := 0, int(f.header.CellCount)
		for lo < hi {
			mid := (lo + hi) / 2
			cell, err := parseCellAt(f, mid, tc.usable)
			if err != nil {
				return record.Row{}, false, err
			}
			if cell.Rowid < rowid {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		var next uint32
		if lo >= int(f.header.CellCount) {
			next = f.header.RightmostPointer
		} else {
			cell, err := parseCellAt(f, lo, tc.usable)
			if err != nil {
				return record.Row{}, false, err
			}
			next = cell.LeftChild
		}
		if err := w.pop(); err != nil {
			return record.Row{}, false, err
		}
		pageNumber = next
	}
}
