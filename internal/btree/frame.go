// Package btree implements the tree walker: a table cursor that
// descends the table B-tree by rowid (point lookup or full scan) and an
// index cursor that drives rowids out of an index B-tree for a single
// leading predicate.
package btree

import (
	"io"

	"github.com/mattleeder/sgl/internal/cellcodec"
	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/page"
	"github.com/mattleeder/sgl/internal/pager"
)

// frame is one pinned page on the walker's descent stack: its header,
// cell pointers, and how far the walk has progressed through them.
type frame struct {
	pg               *pager.Page
	header           page.Header
	headerOffset     int
	pointers         []uint16
	cellIndex        int
	visitedRightmost bool
}

// walker owns a pinned-page stack and releases every page exactly once,
// matching the pager's get/release discipline.
type walker struct {
	pager *pager.Pager
	stack []frame
}

func (w *walker) pushPage(pageNumber uint32) (*frame, error) {
	pg, err := w.pager.GetPage(pageNumber)
	if err != nil {
		return nil, err
	}
	headerOffset := page.HeaderOffset(pageNumber)
	hdr, err := page.ParseHeader(pg.Data, headerOffset)
	if err != nil {
		w.pager.ReleasePage(pg)
		return nil, err
	}
	pointers, err := page.ReadCellPointers(pg.Data, hdr, headerOffset)
	if err != nil {
		w.pager.ReleasePage(pg)
		return nil, err
	}
	f := frame{pg: pg, header: hdr, headerOffset: headerOffset, pointers: pointers}
	w.stack = append(w.stack, f)
	return &w.stack[len(w.stack)-1], nil
}

func (w *walker) top() *frame {
	if len(w.stack) == 0 {
		return nil
	}
	return &w.stack[len(w.stack)-1]
}

func (w *walker) pop() error {
	n := len(w.stack) - 1
	f := w.stack[n]
	w.stack = w.stack[:n]
	return w.pager.ReleasePage(f.pg)
}

// Close releases every still-pinned page on the stack (used when a
// caller abandons an iterator before it's drained).
func (w *walker) Close() error {
	var firstErr error
	for len(w.stack) > 0 {
		if err := w.pop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var errExhausted = io.EOF

func invalidPageType() error {
	return dberrors.New(dberrors.KindFormat, "tree_walker", dberrors.ErrInvalidPageType)
}

// cellOffset returns the page-relative byte offset of the cell at index i.
func (f *frame) cellOffset(i int) int {
	return int(f.pointers[i])
}

func parseCellAt(f *frame, i int, usable int) (cellcodec.Cell, error) {
	return cellcodec.Parse(f.header.Type, f.pg.Data, f.cellOffset(i), usable)
}
