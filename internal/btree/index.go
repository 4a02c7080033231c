package btree

import (
	"io"

	"github.com/mattleeder/sgl/internal/page"
	"github.com/mattleeder/sgl/internal/pager"
	"github.com/mattleeder/sgl/internal/record"
)

// Operator identifies which comparison an index scan is driving.
type Operator int

const (
	// OpEQ scans the run of keys equal to the probe.
	OpEQ Operator = iota
	// OpLT scans every key strictly less than the probe, from the start
	// of the index.
	OpLT
	// OpGT scans every key strictly greater than the probe, to the end
	// of the index.
	OpGT
)

// IndexScanIterator drives rowids out of an index B-tree in index-key
// order for a single leading predicate (col = / < / > probe). The
// caller pairs each rowid with TableCursor.SeekRowid to fetch the row.
type IndexScanIterator struct {
	w      walker
	usable int
	op     Operator
	probe  record.Value
	done   bool
}

// NewIndexScanIterator positions an index scan at the first qualifying
// key for op and probe, using a canonical lower-bound binary search
// (half-open range, lo < hi, hi = mid) at every level of the tree.
func NewIndexScanIterator(p *pager.Pager, rootPage uint32, op Operator, probe record.Value) (*IndexScanIterator, error) {
	it := &IndexScanIterator{w: walker{pager: p}, usable: p.UsableSize(), op: op, probe: probe}
	if err := it.descend(rootPage); err != nil {
		it.w.Close()
		return nil, err
	}
	return it, nil
}

// Close abandons the scan, releasing any pages still pinned.
func (it *IndexScanIterator) Close() error {
	return it.w.Close()
}

// descend walks from pageNumber to the starting leaf cell for the
// configured operator: the lower bound (first key >= probe) for OpEQ,
// the upper bound (first key > probe) for OpGT, and the very first key
// of the tree for OpLT.
func (it *IndexScanIterator) descend(pageNumber uint32) error {
	for {
		f, err := it.w.pushPage(pageNumber)
		if err != nil {
			return err
		}
		if f.header.Type == page.LeafIndex {
			pos, err := it.searchLeaf(f)
			if err != nil {
				return err
			}
			f.cellIndex = pos
			return nil
		}
		if f.header.Type != page.InteriorIndex {
			return invalidPageType()
		}
		childIdx, err := it.searchInterior(f)
		if err != nil {
			return err
		}
		f.cellIndex = childIdx
		var next uint32
		if childIdx >= int(f.header.CellCount) {
			next = f.header.RightmostPointer
		} else {
			cell, err := parseCellAt(f, childIdx, it.usable)
			if err != nil {
				return err
			}
			next = cell.LeftChild
		}
		// Interior cells, once their left subtree is fully scanned, are
		// themselves a key to emit before descending into the next
		// child; cellIndex marks that cell as not yet emitted.
		pageNumber = next
	}
}

// keyOf decodes a cell's index record and returns its leading key
// column and its trailing rowid, for comparison against the probe.
func (it *IndexScanIterator) keyOf(f *frame, i int) (record.Value, uint64, error) {
	cell, err := parseCellAt(f, i, it.usable)
	if err != nil {
		return record.Value{}, 0, err
	}
	row, err := record.DecodeIndexRow(cell, it.usable, pager.OverflowReader{Pager: it.w.pager})
	if err != nil {
		return record.Value{}, 0, err
	}
	if len(row.Values) == 0 {
		return record.NewNull(), row.Rowid, nil
	}
	return row.Values[0], row.Rowid, nil
}

// searchLeaf returns the first cell index on this leaf satisfying the
// scan's starting condition.
func (it *IndexScanIterator) searchLeaf(f *frame) (int, error) {
	if it.op == OpLT {
		return 0, nil
	}
	lo, hi := 0, int(f.header.CellCount)
	for lo < hi {
		mid := (lo + hi) / 2
		key, _, err := it.keyOf(f, mid)
		if err != nil {
			return 0, err
		}
		if it.keyBefore(key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// searchInterior returns the index of the first cell whose key is not
// "before" the probe for this operator's lower bound, i.e. the child to
// descend into.
func (it *IndexScanIterator) searchInterior(f *frame) (int, error) {
	if it.op == OpLT {
		return 0, nil
	}
	lo, hi := 0, int(f.header.CellCount)
	for lo < hi {
		mid := (lo + hi) / 2
		key, _, err := it.keyOf(f, mid)
		if err != nil {
			return 0, err
		}
		if it.keyBefore(key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// keyBefore reports whether key sorts before the scan's starting
// boundary: key < probe for OpEQ (so the search finds the first key >=
// probe) and key <= probe for OpGT (the first key > probe); OpLT never
// calls this since it always starts at index 0.
func (it *IndexScanIterator) keyBefore(key record.Value) bool {
	cmp, ok := record.Compare(key, it.probe)
	if !ok {
		// Incomparable keys (e.g. NULL) sort before everything we seek.
		return true
	}
	if it.op == OpGT {
		return cmp <= 0
	}
	return cmp < 0
}

// qualifies reports whether a leaf key still satisfies the predicate;
// false signals the scan has run past its range.
func (it *IndexScanIterator) qualifies(key record.Value) bool {
	cmp, ok := record.Compare(key, it.probe)
	if !ok {
		return false
	}
	switch it.op {
	case OpEQ:
		return cmp == 0
	case OpLT:
		return cmp < 0
	default: // OpGT
		return true
	}
}

// NextRowid returns the next qualifying rowid in index order, or
// io.EOF once the scan's range is exhausted.
func (it *IndexScanIterator) NextRowid() (uint64, error) {
	if it.done {
		return 0, io.EOF
	}
	for {
		f := it.w.top()
		if f == nil {
			it.done = true
			return 0, io.EOF
		}
		if f.header.Type == page.LeafIndex {
			if f.cellIndex >= int(f.header.CellCount) {
				if err := it.w.pop(); err != nil {
					return 0, err
				}
				continue
			}
			key, rowid, err := it.keyOf(f, f.cellIndex)
			if err != nil {
				return 0, err
			}
			if !it.qualifies(key) {
				it.done = true
				return 0, io.EOF
			}
			f.cellIndex++
			return rowid, nil
		}
		if f.header.Type != page.InteriorIndex {
			return 0, invalidPageType()
		}
		// f.cellIndex names the cell whose left child's subtree has
		// just been fully drained (it was pushed by descend, or by the
		// push below on a previous visit here). Emit that cell's own
		// key, then descend into the next child's leftmost leaf.
		if f.cellIndex < int(f.header.CellCount) {
			key, rowid, err := it.keyOf(f, f.cellIndex)
			if err != nil {
				return 0, err
			}
			nextChild := f.cellIndex + 1
			f.cellIndex = nextChild
			qualifies := it.qualifies(key)
			if err := it.pushNextChild(f, nextChild); err != nil {
				return 0, err
			}
			if !qualifies {
				if it.op == OpLT {
					it.done = true
					return 0, io.EOF
				}
				continue
			}
			return rowid, nil
		}
		if err := it.w.pop(); err != nil {
			return 0, err
		}
	}
}

// pushNextChild descends into the left-most leaf of the child at
// cellIndex (or the rightmost pointer once every cell has been
// consumed), so the scan continues through the rest of the subtree
// in key order.
func (it *IndexScanIterator) pushNextChild(f *frame, cellIndex int) error {
	var next uint32
	if cellIndex >= int(f.header.CellCount) {
		next = f.header.RightmostPointer
	} else {
		cell, err := parseCellAt(f, cellIndex, it.usable)
		if err != nil {
			return err
		}
		next = cell.LeftChild
	}
	for {
		child, err := it.w.pushPage(next)
		if err != nil {
			return err
		}
		if child.header.Type == page.LeafIndex {
			child.cellIndex = 0
			return nil
		}
		if child.header.Type != page.InteriorIndex {
			return invalidPageType()
		}
		child.cellIndex = 0
		if int(child.header.CellCount) == 0 {
			next = child.header.RightmostPointer
			continue
		}
		cell, err := parseCellAt(child, 0, it.usable)
		if err != nil {
			return err
		}
		next = cell.LeftChild
	}
}
