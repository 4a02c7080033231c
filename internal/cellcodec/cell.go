// Package cellcodec decodes the four B-tree cell shapes (table-leaf,
// table-interior, index-leaf, index-interior) and the local/overflow
// payload split they share.
package cellcodec

import (
	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/page"
	"github.com/mattleeder/sgl/internal/varint"
)

// Cell is the decoded, page-type-tagged form of one B-tree cell.
type Cell struct {
	Rowid        uint64 // table-leaf, table-interior
	LeftChild    uint32 // table-interior, index-interior
	PayloadSize  uint64 // table-leaf, index-leaf, index-interior
	LocalPayload []byte // slice into the page buffer
	OverflowPage uint32 // 0 when the payload has no overflow
}

// MaxLocalTableLeaf is the largest payload a table-leaf cell stores
// entirely on the page.
func MaxLocalTableLeaf(usable int) int {
	return usable - 35
}

// MaxLocalIndex is the largest payload an index cell stores entirely on
// the page.
func MaxLocalIndex(usable int) int {
	return (usable-12)*64/255 - 23
}

// MinLocal is the minimum local payload SQLite guarantees to keep on the
// page even when the payload spills to overflow.
func MinLocal(usable int) int {
	return (usable-12)*32/255 - 23
}

// LocalBytes computes how many bytes of a payload of size P stay local,
// given the usable page size and the max-local threshold for the cell's
// shape (table-leaf or index).
func LocalBytes(payloadSize, usable, maxLocal int) int {
	if payloadSize <= maxLocal {
		return payloadSize
	}
	minLocal := MinLocal(usable)
	k := minLocal + (payloadSize-minLocal)%(usable-4)
	if k <= maxLocal {
		return k
	}
	return minLocal
}

// splitPayload reads payloadSize bytes of payload starting at offset in
// data, returning the local slice and the overflow page number (0 if the
// payload fits entirely locally).
func splitPayload(data []byte, offset int, payloadSize int, usable int, maxLocal int) ([]byte, int, uint32, error) {
	local := LocalBytes(payloadSize, usable, maxLocal)
	if offset+local > len(data) {
		return nil, 0, 0, dberrors.New(dberrors.KindFormat, "split_payload", dberrors.ErrInsufficientData)
	}
	localPayload := data[offset : offset+local]
	next := offset + local
	if local == payloadSize {
		return localPayload, next, 0, nil
	}
	overflow, err := varint.Uint32(data, next)
	if err != nil {
		return nil, 0, 0, dberrors.New(dberrors.KindFormat, "split_payload", err)
	}
	return localPayload, next + 4, overflow, nil
}

// ParseTableLeaf decodes a table-leaf cell at offset.
func ParseTableLeaf(data []byte, offset int, usable int) (Cell, error) {
	c := varint.NewCursor(data)
	c.Pos = offset
	payloadSize, err := c.ReadVarint()
	if err != nil {
		return Cell{}, dberrors.New(dberrors.KindFormat, "parse_table_leaf_cell", err)
	}
	rowid, err := c.ReadVarint()
	if err != nil {
		return Cell{}, dberrors.New(dberrors.KindFormat, "parse_table_leaf_cell", err)
	}
	local, _, overflow, err := splitPayload(data, c.Pos, int(payloadSize), usable, MaxLocalTableLeaf(usable))
	if err != nil {
		return Cell{}, err
	}
	return Cell{Rowid: rowid, PayloadSize: payloadSize, LocalPayload: local, OverflowPage: overflow}, nil
}

// ParseTableInterior decodes a table-interior cell at offset.
func ParseTableInterior(data []byte, offset int) (Cell, error) {
	leftChild, err := varint.Uint32(data, offset)
	if err != nil {
		return Cell{}, dberrors.New(dberrors.KindFormat, "parse_table_interior_cell", err)
	}
	rowid, n, err := varint.Decode(data, offset+4)
	if err != nil {
		return Cell{}, dberrors.New(dberrors.KindFormat, "parse_table_interior_cell", err)
	}
	_ = n
	return Cell{LeftChild: leftChild, Rowid: rowid}, nil
}

// ParseIndexLeaf decodes an index-leaf cell at offset.
func ParseIndexLeaf(data []byte, offset int, usable int) (Cell, error) {
	payloadSize, n, err := varint.Decode(data, offset)
	if err != nil {
		return Cell{}, dberrors.New(dberrors.KindFormat, "parse_index_leaf_cell", err)
	}
	local, _, overflow, err := splitPayload(data, offset+n, int(payloadSize), usable, MaxLocalIndex(usable))
	if err != nil {
		return Cell{}, err
	}
	return Cell{PayloadSize: payloadSize, LocalPayload: local, OverflowPage: overflow}, nil
}

// ParseIndexInterior decodes an index-interior cell at offset.
func ParseIndexInterior(data []byte, offset int, usable int) (Cell, error) {
	leftChild, err := varint.Uint32(data, offset)
	if err != nil {
		return Cell{}, dberrors.New(dberrors.KindFormat, "parse_index_interior_cell", err)
	}
	payloadSize, n, err := varint.Decode(data, offset+4)
	if err != nil {
		return Cell{}, dberrors.New(dberrors.KindFormat, "parse_index_interior_cell", err)
	}
	local, _, overflow, err := splitPayload(data, offset+4+n, int(payloadSize), usable, MaxLocalIndex(usable))
	if err != nil {
		return Cell{}, err
	}
	return Cell{LeftChild: leftChild, PayloadSize: payloadSize, LocalPayload: local, OverflowPage: overflow}, nil
}

// Parse dispatches on page type to decode the cell at offset.
func Parse(pageType page.Type, data []byte, offset int, usable int) (Cell, error) {
	switch pageType {
	case page.LeafTable:
		return ParseTableLeaf(data, offset, usable)
	case page.InteriorTable:
		return ParseTableInterior(data, offset)
	case page.LeafIndex:
		return ParseIndexLeaf(data, offset, usable)
	case page.InteriorIndex:
		return ParseIndexInterior(data, offset, usable)
	default:
		return Cell{}, dberrors.New(dberrors.KindFormat, "parse_cell", dberrors.ErrInvalidPageType)
	}
}
