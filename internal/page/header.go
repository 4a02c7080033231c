// Package page decodes a B-tree page's header and cell-pointer array.
package page

import (
	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/varint"
)

// Type is the one-byte B-tree page type tag.
type Type byte

const (
	InteriorIndex Type = 0x02
	InteriorTable Type = 0x05
	LeafIndex     Type = 0x0A
	LeafTable     Type = 0x0D
)

func (t Type) IsLeaf() bool {
	return t == LeafIndex || t == LeafTable
}

func (t Type) IsTable() bool {
	return t == InteriorTable || t == LeafTable
}

func (t Type) valid() bool {
	switch t {
	case InteriorIndex, InteriorTable, LeafIndex, LeafTable:
		return true
	default:
		return false
	}
}

// Header is a decoded B-tree page header.
type Header struct {
	Type                Type
	FirstFreeblock      uint16
	CellCount           uint16
	CellContentStart    int
	FragmentedFreeBytes uint8
	RightmostPointer    uint32 // interior pages only
	HeaderSize          int    // 8 (leaf) or 12 (interior)
}

// HeaderOffset returns where the B-tree header begins for the given page
// number: byte 100 on page 1 (after the database header), 0 elsewhere.
func HeaderOffset(pageNumber uint32) int {
	if pageNumber == 1 {
		return 100
	}
	return 0
}

// ParseHeader decodes the B-tree header of data at headerOffset.
func ParseHeader(data []byte, headerOffset int) (Header, error) {
	if headerOffset+8 > len(data) {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_page_header", dberrors.ErrInsufficientData)
	}
	t := Type(data[headerOffset])
	if !t.valid() {
		return Header{}, dberrors.Newf(dberrors.KindFormat, "parse_page_header", dberrors.ErrInvalidPageType, map[string]any{"tag": data[headerOffset]})
	}

	firstFree, err := varint.Uint16(data, headerOffset+1)
	if err != nil {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_page_header", err)
	}
	cellCount, err := varint.Uint16(data, headerOffset+3)
	if err != nil {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_page_header", err)
	}
	contentStart, err := varint.Uint16(data, headerOffset+5)
	if err != nil {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_page_header", err)
	}
	contentStartInt := int(contentStart)
	if contentStartInt == 0 {
		contentStartInt = 65536
	}
	fragBytes := data[headerOffset+7]

	hdr := Header{
		Type:                t,
		FirstFreeblock:      firstFree,
		CellCount:           cellCount,
		CellContentStart:    contentStartInt,
		FragmentedFreeBytes: fragBytes,
	}

	if t.IsLeaf() {
		hdr.HeaderSize = 8
		return hdr, nil
	}

	hdr.HeaderSize = 12
	rightmost, err := varint.Uint32(data, headerOffset+8)
	if err != nil {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_page_header", err)
	}
	hdr.RightmostPointer = rightmost
	return hdr, nil
}

// ReadCellPointers decodes the CellCount big-endian u16 cell offsets that
// immediately follow the B-tree header.
func ReadCellPointers(data []byte, hdr Header, headerOffset int) ([]uint16, error) {
	start := headerOffset + hdr.HeaderSize
	pointers := make([]uint16, hdr.CellCount)
	for i := 0; i < int(hdr.CellCount); i++ {
		off := start + i*2
		v, err := varint.Uint16(data, off)
		if err != nil {
			return nil, dberrors.New(dberrors.KindFormat, "read_cell_pointers", err)
		}
		if int(v) >= len(data) {
			return nil, dberrors.Newf(dberrors.KindFormat, "read_cell_pointers", dberrors.ErrInvalidCellPointer, map[string]any{"index": i, "pointer": v})
		}
		pointers[i] = v
	}
	return pointers, nil
}
