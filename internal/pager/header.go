package pager

import (
	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/varint"
)

// magic is the 16-byte string every SQLite3 file begins with.
const magic = "SQLite format 3\x00"

// Header is the 100-byte database header at the start of page 1.
type Header struct {
	PageSize             int
	ReservedSpace        int
	PageCount            uint32
	DefaultPageCacheSize uint32
}

// UsableSize returns page_size - reserved_space, the space available to
// cell content on every page.
func (h Header) UsableSize() int {
	return h.PageSize - h.ReservedSpace
}

// ParseHeader decodes the 100-byte database header from the first 100
// bytes of page 1.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < 100 {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_database_header", dberrors.ErrInsufficientData)
	}
	if string(buf[0:16]) != magic {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_database_header", dberrors.ErrInvalidPageType)
	}
	rawPageSize, err := varint.Uint16(buf, 16)
	if err != nil {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_database_header", err)
	}
	pageSize := int(rawPageSize)
	if pageSize == 1 {
		pageSize = 65536
	}
	reserved := int(buf[20])
	pageCount, err := varint.Uint32(buf, 28)
	if err != nil {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_database_header", err)
	}
	defaultCache, err := varint.Uint32(buf, 48)
	if err != nil {
		return Header{}, dberrors.New(dberrors.KindFormat, "parse_database_header", err)
	}
	return Header{
		PageSize:             pageSize,
		ReservedSpace:        reserved,
		PageCount:            pageCount,
		DefaultPageCacheSize: defaultCache,
	}, nil
}
