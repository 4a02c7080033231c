package record

import (
	"github.com/mattleeder/sgl/internal/cellcodec"
	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/varint"
)

func decodeSignedInt(serialType uint64, body []byte) (int64, error) {
	switch serialType {
	case 1:
		return varint.Int8(body, 0)
	case 2:
		return varint.Int16(body, 0)
	case 3:
		return varint.Int24(body, 0)
	case 4:
		return varint.Int32(body, 0)
	case 5:
		return varint.Int48(body, 0)
	case 6:
		return varint.Int64(body, 0)
	default:
		return 0, dberrors.New(dberrors.KindFormat, "decode_signed_int", dberrors.ErrRecordHeaderLength)
	}
}

// OverflowAssembler follows an overflow page chain. It is implemented
// in terms of the two pager operations so this package has no import
// dependency on pager; btree and schema wire it to the real pager.
type OverflowAssembler interface {
	ReadOverflowPage(pageNumber uint32) (data []byte, release func(), err error)
}

// AssemblePayload concatenates local with the data chained from
// overflowPage until totalSize bytes have been gathered.
func AssemblePayload(local []byte, overflowPage uint32, totalSize int, usable int, assembler OverflowAssembler) ([]byte, error) {
	if len(local) == totalSize {
		out := make([]byte, totalSize)
		copy(out, local)
		return out, nil
	}
	buf := make([]byte, 0, totalSize)
	buf = append(buf, local...)
	page := overflowPage
	for page != 0 && len(buf) < totalSize {
		data, release, err := assembler.ReadOverflowPage(page)
		if err != nil {
			return nil, err
		}
		next, err := varint.Uint32(data, 0)
		if err != nil {
			release()
			return nil, dberrors.New(dberrors.KindFormat, "assemble_payload", err)
		}
		take := usable - 4
		remaining := totalSize - len(buf)
		if take > remaining {
			take = remaining
		}
		if 4+take > len(data) {
			release()
			return nil, dberrors.New(dberrors.KindFormat, "assemble_payload", dberrors.ErrInsufficientData)
		}
		buf = append(buf, data[4:4+take]...)
		release()
		page = next
	}
	if len(buf) != totalSize {
		return nil, dberrors.Newf(dberrors.KindFormat, "assemble_payload", dberrors.ErrInsufficientData, map[string]any{"got": len(buf), "want": totalSize})
	}
	return buf, nil
}

// DecodeRow decodes a fully-assembled payload into its header (serial
// types) and body, returning the column values in order. It sets no
// rowid; DecodeTableRow and DecodeIndexRow attach one (the table-leaf
// cell's rowid, or the trailing index column).
func DecodeRow(payload []byte) ([]Value, error) {
	c := varint.NewCursor(payload)
	headerSize, err := c.ReadVarint()
	if err != nil {
		return nil, dberrors.New(dberrors.KindFormat, "decode_record_header", err)
	}
	headerEnd := int(headerSize)
	if headerEnd > len(payload) {
		return nil, dberrors.New(dberrors.KindFormat, "decode_record_header", dberrors.ErrRecordHeaderLength)
	}

	var serialTypes []uint64
	for c.Pos < headerEnd {
		st, err := c.ReadVarint()
		if err != nil {
			return nil, dberrors.New(dberrors.KindFormat, "decode_record_header", err)
		}
		serialTypes = append(serialTypes, st)
	}
	if c.Pos != headerEnd {
		return nil, dberrors.New(dberrors.KindFormat, "decode_record_header", dberrors.ErrRecordHeaderLength)
	}

	body := payload[headerEnd:]
	values := make([]Value, len(serialTypes))
	pos := 0
	for i, st := range serialTypes {
		size, _, err := serialTypeSize(st)
		if err != nil {
			return nil, err
		}
		if pos+size > len(body) {
			return nil, dberrors.New(dberrors.KindFormat, "decode_record_body", dberrors.ErrInsufficientData)
		}
		v, err := valueFromSerialType(st, body[pos:pos+size])
		if err != nil {
			return nil, err
		}
		values[i] = v
		pos += size
	}
	if pos != len(body) {
		return nil, dberrors.New(dberrors.KindFormat, "decode_record_body", dberrors.ErrRecordHeaderLength)
	}
	return values, nil
}

// DecodeTableRow assembles a table-leaf cell's payload and decodes it,
// setting Rowid from the cell.
func DecodeTableRow(cell cellcodec.Cell, usable int, assembler OverflowAssembler) (Row, error) {
	payload, err := AssemblePayload(cell.LocalPayload, cell.OverflowPage, int(cell.PayloadSize), usable, assembler)
	if err != nil {
		return Row{}, err
	}
	values, err := DecodeRow(payload)
	if err != nil {
		return Row{}, err
	}
	return Row{Rowid: cell.Rowid, Values: values}, nil
}

// DecodeIndexRow assembles an index cell's payload and decodes it. The
// trailing value is the table rowid per spec.md's index-row layout.
func DecodeIndexRow(cell cellcodec.Cell, usable int, assembler OverflowAssembler) (Row, error) {
	payload, err := AssemblePayload(cell.LocalPayload, cell.OverflowPage, int(cell.PayloadSize), usable, assembler)
	if err != nil {
		return Row{}, err
	}
	values, err := DecodeRow(payload)
	if err != nil {
		return Row{}, err
	}
	if len(values) == 0 {
		return Row{}, dberrors.New(dberrors.KindFormat, "decode_index_row", dberrors.ErrRecordHeaderLength)
	}
	rowidVal := values[len(values)-1]
	if rowidVal.Kind != KindInt {
		return Row{}, dberrors.New(dberrors.KindUnsupported, "decode_index_row", dberrors.ErrNonIntegerRowid)
	}
	return Row{Rowid: uint64(rowidVal.Int), Values: values[:len(values)-1]}, nil
}
