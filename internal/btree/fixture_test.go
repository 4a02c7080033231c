package btree

import (
	"io"

	"github.com/mattleeder/sgl/internal/pager"
)

type memFile struct{ data []byte }

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}
func (m *memFile) Close() error { return nil }

const sqliteMagic = "SQLite format 3\x00"

// putCellPointers writes a B-tree header and cell-pointer array for a
// page whose cells have already been placed at the offsets in offsets,
// from highest address down (matching how SQLite packs cell content
// from the end of the page).
func putCellPointers(buf []byte, headerOffset int, typ byte, rightmost uint32, contentStart int, offsets []int) {
	buf[headerOffset] = typ
	buf[headerOffset+1] = 0
	buf[headerOffset+2] = 0
	buf[headerOffset+3] = byte(len(offsets) >> 8)
	buf[headerOffset+4] = byte(len(offsets))
	buf[headerOffset+5] = byte(contentStart >> 8)
	buf[headerOffset+6] = byte(contentStart)
	buf[headerOffset+7] = 0
	ptrStart := headerOffset + 8
	if typ == 0x02 || typ == 0x05 {
		buf[headerOffset+8] = byte(rightmost >> 24)
		buf[headerOffset+9] = byte(rightmost >> 16)
		buf[headerOffset+10] = byte(rightmost >> 8)
		buf[headerOffset+11] = byte(rightmost)
		ptrStart = headerOffset + 12
	}
	for i, off := range offsets {
		buf[ptrStart+i*2] = byte(off >> 8)
		buf[ptrStart+i*2+1] = byte(off)
	}
}

// tableLeafCell builds a table-leaf cell storing a single int8 column
// equal to value, for the given rowid. Returns the cell bytes.
func tableLeafCell(rowid byte, value byte) []byte {
	header := []byte{2, 1} // header size=2, serial type 1 (int8)
	payload := append(header, value)
	return append([]byte{byte(len(payload)), rowid}, payload...)
}

func tableInteriorCell(leftChild uint32, rowid byte) []byte {
	cell := []byte{byte(leftChild >> 24), byte(leftChild >> 16), byte(leftChild >> 8), byte(leftChild), rowid}
	return cell
}

// indexLeafCell builds an index-leaf cell with one text key column
// followed by the rowid as the trailing integer column.
func indexLeafCell(key string, rowid byte) []byte {
	keyLen := len(key)
	keySerial := byte(13 + 2*keyLen)
	header := []byte{3, keySerial, 1} // header size=3, text col, int8 col
	body := append([]byte(key), rowid)
	payload := append(header, body...)
	return append([]byte{byte(len(payload))}, payload...)
}

// buildTableFixture builds a 4-page database: page 1 is a bare header
// page, page 2 is the interior root (children 3 and 4), pages 3 and 4
// are leaves holding rowids 1,3,5 and 7,9 respectively.
func buildTableFixture(pageSize int) (data []byte, root uint32) {
	buf := make([]byte, pageSize*4)
	copy(buf[0:16], []byte(sqliteMagic))
	buf[16] = byte(pageSize >> 8)
	buf[17] = byte(pageSize)
	buf[31] = 4

	leaf3 := buf[2*pageSize : 3*pageSize]
	cells3 := [][]byte{tableLeafCell(1, 10), tableLeafCell(3, 30), tableLeafCell(5, 50)}
	pos := pageSize
	offsets3 := make([]int, len(cells3))
	for i, c := range cells3 {
		pos -= len(c)
		copy(leaf3[pos:], c)
		offsets3[i] = pos
	}
	putCellPointers(leaf3, 0, 0x0D, 0, pos, offsets3)

	leaf4 := buf[3*pageSize : 4*pageSize]
	cells4 := [][]byte{tableLeafCell(7, 70), tableLeafCell(9, 90)}
	pos = pageSize
	offsets4 := make([]int, len(cells4))
	for i, c := range cells4 {
		pos -= len(c)
		copy(leaf4[pos:], c)
		offsets4[i] = pos
	}
	putCellPointers(leaf4, 0, 0x0D, 0, pos, offsets4)

	interior := buf[1*pageSize : 2*pageSize]
	icell := tableInteriorCell(3, 5)
	pos = pageSize - len(icell)
	copy(interior[pos:], icell)
	putCellPointers(interior, 0, 0x05, 4, pos, []int{pos})

	return buf, 2
}

// buildIndexFixture builds a 2-page database: page 1 is a bare header
// page, page 2 is a single index-leaf page with sorted text keys
// "banana","cherry","date","date" paired with rowids 2,3,4,5 (two rows
// share the "date" key, exercising the equality scan's run).
func buildIndexFixture(pageSize int) (data []byte, root uint32) {
	buf := make([]byte, pageSize*2)
	copy(buf[0:16], []byte(sqliteMagic))
	buf[16] = byte(pageSize >> 8)
	buf[17] = byte(pageSize)
	buf[31] = 2

	leaf := buf[1*pageSize : 2*pageSize]
	cells := [][]byte{
		indexLeafCell("banana", 2),
		indexLeafCell("cherry", 3),
		indexLeafCell("date", 4),
		indexLeafCell("date", 5),
	}
	pos := pageSize
	offsets := make([]int, len(cells))
	for i, c := range cells {
		pos -= len(c)
		copy(leaf[pos:], c)
		offsets[i] = pos
	}
	putCellPointers(leaf, 0, 0x0A, 0, pos, offsets)

	return buf, 2
}

func openFixture(data []byte) *pager.Pager {
	p, err := pager.OpenReader(&memFile{data: data}, 16)
	if err != nil {
		panic(err)
	}
	return p
}
