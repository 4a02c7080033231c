package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const sqliteMagic = "SQLite format 3\x00"

func tableLeafCell(rowid byte, name string) []byte {
	nameSerial := byte(13 + 2*len(name))
	header := []byte{3, 1, nameSerial}
	body := append([]byte{rowid}, []byte(name)...)
	payload := append(header, body...)
	return append([]byte{byte(len(payload)), rowid}, payload...)
}

func schemaLeafCell(sql string, rootPage byte) []byte {
	serials := []uint64{13 + 10, 13 + 2, 13 + 2, 1, 13 + 2*uint64(len(sql))}
	header := []byte{0}
	for _, s := range serials {
		header = append(header, byte(s))
	}
	header[0] = byte(len(header))
	body := append([]byte{}, []byte("table")...)
	body = append(body, []byte("t")...)
	body = append(body, []byte("t")...)
	body = append(body, rootPage)
	body = append(body, []byte(sql)...)
	payload := append(header, body...)
	return append([]byte{byte(len(payload)), 1}, payload...)
}

func putPageHeader(buf []byte, headerOffset int, typ byte, contentStart int, numCells int) {
	buf[headerOffset] = typ
	buf[headerOffset+3] = byte(numCells >> 8)
	buf[headerOffset+4] = byte(numCells)
	buf[headerOffset+5] = byte(contentStart >> 8)
	buf[headerOffset+6] = byte(contentStart)
}

// buildFixtureFile writes a tiny 2-page database with one table
// t(id,name) holding two rows, and returns its path.
func buildFixtureFile(t *testing.T) string {
	t.Helper()
	pageSize := 512
	buf := make([]byte, pageSize*2)
	copy(buf[0:16], []byte(sqliteMagic))
	buf[16] = byte(pageSize >> 8)
	buf[17] = byte(pageSize)
	buf[31] = 2

	sql := "CREATE TABLE t (id integer, name text)"
	schemaCell := schemaLeafCell(sql, 2)
	pos := pageSize - len(schemaCell)
	copy(buf[pos:], schemaCell)
	putPageHeader(buf, 100, 0x0D, pos, 1)
	buf[108] = byte(pos >> 8)
	buf[109] = byte(pos)

	page2 := buf[pageSize : 2*pageSize]
	cells := [][]byte{tableLeafCell(1, "alice"), tableLeafCell(2, "bob")}
	pos2 := pageSize
	offsets := make([]int, len(cells))
	for i, c := range cells {
		pos2 -= len(c)
		copy(page2[pos2:], c)
		offsets[i] = pos2
	}
	putPageHeader(page2, 0, 0x0D, pos2, len(cells))
	for i, off := range offsets {
		page2[8+i*2] = byte(off >> 8)
		page2[8+i*2+1] = byte(off)
	}

	path := filepath.Join(t.TempDir(), "fixture.db")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunDbinfo(t *testing.T) {
	path := buildFixtureFile(t)
	var buf bytes.Buffer
	if err := run(path, ".dbinfo", &buf); err != nil {
		t.Fatal(err)
	}
	want := "database page size: 512\nnumber of tables: 1\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestRunTables(t *testing.T) {
	path := buildFixtureFile(t)
	var buf bytes.Buffer
	if err := run(path, ".tables", &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "t " {
		t.Errorf("output = %q, want %q", buf.String(), "t ")
	}
}

func TestRunSelect(t *testing.T) {
	path := buildFixtureFile(t)
	var buf bytes.Buffer
	if err := run(path, "SELECT name FROM t", &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "alice\nbob\n" {
		t.Errorf("output = %q, want %q", buf.String(), "alice\nbob\n")
	}
}
