package btree

import (
	"io"
	"testing"
)

func TestTableScanIteratorReturnsRowsInRowidOrder(t *testing.T) {
	data, root := buildTableFixture(512)
	p := openFixture(data)
	it, err := NewTableScanIterator(p, root)
	if err != nil {
		t.Fatal(err)
	}
	var got []uint64
	for {
		row, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, row.Rowid)
	}
	want := []uint64{1, 3, 5, 7, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSeekRowidFindsExistingRow(t *testing.T) {
	data, root := buildTableFixture(512)
	p := openFixture(data)
	tc := NewTableCursor(p, root)
	row, found, err := tc.SeekRowid(7)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected rowid 7 to be found")
	}
	if row.Values[0].Int != 70 {
		t.Errorf("value = %d, want 70", row.Values[0].Int)
	}
}

func TestSeekRowidMissingRowNotFound(t *testing.T) {
	data, root := buildTableFixture(512)
	p := openFixture(data)
	tc := NewTableCursor(p, root)
	_, found, err := tc.SeekRowid(6)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected rowid 6 to be absent")
	}
}

func TestSeekRowidBeyondRangeNotFound(t *testing.T) {
	data, root := buildTableFixture(512)
	p := openFixture(data)
	tc := NewTableCursor(p, root)
	_, found, err := tc.SeekRowid(100)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected rowid 100 to be absent")
	}
}
