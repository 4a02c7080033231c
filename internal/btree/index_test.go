package btree

import (
	"io"
	"testing"

	"github.com/mattleeder/sgl/internal/record"
)

func drainRowids(t *testing.T, it *IndexScanIterator) []uint64 {
	t.Helper()
	var got []uint64
	for {
		rowid, err := it.NextRowid()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, rowid)
	}
	return got
}

func assertRowids(t *testing.T, got, want []uint64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestIndexScanEqualityReturnsMatchingRun(t *testing.T) {
	data, root := buildIndexFixture(512)
	p := openFixture(data)
	it, err := NewIndexScanIterator(p, root, OpEQ, record.NewText([]byte("date")))
	if err != nil {
		t.Fatal(err)
	}
	assertRowids(t, drainRowids(t, it), []uint64{4, 5})
}

func TestIndexScanLessThanReturnsPrefix(t *testing.T) {
	data, root := buildIndexFixture(512)
	p := openFixture(data)
	it, err := NewIndexScanIterator(p, root, OpLT, record.NewText([]byte("date")))
	if err != nil {
		t.Fatal(err)
	}
	assertRowids(t, drainRowids(t, it), []uint64{2, 3})
}

func TestIndexScanGreaterThanReturnsSuffix(t *testing.T) {
	data, root := buildIndexFixture(512)
	p := openFixture(data)
	it, err := NewIndexScanIterator(p, root, OpGT, record.NewText([]byte("cherry")))
	if err != nil {
		t.Fatal(err)
	}
	assertRowids(t, drainRowids(t, it), []uint64{4, 5})
}

func TestIndexScanEqualityNoMatchReturnsEmpty(t *testing.T) {
	data, root := buildIndexFixture(512)
	p := openFixture(data)
	it, err := NewIndexScanIterator(p, root, OpEQ, record.NewText([]byte("elderberry")))
	if err != nil {
		t.Fatal(err)
	}
	assertRowids(t, drainRowids(t, it), nil)
}
