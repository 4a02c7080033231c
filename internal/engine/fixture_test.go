package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mattleeder/sgl/internal/fixture"
)

// TestRunOverflowPayloadRoundTrips writes a row whose body column is far
// larger than a single page's local payload budget, forcing a real
// overflow chain, and checks the value is reassembled byte for byte.
func TestRunOverflowPayloadRoundTrips(t *testing.T) {
	long := fixture.LongText(8000)
	path, err := fixture.Build(t.TempDir(),
		"CREATE TABLE items (id INTEGER PRIMARY KEY, body TEXT)",
		fmt.Sprintf("INSERT INTO items (body) VALUES ('%s')", long),
	)
	if err != nil {
		t.Fatal(err)
	}

	e, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	var buf strings.Builder
	if err := e.Run("SELECT body FROM items WHERE id = 1", &buf); err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSuffix(buf.String(), "\n")
	if got != long {
		t.Errorf("overflow payload mismatch: got %d bytes, want %d", len(got), len(long))
	}
}

// TestRunIndexDrivenScanTouchesFewerPagesThanFullScan populates enough
// rows to span multiple leaf pages, then checks a unique equality
// lookup through a CREATE INDEX column reads fewer pages than a full
// table scan over the same table.
func TestRunIndexDrivenScanTouchesFewerPagesThanFullScan(t *testing.T) {
	const rowCount = 600
	stmts := []string{
		"CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)",
		"CREATE INDEX idx_items_name ON items (name)",
	}
	for i := 0; i < rowCount; i++ {
		stmts = append(stmts, fmt.Sprintf("INSERT INTO items (name) VALUES ('item%05d')", i))
	}
	dir := t.TempDir()
	path, err := fixture.Build(dir, stmts...)
	if err != nil {
		t.Fatal(err)
	}

	fullScan, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fullScan.Close()
	var discard strings.Builder
	if err := fullScan.Run("SELECT id FROM items", &discard); err != nil {
		t.Fatal(err)
	}
	fullScanFetches := fullScan.PageFetches()

	indexed, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer indexed.Close()
	var out strings.Builder
	if err := indexed.Run("SELECT id FROM items WHERE name = 'item00300'", &out); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) == "" {
		t.Fatal("expected a matching row, got none")
	}
	indexedFetches := indexed.PageFetches()

	if indexedFetches >= fullScanFetches {
		t.Errorf("indexed scan fetched %d pages, want fewer than full scan's %d", indexedFetches, fullScanFetches)
	}
}
