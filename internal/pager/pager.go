// Package pager implements the demand-paged, slot-based page cache that
// every decoder above it reads through. It opens the database file
// read-only and serves fixed-size pages with pin-count and
// logical-clock LRU-style eviction.
package pager

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattleeder/sgl/internal/dberrors"
)

const defaultCacheCapacity = 16

// FileReader abstracts the file handle the pager reads through.
type FileReader interface {
	io.ReaderAt
	io.Closer
}

// Page is a pinned reference to one cached page buffer. Its Data slice
// is only valid until the matching Release call.
type Page struct {
	Number uint32
	Data   []byte
	slot   int
}

type slot struct {
	pageNum  uint32
	data     []byte
	pinCount int
	valid    bool
	lastUsed uint64
}

// Pager owns the file handle and the fixed-size slot cache.
type Pager struct {
	file     FileReader
	Header   Header
	capacity int
	slots    []slot
	clock    uint64
	fetches  int
}

// FetchCount returns the number of pages read from disk so far (cache
// misses), useful for tests asserting an index-driven scan touches
// fewer pages than a full table scan.
func (p *Pager) FetchCount() int {
	return p.fetches
}

// Open parses the database header and allocates the page cache. capacityOverride,
// when > 0, replaces the cache size derived from the header.
func Open(path string, capacityOverride int) (*Pager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dberrors.New(dberrors.KindIO, "pager_open", err)
	}
	p, err := OpenReader(f, capacityOverride)
	if err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

// OpenReader builds a Pager over an already-open FileReader, useful for
// tests that construct an in-memory fixture.
func OpenReader(f FileReader, capacityOverride int) (*Pager, error) {
	headerBuf := make([]byte, 100)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		return nil, dberrors.New(dberrors.KindIO, "pager_read_header", err)
	}
	hdr, err := ParseHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	capacity := int(hdr.DefaultPageCacheSize)
	if capacityOverride > 0 {
		capacity = capacityOverride
	}
	if capacity < defaultCacheCapacity {
		capacity = defaultCacheCapacity
	}

	p := &Pager{
		file:     f,
		Header:   hdr,
		capacity: capacity,
		slots:    make([]slot, capacity),
	}
	for i := range p.slots {
		p.slots[i].data = make([]byte, hdr.PageSize)
	}
	return p, nil
}

// Close closes the underlying file handle.
func (p *Pager) Close() error {
	return p.file.Close()
}

// PageCount returns the page count recorded in the database header.
func (p *Pager) PageCount() uint32 {
	return p.Header.PageCount
}

// PageSize returns the database's page size.
func (p *Pager) PageSize() int {
	return p.Header.PageSize
}

// UsableSize returns page_size - reserved_space.
func (p *Pager) UsableSize() int {
	return p.Header.UsableSize()
}

func (p *Pager) offsetFor(n uint32) int64 {
	return int64(n-1) * int64(p.Header.PageSize)
}

// GetPage returns a pinned Page for page number n (1-indexed), loading it
// from disk on a cache miss and evicting an unpinned slot if necessary.
func (p *Pager) GetPage(n uint32) (*Page, error) {
	if n == 0 {
		return nil, dberrors.Newf(dberrors.KindFormat, "get_page", dberrors.ErrInvalidPageType, map[string]any{"page": n})
	}

	for i := range p.slots {
		s := &p.slots[i]
		if s.valid && s.pageNum == n {
			p.clock++
			s.lastUsed = p.clock
			s.pinCount++
			return &Page{Number: n, Data: s.data, slot: i}, nil
		}
	}

	victim := -1
	for i := range p.slots {
		if !p.slots[i].valid {
			victim = i
			break
		}
	}
	if victim == -1 {
		best := -1
		var bestUsed uint64
		for i := range p.slots {
			s := &p.slots[i]
			if s.pinCount == 0 && (best == -1 || s.lastUsed < bestUsed) {
				best = i
				bestUsed = s.lastUsed
			}
		}
		if best == -1 {
			return nil, dberrors.New(dberrors.KindInvariant, "get_page", dberrors.ErrNoEvictionVictim)
		}
		victim = best
	}

	s := &p.slots[victim]
	s.valid = false
	offset := p.offsetFor(n)
	if _, err := p.file.ReadAt(s.data, offset); err != nil {
		return nil, dberrors.Newf(dberrors.KindIO, "get_page", err, map[string]any{
			"page":   n,
			"offset": humanize.Bytes(uint64(offset)),
			"size":   humanize.Bytes(uint64(len(s.data))),
		})
	}
	p.fetches++
	p.clock++
	s.pageNum = n
	s.valid = true
	s.lastUsed = p.clock
	s.pinCount = 1

	return &Page{Number: n, Data: s.data, slot: victim}, nil
}

// ReleasePage decrements the pin count of the slot backing pg. Every
// GetPage call must be matched by exactly one ReleasePage call.
func (p *Pager) ReleasePage(pg *Page) error {
	if pg == nil {
		return nil
	}
	s := &p.slots[pg.slot]
	if s.pinCount == 0 {
		return dberrors.New(dberrors.KindInvariant, "release_page", dberrors.ErrPinCountUnderflow)
	}
	s.pinCount--
	return nil
}
