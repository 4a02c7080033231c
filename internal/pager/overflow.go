package pager

// OverflowReader adapts a Pager to the record package's
// OverflowAssembler interface without record needing to import pager.
type OverflowReader struct {
	Pager *Pager
}

// ReadOverflowPage returns the overflow page's full buffer and a release
// function the caller must invoke exactly once.
func (r OverflowReader) ReadOverflowPage(pageNumber uint32) ([]byte, func(), error) {
	pg, err := r.Pager.GetPage(pageNumber)
	if err != nil {
		return nil, func() {}, err
	}
	return pg.Data, func() { r.Pager.ReleasePage(pg) }, nil
}
