package rowset

import (
	"fmt"
	"log"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/messages"
	"github.com/rzpsarthak13/rowcache/internal/rowstore"
)

// pager tracks the window of the source currently materialized.
// Positions are 1-based record numbers in the source.
type pager struct {
	pageSize int
	maxRows  int

	source      core.RecordSource
	calls       int
	startPos    int // start of the first window
	endPos      int // first record after the current window
	prevEndPos  int
	startPrev   int // start of the window before the current one
	totalRows   int
	totalKnown  bool
	reached     int // rows materialized so far, net of page rewinds
	pageNotEnd  bool
	onFirstPage bool
}

func (p *pager) reset() {
	*p = pager{pageSize: p.pageSize, maxRows: p.maxRows}
}

func (rs *RowSet) checkSizes(pageSize, maxRows int) error {
	if pageSize < 0 {
		return rs.fail(core.ErrConfiguration, messages.NegativePageSize)
	}
	if maxRows < 0 {
		return rs.fail(core.ErrConfiguration, messages.NegativeMaxRows)
	}
	if maxRows > 0 && pageSize > maxRows {
		return rs.fail(core.ErrConfiguration, messages.PageSizeOverMax, pageSize, maxRows)
	}
	return nil
}

// PageSize returns the page size; 0 means no paging.
func (rs *RowSet) PageSize() int { return rs.pager.pageSize }

// MaxRows returns the row cap; 0 means unbounded.
func (rs *RowSet) MaxRows() int { return rs.pager.maxRows }

// SetPageSize sets the page size. It may not exceed a non-zero max rows.
func (rs *RowSet) SetPageSize(n int) error {
	if err := rs.checkSizes(n, rs.pager.maxRows); err != nil {
		return err
	}
	rs.pager.pageSize = n
	return nil
}

// SetMaxRows sets the row cap. A non-zero cap may not be below the page
// size.
func (rs *RowSet) SetMaxRows(n int) error {
	if n > 0 && n < rs.pager.pageSize {
		return rs.fail(core.ErrConfiguration, messages.MaxRowsUnderPage, n, rs.pager.pageSize)
	}
	if err := rs.checkSizes(rs.pager.pageSize, n); err != nil {
		return err
	}
	rs.pager.maxRows = n
	return nil
}

func readColumns(src core.RecordSource) ([]core.Column, error) {
	n := src.ColumnCount()
	cols := make([]core.Column, n)
	for i := 1; i <= n; i++ {
		col, err := src.Column(i)
		if err != nil {
			return nil, err
		}
		cols[i-1] = col
	}
	return cols, nil
}

func readRow(src core.RecordSource, n int) (*rowstore.Row, error) {
	values := make([]interface{}, n)
	for i := 1; i <= n; i++ {
		v, err := src.Value(i)
		if err != nil {
			return nil, err
		}
		values[i-1] = v
	}
	return rowstore.NewRowFromValues(values), nil
}

// install replaces the content of the store and resets the cursor.
func (rs *RowSet) install(cols []core.Column, rows []*rowstore.Row) {
	rs.data.columns = cols
	_ = rs.data.rows.Replace(rows)
	rs.cur = cursor{}
	rs.insert = nil
	rs.notifyRowSetChanged()
}

// Populate materializes the whole source, up to max rows, replacing the
// current content. When the cap stops the read a warning is recorded.
// Paging state is reset.
func (rs *RowSet) Populate(src core.RecordSource) error {
	if src == nil {
		return fmt.Errorf("%w: nil record source", core.ErrConfiguration)
	}
	cols, err := readColumns(src)
	if err != nil {
		return fmt.Errorf("failed to read column metadata: %w", err)
	}

	var rows []*rowstore.Row
	for src.Next() {
		if rs.pager.maxRows > 0 && len(rows) >= rs.pager.maxRows {
			rs.warn(messages.MaxRowsExceeded, rs.pager.maxRows)
			break
		}
		row, err := readRow(src, len(cols))
		if err != nil {
			return fmt.Errorf("failed to read record %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	if err := src.Err(); err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	rs.pager.reset()
	rs.install(cols, rows)
	log.Printf("[ROWSET] Populated %d rows (%d columns)", len(rows), len(cols))
	return nil
}

// PopulateFrom materializes one window of the source starting at record
// start (1-based). The first call after Populate, Release or a new row set
// fixes the first page; when max rows is 0 and the source is scrollable it
// also scans the source once to count its records.
func (rs *RowSet) PopulateFrom(src core.RecordSource, start int) error {
	if src == nil {
		return fmt.Errorf("%w: nil record source", core.ErrConfiguration)
	}
	if start < 1 {
		return rs.fail(core.ErrConfiguration, messages.BadStartPosition, start)
	}
	p := &rs.pager
	if p.calls == 0 {
		p.reset()
		p.source = src
		p.startPos = start
		if p.maxRows == 0 && src.Scrollable() {
			total, err := countRecords(src)
			if err != nil {
				return err
			}
			p.totalRows = total
			p.totalKnown = true
		}
	}
	p.source = src
	return rs.fillWindow(start)
}

func countRecords(src core.RecordSource) (int, error) {
	if err := src.Seek(0); err != nil {
		return 0, fmt.Errorf("failed to rewind source: %w", err)
	}
	n := 0
	for src.Next() {
		n++
	}
	if err := src.Err(); err != nil {
		return 0, fmt.Errorf("failed to count source records: %w", err)
	}
	return n, nil
}

// fillWindow reads the window starting at start into the store.
func (rs *RowSet) fillWindow(start int) error {
	p := &rs.pager
	p.calls++

	// The cap is already covered; the window and its bounds stay put.
	if p.maxRows > 0 && p.endPos-p.startPos >= p.maxRows {
		p.pageNotEnd = false
		return nil
	}

	window := p.pageSize
	if window == 0 {
		window = p.maxRows
	}

	src := p.source
	if err := src.Seek(start - 1); err != nil {
		return fmt.Errorf("failed to position source at record %d: %w", start, err)
	}
	cols, err := readColumns(src)
	if err != nil {
		return fmt.Errorf("failed to read column metadata: %w", err)
	}

	var rows []*rowstore.Row
	capped := false
	// A full window stops before advancing so a forward-only source stays
	// on the last record read.
	for p.pageSize == 0 || len(rows) < p.pageSize {
		if !src.Next() {
			break
		}
		if p.maxRows > 0 && p.reached+len(rows) >= p.maxRows {
			capped = true
			rs.warn(messages.MaxRowsExceeded, p.maxRows)
			break
		}
		row, err := readRow(src, len(cols))
		if err != nil {
			return fmt.Errorf("failed to read record %d: %w", start+len(rows), err)
		}
		rows = append(rows, row)
	}
	if err := src.Err(); err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	// A window past the end keeps the current page.
	if len(rows) == 0 && p.calls > 1 {
		p.pageNotEnd = false
		return nil
	}

	if p.pageSize > 0 && (p.reached < p.maxRows || p.maxRows == 0) {
		p.startPrev = start - p.pageSize
	}
	p.prevEndPos = p.endPos
	if window > 0 {
		p.endPos = start + window
	} else {
		p.endPos = start + len(rows)
	}
	p.reached += len(rows)

	last := capped ||
		window == 0 ||
		len(rows) < window ||
		(p.maxRows > 0 && p.reached >= p.maxRows) ||
		(p.totalKnown && p.endPos > p.totalRows)
	p.pageNotEnd = !last

	rs.install(cols, rows)
	log.Printf("[ROWSET] Loaded window [%d, %d) with %d rows", start, start+len(rows), len(rows))
	return nil
}

// NextPage loads the window following the current one. It returns false
// when the current window was the last one; the store is then unchanged.
// Otherwise it returns whether more windows follow the one just loaded.
func (rs *RowSet) NextPage() (bool, error) {
	p := &rs.pager
	if p.calls == 0 {
		return false, rs.fail(core.ErrCapability, messages.NotPopulated)
	}
	p.onFirstPage = false
	if !p.pageNotEnd {
		return false, nil
	}
	if err := rs.fillWindow(p.endPos); err != nil {
		return false, err
	}
	return p.pageNotEnd, nil
}

// PreviousPage loads the window before the current one. It returns false
// on the first page. The source must be scrollable.
func (rs *RowSet) PreviousPage() (bool, error) {
	p := &rs.pager
	if p.calls == 0 {
		return false, rs.fail(core.ErrCapability, messages.NotPopulated)
	}
	if !p.source.Scrollable() {
		return false, rs.fail(core.ErrCapability, messages.ForwardOnly)
	}

	p.pageNotEnd = true
	if p.startPrev < p.startPos {
		p.onFirstPage = true
		return false, nil
	}
	if p.onFirstPage || p.pageSize == 0 {
		return false, nil
	}

	if rem := p.reached % p.pageSize; rem == 0 {
		p.reached -= 2 * p.pageSize
	} else {
		p.reached -= p.pageSize + rem
	}
	if err := rs.fillWindow(p.startPrev); err != nil {
		return false, err
	}
	return true, nil
}
