// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package streamsheet

import (
	"fmt"
	"log/slog"

	"github.com/UNO-SOFT/streamsheet/container"
	"github.com/zeebo/errs"
)

type state uint8

const (
	stateUnopened state = iota
	stateOpen
	stateClosed
	stateFailed
)

var _ Writer = (*Workbook)(nil)

// Workbook is a spreadsheet being written.
//
// Its life is New, Configure (optional), Open, AddRows... and Close.
// Any error after Open removes the output and the scratch files,
// and makes the Workbook unusable.
//
// A Workbook is not safe for concurrent use.
type Workbook struct {
	renderer Renderer
	c        *container.Writer
	logger   *slog.Logger
	current  *Sheet
	sheets   []*Sheet
	cells    []Cell
	cfg      Config
	state    state
}

// New returns an unopened Workbook writing with the renderer.
func New(r Renderer, opts ...Option) *Workbook {
	wb := &Workbook{renderer: r}
	for _, o := range opts {
		o(&wb.cfg)
	}
	return wb
}

// Configure modifies the configuration. It fails after Open.
func (wb *Workbook) Configure(opts ...Option) error {
	if wb.state != stateUnopened {
		return ErrWriterAlreadyOpened
	}
	for _, o := range opts {
		o(&wb.cfg)
	}
	return nil
}

// Config returns the current configuration.
func (wb *Workbook) Config() Config { return wb.cfg }

// Open creates the output at path and the first sheet.
//
// On error (of class IOError) no file is left behind and the Workbook
// stays unopened.
func (wb *Workbook) Open(path string) error {
	if wb.state != stateUnopened {
		return ErrWriterAlreadyOpened
	}
	wb.logger = wb.cfg.Logger
	if wb.logger == nil {
		wb.logger = slog.New(slog.DiscardHandler)
	}
	wb.logger = wb.logger.With("format", wb.renderer.Name())
	c, err := container.Create(path, container.Config{
		TempFolder: wb.cfg.TempFolder,
		Flat:       isFlat(wb.renderer),
		Logger:     wb.logger,
	})
	if err != nil {
		return IOError.Wrap(err)
	}
	wb.c = c
	if err = wb.renderer.Start(c); err == nil {
		wb.state = stateOpen
		_, err = wb.newSheet()
	}
	if err != nil {
		wb.state = stateUnopened
		wb.c, wb.sheets, wb.current = nil, nil, nil
		return IOError.Wrap(errs.Combine(err, c.Abort()))
	}
	wb.logger.Debug("opened", "path", c.Path(), "maxRows", wb.maxRows(),
		"autoSplit", wb.cfg.ShouldCreateNewSheetsAutomatically)
	return nil
}

func (wb *Workbook) maxRows() int {
	if wb.cfg.MaxRowsPerSheet > 0 {
		return wb.cfg.MaxRowsPerSheet
	}
	return wb.renderer.MaxRowsPerSheet()
}

// AddRow appends one row of the given cells to the current sheet.
func (wb *Workbook) AddRow(cells ...any) error {
	return wb.AddRows(Row{Cells: cells})
}

// AddRows appends the rows to the current sheet.
//
// When automatic sheet creation is configured, a new sheet is started
// before a row that would not fit the current one.
//
// Any error (of class WriteError) aborts the whole write: the output
// is removed and the Workbook can only be Closed.
func (wb *Workbook) AddRows(rows ...Row) error {
	if wb.state != stateOpen {
		return ErrWriterNotOpened
	}
	for i, row := range rows {
		if err := wb.addRow(row); err != nil {
			return wb.fail(fmt.Errorf("sheet %s row %d: %w", wb.current, wb.current.rows+1, err),
				"row", i)
		}
	}
	return nil
}

func (wb *Workbook) addRow(row Row) error {
	s := wb.current
	if limit := wb.maxRows(); wb.cfg.ShouldCreateNewSheetsAutomatically && limit > 0 && s.rows >= limit {
		next, err := wb.newSheet()
		if err != nil {
			return err
		}
		s.rolled, s.continued = true, next
		next.cols = s.cols
		wb.logger.Debug("auto-split", "from", s.String(), "to", next.String(), "rows", s.rows)
		s = next
	}
	var err error
	if wb.cells, err = inferRow(wb.cells, row, s.cols, wb.renderer.MaxTextLength()); err != nil {
		return err
	}
	if err = wb.renderer.RenderRow(s, wb.cells); err != nil {
		return err
	}
	s.rows++
	if n := len(wb.cells); n > s.maxCols {
		s.maxCols = n
	}
	clear(wb.cells)
	return nil
}

// AddNewSheetAndMakeItCurrent appends a new sheet and makes it current.
func (wb *Workbook) AddNewSheetAndMakeItCurrent() (*Sheet, error) {
	if wb.state != stateOpen {
		return nil, ErrWriterNotOpened
	}
	s, err := wb.newSheet()
	if err != nil {
		return nil, wb.fail(err)
	}
	return s, nil
}

func (wb *Workbook) newSheet() (*Sheet, error) {
	s := &Sheet{wb: wb, index: len(wb.sheets) + 1}
	s.name = wb.defaultSheetName(s.index)
	if err := wb.renderer.AddSheet(wb.c, s); err != nil {
		return nil, fmt.Errorf("add sheet %s: %w", s, err)
	}
	wb.sheets = append(wb.sheets, s)
	wb.current = s
	wb.logger.Debug("new sheet", "sheet", s.String())
	return s, nil
}

// Sheets returns the sheets in creation order.
func (wb *Workbook) Sheets() []*Sheet {
	return append([]*Sheet(nil), wb.sheets...)
}

// CurrentSheet returns the sheet receiving the rows, nil before Open.
func (wb *Workbook) CurrentSheet() *Sheet { return wb.current }

// SetCurrentSheet makes s the current sheet.
//
// Any sheet of the workbook may be resumed, even one rolled past by
// automatic sheet creation.
func (wb *Workbook) SetCurrentSheet(s *Sheet) error {
	if wb.state != stateOpen {
		return ErrWriterNotOpened
	}
	if s == nil || s.wb != wb {
		return ErrSheetNotFound
	}
	s.rolled = false
	wb.current = s
	return nil
}

// NewSheet implements Writer: it returns a sheet named name, with a header
// row of the column names (if any) in their Header style.
// The first, still empty sheet is reused.
func (wb *Workbook) NewSheet(name string, cols []Column) (SheetWriter, error) {
	if wb.state != stateOpen {
		return nil, ErrWriterNotOpened
	}
	s := wb.current
	if !(len(wb.sheets) == 1 && !s.claimed && s.rows == 0) {
		var err error
		if s, err = wb.AddNewSheetAndMakeItCurrent(); err != nil {
			return nil, err
		}
	}
	if name != "" && name != s.name {
		if err := s.SetName(name); err != nil {
			return nil, err
		}
	}
	s.claimed, s.cols = true, cols
	var hasHeader bool
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = Styled{V: c.Name, Style: c.Header}
		hasHeader = hasHeader || c.Name != ""
	}
	if hasHeader {
		if err := wb.AddRows(Row{Cells: header}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close finishes every sheet, writes the metadata and seals the output.
//
// Close is idempotent, and a no-op on a never opened or failed Workbook.
func (wb *Workbook) Close() error {
	if wb == nil || wb.state != stateOpen {
		return nil
	}
	if err := wb.renderer.Finalize(wb.c, wb.sheets); err != nil {
		return wb.fail(fmt.Errorf("finalize: %w", err))
	}
	wb.state = stateClosed
	if err := wb.c.Finalize(); err != nil {
		wb.state = stateFailed
		wb.logger.Error("seal", "path", wb.c.Path(), "error", err)
		return WriteError.Wrap(err)
	}
	var rows int
	for _, s := range wb.sheets {
		rows += s.rows
	}
	wb.logger.Info("written", "path", wb.c.Path(), "sheets", len(wb.sheets), "rows", rows)
	return nil
}

// Abort discards everything written so far. It is a no-op unless the
// Workbook is open.
func (wb *Workbook) Abort() error {
	if wb == nil || wb.state != stateOpen {
		return nil
	}
	wb.state = stateFailed
	return wb.c.Abort()
}

func (wb *Workbook) fail(err error, args ...any) error {
	wb.state = stateFailed
	err = errs.Combine(err, wb.c.Abort())
	wb.logger.Error("aborted", append(args, "path", wb.c.Path(), "error", err)...)
	return WriteError.Wrap(err)
}
