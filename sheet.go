// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package streamsheet

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLength is the maximum length of a sheet name, in characters.
const MaxSheetNameLength = 31

const invalidSheetNameChars = `\/?*:[]`

var _ SheetWriter = (*Sheet)(nil)

// Sheet is one worksheet of a Workbook.
type Sheet struct {
	wb        *Workbook // owner, for identity checks only
	continued *Sheet    // the sheet that took over when this was rolled past
	name      string
	cols      []Column
	index     int
	rows      int
	maxCols   int
	rolled    bool
	claimed   bool
}

// Index is the 1-based position of the sheet in the workbook.
func (s *Sheet) Index() int { return s.index }

// Name of the sheet.
func (s *Sheet) Name() string { return s.name }

// RowCount returns the number of rows written to the sheet.
func (s *Sheet) RowCount() int { return s.rows }

// ColumnCount returns the number of cells in the widest row.
func (s *Sheet) ColumnCount() int { return s.maxCols }

// IsRolledPast reports whether automatic splitting moved on to a new sheet.
func (s *Sheet) IsRolledPast() bool { return s.rolled }

// IsCurrent reports whether s is the current sheet of its workbook.
func (s *Sheet) IsCurrent() bool { return s.wb != nil && s.wb.current == s }

// SetName renames the sheet.
//
// The name must be 1-31 characters long, must not contain any of \ / ? * : [ ],
// must not start or end with an apostrophe and must be unique
// (case-insensitively) in the workbook.
func (s *Sheet) SetName(name string) error {
	if s.wb == nil || s.wb.state != stateOpen {
		return ErrWriterNotOpened
	}
	if err := s.wb.checkSheetName(s, name); err != nil {
		return err
	}
	s.name = name
	return nil
}

// AppendRow appends the values as a new row to the sheet,
// or to the sheet continuing it after an automatic split.
//
// Columns given to Writer.NewSheet style the cells without style.
func (s *Sheet) AppendRow(values ...any) error {
	if s.wb == nil {
		return ErrWriterNotOpened
	}
	t := s
	for t.rolled && t.continued != nil {
		t = t.continued
	}
	if !t.IsCurrent() {
		if err := s.wb.SetCurrentSheet(t); err != nil {
			return err
		}
	}
	return s.wb.AddRows(Row{Cells: values})
}

// Close is a no-op: sheets are finished when the workbook is closed.
func (s *Sheet) Close() error { return nil }

func (s *Sheet) String() string { return fmt.Sprintf("%d:%q", s.index, s.name) }

func (wb *Workbook) checkSheetName(s *Sheet, name string) error {
	n := utf8.RuneCountInString(name)
	switch {
	case !utf8.ValidString(name):
		return fmt.Errorf("%q is not valid UTF-8: %w", name, ErrInvalidSheetName)
	case strings.IndexFunc(name, isControl) >= 0:
		return fmt.Errorf("%q contains a control character: %w", name, ErrInvalidSheetName)
	case n == 0:
		return fmt.Errorf("empty: %w", ErrInvalidSheetName)
	case n > MaxSheetNameLength:
		return fmt.Errorf("%q is longer than %d characters: %w", name, MaxSheetNameLength, ErrInvalidSheetName)
	case strings.ContainsAny(name, invalidSheetNameChars):
		return fmt.Errorf("%q contains one of %s: %w", name, invalidSheetNameChars, ErrInvalidSheetName)
	case strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'"):
		return fmt.Errorf("%q starts or ends with an apostrophe: %w", name, ErrInvalidSheetName)
	}
	for _, other := range wb.sheets {
		if other != s && strings.EqualFold(other.name, name) {
			return fmt.Errorf("%q is already used by sheet %d: %w", name, other.index, ErrInvalidSheetName)
		}
	}
	return nil
}

// isControl reports whether r must not appear in a sheet name.
func isControl(r rune) bool { return r < 0x20 || r == 0x7F || r == 0xFFFE || r == 0xFFFF }

func (wb *Workbook) defaultSheetName(index int) string {
	for n := index; ; n++ {
		name := fmt.Sprintf("Sheet%d", n)
		if wb.checkSheetName(nil, name) == nil {
			return name
		}
	}
}
