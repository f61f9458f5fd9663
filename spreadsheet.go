// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package streamsheet writes spreadsheets (csv, xlsx, ods) row by row,
// spooling every sheet to a scratch directory so memory use does not grow
// with the number of rows.
//
// A Workbook is created with the Renderer of the wanted format
// (see the csv, xlsx and ods subpackages), opened on a path, fed with rows
// and closed. Any error while writing removes everything written so far.
package streamsheet

import (
	"io"
)

// Writer writes the spreadsheet consisting of the sheets created
// with NewSheet. The write finishes when Close is called.
//
// Workbook implements Writer; it does NOT allow writing to separate sheets
// concurrently.
type Writer interface {
	io.Closer
	NewSheet(name string, cols []Column) (SheetWriter, error)
}

// SheetWriter should be Closed when finished.
type SheetWriter interface {
	io.Closer
	AppendRow(values ...any) error
}

// Style is a style for a column/row/cell.
//
// Styles are opaque handles for the writer: equal styles share one entry
// in the format's style table.
type Style struct {
	// Format is the number format
	Format string
	// FontBold is true if the font is bold
	FontBold bool
	// WrapText wraps long text in the cell.
	// Text containing newlines is always wrapped.
	WrapText bool
}

// IsZero reports whether st is the default style.
func (st Style) IsZero() bool { return st == Style{} }

// Column contains the Name of the column and header's style and column's style.
type Column struct {
	Name           string
	Header, Column Style
}

// Number is a string that contains a number.
type Number string
