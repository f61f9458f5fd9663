// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package streamsheet

import "github.com/UNO-SOFT/streamsheet/container"

// Renderer translates rows into the markup of one container format.
//
// Implementations are in the csv, xlsx and ods subpackages.
// A Renderer serves one Workbook and is not safe for concurrent use.
type Renderer interface {
	// Name of the format ("csv", "xlsx", "ods").
	Name() string
	// MaxRowsPerSheet is the format's maximum, 0 if unlimited.
	MaxRowsPerSheet() int
	// MaxTextLength is the maximum length of a text cell in characters, 0 if unlimited.
	MaxTextLength() int
	// Start is called on Open, before the first sheet is added.
	Start(c *container.Writer) error
	// AddSheet prepares the part of a new sheet.
	AddSheet(c *container.Writer, s *Sheet) error
	// RenderRow appends one row to the sheet's part.
	// s.RowCount() is the number of rows already rendered into s.
	RenderRow(s *Sheet, cells []Cell) error
	// Finalize adds every sheet part and the metadata entries to c.
	Finalize(c *container.Writer, sheets []*Sheet) error
}

// FlatRenderer is implemented by Renderers that write a single flat file
// instead of an archive.
type FlatRenderer interface {
	Renderer
	IsFlat() bool
}

func isFlat(r Renderer) bool {
	fr, ok := r.(FlatRenderer)
	return ok && fr.IsFlat()
}
