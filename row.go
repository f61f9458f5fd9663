// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package streamsheet

import (
	"fmt"
	"unicode/utf8"
)

// Row is one row to be appended to the current sheet.
//
// Cells may hold scalars (see Infer), Values or Styled values.
// Style is applied to the cells that have no style of their own.
type Row struct {
	Cells []any
	Style Style
}

// R returns a Row of the given cells.
func R(cells ...any) Row { return Row{Cells: cells} }

// inferRow converts the row into dst (reusing its capacity).
// Text longer than maxLen runes is rejected with ErrValueTooLong.
func inferRow(dst []Cell, row Row, colStyles []Column, maxLen int) ([]Cell, error) {
	dst = dst[:0]
	for i, c := range row.Cells {
		v, err := Infer(c)
		if err != nil {
			return dst, fmt.Errorf("column %d: %w", i+1, err)
		}
		if maxLen > 0 && v.Kind() == KindText && len(v.Str()) > maxLen &&
			utf8.RuneCountInString(v.Str()) > maxLen {
			return dst, fmt.Errorf("column %d: %d characters (max %d): %w",
				i+1, utf8.RuneCountInString(v.Str()), maxLen, ErrValueTooLong)
		}
		st := row.Style
		if s, ok := c.(Styled); ok && !s.Style.IsZero() {
			st = s.Style
		} else if st.IsZero() && i < len(colStyles) {
			st = colStyles[i].Column
		}
		dst = append(dst, Cell{Value: v, Style: st})
	}
	return dst, nil
}
