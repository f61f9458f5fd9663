// Copyright 2020, 2023, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx renders Office Open XML (.xlsx) workbooks.
//
// Worksheets and the shared strings are spooled to the scratch directory,
// the package parts are assembled on Close.
package xlsx

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/container"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/quicktemplate"
	"github.com/xuri/excelize/v2"
)

var _ streamsheet.Renderer = (*Renderer)(nil)

const (
	// MaxRowCount is the number of maximum rows.
	MaxRowCount = 1_048_576
	// MaxTextLength is the maximum length of a text cell.
	MaxTextLength = 32767
)

// NewWriter returns a new, unopened xlsx Workbook.
//
// This writer does not allow concurrent writes.
func NewWriter(opts ...streamsheet.Option) *streamsheet.Workbook {
	return streamsheet.New(New(), opts...)
}

// Renderer of xlsx workbooks.
type Renderer struct {
	strings *sharedStrings
	styles  *styleTable
	sheets  []*container.Part
}

// New returns a Renderer for one workbook.
func New() *Renderer {
	return &Renderer{styles: newStyleTable()}
}

func (*Renderer) Name() string         { return "xlsx" }
func (*Renderer) MaxRowsPerSheet() int { return MaxRowCount }
func (*Renderer) MaxTextLength() int   { return MaxTextLength }

// Start opens the shared strings part.
func (r *Renderer) Start(c *container.Writer) error {
	part, err := c.OpenPart("xl/sharedStrings.xml")
	if err != nil {
		return err
	}
	r.strings = &sharedStrings{part: part, index: make(map[string]int)}
	return nil
}

// AddSheet opens the sheetData part of the sheet.
func (r *Renderer) AddSheet(c *container.Writer, s *streamsheet.Sheet) error {
	part, err := c.OpenPart(sheetPath(s.Index()))
	if err != nil {
		return err
	}
	r.sheets = append(r.sheets, part)
	return nil
}

func sheetPath(index int) string { return fmt.Sprintf("xl/worksheets/sheet%d.xml", index) }

// RenderRow writes the <row> element of the cells.
func (r *Renderer) RenderRow(s *streamsheet.Sheet, cells []streamsheet.Cell) error {
	part := r.sheets[s.Index()-1]
	rowNum := s.RowCount() + 1
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	qw := quicktemplate.AcquireWriter(buf)
	defer quicktemplate.ReleaseWriter(qw)
	w := qw.N()

	w.S(`<row r="`)
	w.D(rowNum)
	w.S(`">`)
	for i, c := range cells {
		if err := r.renderCell(qw, i+1, rowNum, c); err != nil {
			return fmt.Errorf("%d/%d: %w", i, rowNum, err)
		}
	}
	w.S(`</row>`)
	_, err := part.Write(buf.B)
	return err
}

func (r *Renderer) renderCell(qw *quicktemplate.Writer, col, row int, c streamsheet.Cell) error {
	v, st := c.Value, c.Style
	if v.IsEmpty() && st.IsZero() {
		return nil
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	var typ, text string
	switch v.Kind() {
	case streamsheet.KindEmpty:
	case streamsheet.KindText:
		if strings.IndexByte(v.Str(), '\n') >= 0 {
			st.WrapText = true
		}
		typ = "s"
		idx, err := r.strings.ref(v.Str())
		if err != nil {
			return err
		}
		text = strconv.Itoa(idx)
	case streamsheet.KindDuration:
		typ = "s"
		idx, err := r.strings.ref(v.String())
		if err != nil {
			return err
		}
		text = strconv.Itoa(idx)
	case streamsheet.KindBool:
		typ, text = "b", v.String()
	case streamsheet.KindInt, streamsheet.KindFloat:
		text = v.String()
	case streamsheet.KindDateTime:
		if st.Format == "" {
			st.Format = DefaultDateTimeFormat
		}
		typ, text = "d", v.String()
	case streamsheet.KindError:
		typ, text = "e", escapeControl(v.ErrorCode())
	default:
		return fmt.Errorf("%s: %w", v.Kind(), streamsheet.ErrUnsupportedValueType)
	}

	w := qw.N()
	w.S(`<c r="`)
	w.S(axis)
	w.S(`"`)
	if id := r.styles.id(st); id != 0 {
		w.S(` s="`)
		w.D(id)
		w.S(`"`)
	}
	if typ != "" {
		w.S(` t="`)
		w.S(typ)
		w.S(`"`)
	}
	if v.IsEmpty() {
		w.S(`/>`)
		return nil
	}
	w.S(`><v>`)
	qw.E().S(text)
	w.S(`</v></c>`)
	return nil
}

// sharedStrings is the deduplicated shared string table.
// The <si> entries are spooled as they are first seen.
type sharedStrings struct {
	part  *container.Part
	index map[string]int
	count int
}

func (ss *sharedStrings) ref(s string) (int, error) {
	ss.count++
	if i, ok := ss.index[s]; ok {
		return i, nil
	}
	i := len(ss.index)
	ss.index[s] = i
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	qw := quicktemplate.AcquireWriter(buf)
	defer quicktemplate.ReleaseWriter(qw)
	qw.N().S(`<si><t xml:space="preserve">`)
	qw.E().S(escapeControl(s))
	qw.N().S(`</t></si>`)
	_, err := ss.part.Write(buf.B)
	return i, err
}

// escapeControl encodes the characters XML 1.0 does not allow (and
// literal _xHHHH_ sequences) the way Excel does: _x0001_.
// Invalid UTF-8 is replaced with U+FFFD, the noncharacters U+FFFE and
// U+FFFF are dropped.
func escapeControl(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	needs := strings.Contains(s, "_x") || strings.ContainsAny(s, "\uFFFE\uFFFF")
	for i := 0; !needs && i < len(s); i++ {
		needs = s[i] < 0x20 && s[i] != '\t' && s[i] != '\n' && s[i] != '\r'
	}
	if !needs {
		return s
	}
	var buf strings.Builder
	buf.Grow(len(s) + 16)
	for i := 0; i < len(s); {
		b := s[i]
		switch {
		case b < 0x20 && b != '\t' && b != '\n' && b != '\r':
			fmt.Fprintf(&buf, "_x%04X_", b)
			i++
		case b == '_' && isEscapeSeq(s[i:]):
			buf.WriteString("_x005F_")
			i++
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			if r != 0xFFFE && r != 0xFFFF {
				buf.WriteString(s[i : i+size])
			}
			i += size
		}
	}
	return buf.String()
}

// isEscapeSeq reports whether s starts with _xHHHH_.
func isEscapeSeq(s string) bool {
	if len(s) < 7 || s[1] != 'x' || s[6] != '_' {
		return false
	}
	for _, c := range []byte(s[2:6]) {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
