// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package ods renders OpenDocument spreadsheets (.ods).
//
// Every table is spooled to its own scratch part; content.xml is
// assembled from them on Close, after the automatic styles are known.
package ods

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/container"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/quicktemplate"
)

var _ streamsheet.Renderer = (*Renderer)(nil)

const (
	// MaxRowCount is the number of rows LibreOffice Calc can handle.
	MaxRowCount = 1_048_576
	// MaxTextLength is the maximum length of a text cell.
	MaxTextLength = 32767

	// MimeType is the content of the mimetype entry.
	MimeType = "application/vnd.oasis.opendocument.spreadsheet"
)

// NewWriter returns a new, unopened ods Workbook.
//
// This writer does not allow concurrent writes.
func NewWriter(opts ...streamsheet.Option) *streamsheet.Workbook {
	return streamsheet.New(New(), opts...)
}

// Renderer of OpenDocument spreadsheets.
type Renderer struct {
	styles *styleTable
	sheets []*container.Part
	// cell and prev hold the markup of the current and previous cell
	cell, prev bytebufferpool.ByteBuffer
}

// New returns a Renderer for one workbook.
func New() *Renderer { return &Renderer{styles: newStyleTable()} }

func (*Renderer) Name() string         { return "ods" }
func (*Renderer) MaxRowsPerSheet() int { return MaxRowCount }
func (*Renderer) MaxTextLength() int   { return MaxTextLength }

// Start adds the mimetype, which must be the first, uncompressed entry.
func (r *Renderer) Start(c *container.Writer) error {
	return c.AddEntry("mimetype", container.Store, container.Bytes(MimeType))
}

// AddSheet opens the table-rows part of the sheet.
func (r *Renderer) AddSheet(c *container.Writer, s *streamsheet.Sheet) error {
	part, err := c.OpenPart(fmt.Sprintf("content.xml#table%d", s.Index()))
	if err != nil {
		return err
	}
	r.sheets = append(r.sheets, part)
	return nil
}

const (
	cellOpen     = `<table:table-cell`
	repeatedAttr = ` table:number-columns-repeated="`
)

// RenderRow writes the <table:table-row> element of the cells.
//
// Adjacent cells with identical markup are collapsed into one element
// with table:number-columns-repeated.
func (r *Renderer) RenderRow(s *streamsheet.Sheet, cells []streamsheet.Cell) error {
	part := r.sheets[s.Index()-1]
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(`<table:table-row>`)
	if len(cells) == 0 {
		buf.WriteString(cellOpen + `/>`)
	}
	r.prev.Reset()
	run := 0
	for i, c := range cells {
		r.cell.Reset()
		if err := r.renderCell(&r.cell, c); err != nil {
			return fmt.Errorf("%d/%d: %w", i, s.RowCount()+1, err)
		}
		if run != 0 && bytes.Equal(r.cell.B, r.prev.B) {
			run++
			continue
		}
		writeRun(buf, r.prev.B, run)
		r.prev, r.cell = r.cell, r.prev
		run = 1
	}
	writeRun(buf, r.prev.B, run)
	buf.WriteString(`</table:table-row>`)
	_, err := part.Write(buf.B)
	return err
}

// writeRun writes cell, with the repetition count when n > 1.
func writeRun(buf *bytebufferpool.ByteBuffer, cell []byte, n int) {
	if n == 0 {
		return
	}
	if n == 1 {
		buf.Write(cell)
		return
	}
	buf.Write(cell[:len(cellOpen)])
	buf.WriteString(repeatedAttr)
	buf.B = strconv.AppendInt(buf.B, int64(n), 10)
	buf.WriteString(`"`)
	buf.Write(cell[len(cellOpen):])
}

func (r *Renderer) renderCell(buf *bytebufferpool.ByteBuffer, c streamsheet.Cell) error {
	qw := quicktemplate.AcquireWriter(buf)
	defer quicktemplate.ReleaseWriter(qw)
	w, e := qw.N(), qw.E()
	v, st := c.Value, c.Style
	if v.Kind() == streamsheet.KindText && strings.IndexByte(v.Str(), '\n') >= 0 {
		st.WrapText = true
	}

	w.S(cellOpen)
	if name := r.styles.name(st); name != "" {
		w.S(` table:style-name="`)
		w.S(name)
		w.S(`"`)
	}
	switch v.Kind() {
	case streamsheet.KindEmpty:
		w.S(`/>`)
		return nil
	case streamsheet.KindText:
		w.S(` office:value-type="string" calcext:value-type="string">`)
	case streamsheet.KindInt, streamsheet.KindFloat:
		w.S(` office:value-type="float" calcext:value-type="float" office:value="`)
		w.S(v.String())
		w.S(`">`)
	case streamsheet.KindBool:
		w.S(` office:value-type="boolean" calcext:value-type="boolean" office:boolean-value="`)
		if v.Bool() {
			w.S(`true">`)
		} else {
			w.S(`false">`)
		}
	case streamsheet.KindDateTime:
		w.S(` office:value-type="date" calcext:value-type="date" office:date-value="`)
		w.S(v.String())
		w.S(`">`)
	case streamsheet.KindDuration:
		w.S(` office:value-type="time" calcext:value-type="time" office:time-value="`)
		w.S(v.String())
		w.S(`">`)
	case streamsheet.KindError:
		w.S(` office:value-type="string" calcext:value-type="error" office:string-value="`)
		e.S(stripInvalid(v.ErrorCode()))
		w.S(`">`)
	default:
		return fmt.Errorf("%s: %w", v.Kind(), streamsheet.ErrUnsupportedValueType)
	}
	text := v.String()
	if v.Kind() == streamsheet.KindError {
		text = v.ErrorDisplay()
	}
	writeParagraphs(w, e, stripInvalid(text))
	w.S(`</table:table-cell>`)
	return nil
}

// writeParagraphs writes every line of text as a <text:p>.
func writeParagraphs(w, e *quicktemplate.QWriter, text string) {
	for {
		line, rest, more := strings.Cut(text, "\n")
		w.S(`<text:p>`)
		writeSpans(w, e, strings.TrimSuffix(line, "\r"))
		w.S(`</text:p>`)
		if !more {
			return
		}
		text = rest
	}
}

// writeSpans writes line, keeping the white space ODF would collapse:
// tabs as <text:tab/>, leading, trailing and repeated spaces as <text:s/>.
func writeSpans(w, e *quicktemplate.QWriter, line string) {
	start := true
	for line != "" {
		i := strings.IndexAny(line, " \t")
		if i < 0 {
			e.S(line)
			return
		}
		if i != 0 {
			e.S(line[:i])
			start = false
		}
		line = line[i:]
		if line[0] == '\t' {
			w.S(`<text:tab/>`)
			line, start = line[1:], false
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " "))
		line = line[n:]
		if !start && line != "" {
			// one inner space is kept as is
			w.S(" ")
			n--
		}
		start = false
		switch {
		case n == 1:
			w.S(`<text:s/>`)
		case n > 1:
			w.S(`<text:s text:c="`)
			w.D(n)
			w.S(`"/>`)
		}
	}
}

// stripInvalid removes the control characters XML 1.0 does not allow,
// and replaces invalid UTF-8 with U+FFFD.
func stripInvalid(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' || r == 0xFFFE || r == 0xFFFF {
			return -1
		}
		return r
	}, s)
}
