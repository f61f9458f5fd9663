// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package csv renders delimited text.
//
// Every sheet is spooled separately, and the sheets are concatenated
// in order into one flat file on Close.
package csv

import (
	gocsv "encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/container"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

var _ streamsheet.FlatRenderer = (*Renderer)(nil)

// BOM is the UTF-8 byte order mark.
const BOM = "\xEF\xBB\xBF"

// Config of the delimited text.
type Config struct {
	// Encoding is the charset name of the output (default UTF-8).
	Encoding string
	// Comma is the field delimiter (default ',').
	Comma rune
	// UseCRLF ends the records with \r\n instead of \n.
	UseCRLF bool
	// AddBOM starts UTF-8 output with a byte order mark.
	AddBOM bool
}

// Renderer of delimited text.
type Renderer struct {
	enc    encoding.Encoding
	sheets []*sheetWriter
	record []string
	cfg    Config
}

type sheetWriter struct {
	part *container.Part
	w    *gocsv.Writer
	// enc is the charset transformer, it must be closed at the end
	enc io.WriteCloser
}

// New returns a Renderer for one workbook.
func New(cfg Config) (*Renderer, error) {
	if cfg.Comma == 0 {
		cfg.Comma = ','
	}
	if cfg.Comma == '"' || cfg.Comma == '\r' || cfg.Comma == '\n' ||
		cfg.Comma == utf8.RuneError || !utf8.ValidRune(cfg.Comma) {
		return nil, fmt.Errorf("invalid field delimiter %q", cfg.Comma)
	}
	enc, err := streamsheet.GetEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	return &Renderer{cfg: cfg, enc: enc}, nil
}

// NewWriter returns a new, unopened delimited text Workbook.
//
// This writer does not allow concurrent writes.
func NewWriter(cfg Config, opts ...streamsheet.Option) (*streamsheet.Workbook, error) {
	r, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return streamsheet.New(r, opts...), nil
}

func (*Renderer) Name() string         { return "csv" }
func (*Renderer) IsFlat() bool         { return true }
func (*Renderer) MaxRowsPerSheet() int { return 0 }
func (*Renderer) MaxTextLength() int   { return 0 }

func (*Renderer) Start(*container.Writer) error { return nil }

// AddSheet opens the part of the sheet.
func (r *Renderer) AddSheet(c *container.Writer, s *streamsheet.Sheet) error {
	part, err := c.OpenPart(fmt.Sprintf("sheet%d.csv", s.Index()))
	if err != nil {
		return err
	}
	sw := sheetWriter{part: part}
	var w io.Writer = part
	if r.enc != nil {
		sw.enc = transform.NewWriter(part, r.enc.NewEncoder())
		w = sw.enc
	}
	sw.w = gocsv.NewWriter(w)
	sw.w.Comma, sw.w.UseCRLF = r.cfg.Comma, r.cfg.UseCRLF
	r.sheets = append(r.sheets, &sw)
	return nil
}

// RenderRow writes one record: every value in its canonical text form,
// formula errors as their display text.
func (r *Renderer) RenderRow(s *streamsheet.Sheet, cells []streamsheet.Cell) error {
	sw := r.sheets[s.Index()-1]
	r.record = r.record[:0]
	for _, c := range cells {
		if c.Value.Kind() == streamsheet.KindError {
			r.record = append(r.record, c.Value.ErrorDisplay())
			continue
		}
		r.record = append(r.record, c.Value.String())
	}
	if err := sw.w.Write(r.record); err != nil {
		return err
	}
	sw.w.Flush()
	return sw.w.Error()
}

// Finalize adds the sheets in order, preceded by the BOM if configured.
func (r *Renderer) Finalize(c *container.Writer, sheets []*streamsheet.Sheet) error {
	if r.cfg.AddBOM && r.enc == nil {
		if err := c.AddEntry("bom", container.Store, container.Bytes(BOM)); err != nil {
			return err
		}
	}
	for _, s := range sheets {
		sw := r.sheets[s.Index()-1]
		sw.w.Flush()
		if err := sw.w.Error(); err != nil {
			return err
		}
		if sw.enc != nil {
			if err := sw.enc.Close(); err != nil {
				return err
			}
		}
		if err := c.AddEntry(sw.part.Name(), container.Store, sw.part); err != nil {
			return err
		}
	}
	return nil
}
