// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"time"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/container"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/quicktemplate"
	"github.com/xuri/excelize/v2"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	nsMain    = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	nsRel     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPkgRel  = "http://schemas.openxmlformats.org/package/2006/relationships"

	ctWorksheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"

	sheetFooter = `</sheetData></worksheet>`
	sstFooter   = `</sst>`
)

const rootRels = xmlHeader +
	`<Relationships xmlns="` + nsPkgRel + `">` +
	`<Relationship Id="rId1" Type="` + nsRel + `/officeDocument" Target="xl/workbook.xml"/>` +
	`<Relationship Id="rId2" Type="` + nsPkgRel + `/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="` + nsRel + `/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const appXML = xmlHeader +
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>streamsheet</Application></Properties>`

// render returns the bytes written by fn to the
// non-escaping (w) and escaping (e) writers.
func render(fn func(w, e *quicktemplate.QWriter)) []byte {
	var buf bytebufferpool.ByteBuffer
	qw := quicktemplate.AcquireWriter(&buf)
	fn(qw.N(), qw.E())
	quicktemplate.ReleaseWriter(qw)
	return buf.B
}

// Finalize adds the package parts, the shared strings and the worksheets.
func (r *Renderer) Finalize(c *container.Writer, sheets []*streamsheet.Sheet) error {
	active := 0
	for i, s := range sheets {
		if s.IsCurrent() {
			active = i
		}
	}
	for _, b := range []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", contentTypes(sheets)},
		{"_rels/.rels", []byte(rootRels)},
		{"xl/workbook.xml", workbookXML(sheets, active)},
		{"xl/_rels/workbook.xml.rels", workbookRels(sheets)},
		{"xl/styles.xml", r.styles.xml()},
		{"docProps/app.xml", []byte(appXML)},
		{"docProps/core.xml", coreXML(time.Now())},
	} {
		if err := c.AddBlob(b.name, b.data); err != nil {
			return err
		}
	}

	sstHeader := render(func(w, _ *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<sst xmlns="` + nsMain + `" count="`)
		w.D(r.strings.count)
		w.S(`" uniqueCount="`)
		w.D(len(r.strings.index))
		w.S(`">`)
	})
	if err := c.AddEntry("xl/sharedStrings.xml", container.Deflate,
		container.Bytes(sstHeader), r.strings.part, container.Bytes(sstFooter),
	); err != nil {
		return err
	}

	for i, s := range sheets {
		header, err := sheetHeader(s, i == active)
		if err != nil {
			return err
		}
		if err := c.AddEntry(sheetPath(s.Index()), container.Deflate,
			container.Bytes(header), r.sheets[s.Index()-1], container.Bytes(sheetFooter),
		); err != nil {
			return err
		}
	}
	return nil
}

func contentTypes(sheets []*streamsheet.Sheet) []byte {
	return render(func(w, _ *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>`)
		for _, s := range sheets {
			w.S(`<Override PartName="/`)
			w.S(sheetPath(s.Index()))
			w.S(`" ContentType="` + ctWorksheet + `"/>`)
		}
		w.S(`<Override PartName="/xl/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"/>` +
			`<Override PartName="/xl/sharedStrings.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"/>` +
			`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
			`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
			`</Types>`)
	})
}

func coreXML(created time.Time) []byte {
	return render(func(w, _ *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
			` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"` +
			` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
			`<dcterms:created xsi:type="dcterms:W3CDTF">`)
		w.S(created.UTC().Format(time.RFC3339))
		w.S(`</dcterms:created><dcterms:modified xsi:type="dcterms:W3CDTF">`)
		w.S(created.UTC().Format(time.RFC3339))
		w.S(`</dcterms:modified></cp:coreProperties>`)
	})
}

func workbookXML(sheets []*streamsheet.Sheet, active int) []byte {
	return render(func(w, e *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<workbook xmlns="` + nsMain + `" xmlns:r="` + nsRel + `">`)
		w.S(`<bookViews><workbookView activeTab="`)
		w.D(active)
		w.S(`"/></bookViews><sheets>`)
		for _, s := range sheets {
			w.S(`<sheet name="`)
			e.S(s.Name())
			w.S(`" sheetId="`)
			w.D(s.Index())
			w.S(`" r:id="rIdSheet`)
			w.D(s.Index())
			w.S(`"/>`)
		}
		w.S(`</sheets></workbook>`)
	})
}

func workbookRels(sheets []*streamsheet.Sheet) []byte {
	return render(func(w, _ *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<Relationships xmlns="` + nsPkgRel + `">` +
			`<Relationship Id="rIdStyles" Type="` + nsRel + `/styles" Target="styles.xml"/>` +
			`<Relationship Id="rIdSharedStrings" Type="` + nsRel + `/sharedStrings" Target="sharedStrings.xml"/>`)
		for _, s := range sheets {
			w.S(`<Relationship Id="rIdSheet`)
			w.D(s.Index())
			w.S(`" Type="` + nsRel + `/worksheet" Target="worksheets/sheet`)
			w.D(s.Index())
			w.S(`.xml"/>`)
		}
		w.S(`</Relationships>`)
	})
}

func sheetHeader(s *streamsheet.Sheet, selected bool) ([]byte, error) {
	ref := "A1"
	if s.RowCount() != 0 && s.ColumnCount() != 0 {
		last, err := excelize.CoordinatesToCellName(s.ColumnCount(), s.RowCount())
		if err != nil {
			return nil, err
		}
		ref += ":" + last
	}
	return render(func(w, _ *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<worksheet xmlns="` + nsMain + `" xmlns:r="` + nsRel + `">`)
		w.S(`<dimension ref="`)
		w.S(ref)
		w.S(`"/><sheetViews><sheetView workbookViewId="0"`)
		if selected {
			w.S(` tabSelected="1"`)
		}
		w.S(`/></sheetViews><sheetFormatPr defaultRowHeight="15"/><sheetData>`)
	}), nil
}
