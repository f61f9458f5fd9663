// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"time"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/container"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/quicktemplate"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	odfVer    = `office:version="1.2"`

	nsOffice   = `xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"`
	nsStyle    = `xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"`
	nsText     = `xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"`
	nsTable    = `xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"`
	nsFO       = `xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0"`
	nsNumber   = `xmlns:number="urn:oasis:names:tc:opendocument:xmlns:datastyle:1.0"`
	nsMeta     = `xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0"`
	nsConfig   = `xmlns:config="urn:oasis:names:tc:opendocument:xmlns:config:1.0"`
	nsCalcExt  = `xmlns:calcext="urn:org:documentfoundation:names:experimental:calc:xmlns:calcext:1.0"`
	nsManifest = `xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0"`

	contentFooter = `</office:spreadsheet></office:body></office:document-content>`
	tableFooter   = `</table:table>`
	emptyRow      = `<table:table-row><table:table-cell/></table:table-row>`
)

// parts listed in the manifest, besides content.xml
var metaParts = []string{"styles.xml", "meta.xml", "settings.xml"}

const stylesXML = xmlHeader +
	`<office:document-styles ` + nsOffice + ` ` + nsStyle + ` ` + nsFO + ` ` + odfVer + `>` +
	`<office:styles>` +
	`<style:default-style style:family="table-cell"><style:text-properties fo:font-size="10pt"/></style:default-style>` +
	`<style:style style:name="Default" style:family="table-cell"/>` +
	`</office:styles></office:document-styles>`

func render(fn func(w, e *quicktemplate.QWriter)) []byte {
	var buf bytebufferpool.ByteBuffer
	qw := quicktemplate.AcquireWriter(&buf)
	fn(qw.N(), qw.E())
	quicktemplate.ReleaseWriter(qw)
	return buf.B
}

// Finalize adds the manifest, the metadata and content.xml,
// which is the concatenation of the spooled tables.
func (r *Renderer) Finalize(c *container.Writer, sheets []*streamsheet.Sheet) error {
	var active *streamsheet.Sheet
	for _, s := range sheets {
		if s.IsCurrent() {
			active = s
		}
	}
	for _, b := range []struct {
		name string
		data []byte
	}{
		{"META-INF/manifest.xml", manifestXML()},
		{"meta.xml", metaXML(time.Now())},
		{"settings.xml", settingsXML(active)},
		{"styles.xml", []byte(stylesXML)},
	} {
		if err := c.AddBlob(b.name, b.data); err != nil {
			return err
		}
	}

	sources := make([]container.Source, 0, 2+3*len(sheets))
	sources = append(sources, container.Bytes(r.contentHeader()))
	for _, s := range sheets {
		sources = append(sources, container.Bytes(tableHeader(s)), r.sheets[s.Index()-1])
		if s.RowCount() == 0 {
			sources = append(sources, container.Bytes(emptyRow+tableFooter))
		} else {
			sources = append(sources, container.Bytes(tableFooter))
		}
	}
	sources = append(sources, container.Bytes(contentFooter))
	return c.AddEntry("content.xml", container.Deflate, sources...)
}

func (r *Renderer) contentHeader() []byte {
	return render(func(w, _ *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<office:document-content ` + nsOffice + ` ` + nsStyle + ` ` + nsText + ` ` + nsTable +
			` ` + nsFO + ` ` + nsNumber + ` ` + nsCalcExt + ` ` + odfVer + `>`)
		r.styles.writeXML(w)
		w.S(`<office:body><office:spreadsheet>`)
	})
}

func tableHeader(s *streamsheet.Sheet) []byte {
	return render(func(w, e *quicktemplate.QWriter) {
		w.S(`<table:table table:name="`)
		e.S(s.Name())
		w.S(`">`)
		if n := s.ColumnCount(); n > 1 {
			w.S(`<table:table-column table:default-cell-style-name="Default" table:number-columns-repeated="`)
			w.D(n)
			w.S(`"/>`)
		} else {
			w.S(`<table:table-column table:default-cell-style-name="Default"/>`)
		}
	})
}

func manifestXML() []byte {
	return render(func(w, _ *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<manifest:manifest ` + nsManifest + ` manifest:version="1.2">`)
		w.S(`<manifest:file-entry manifest:full-path="/" manifest:version="1.2" manifest:media-type="` + MimeType + `"/>`)
		w.S(`<manifest:file-entry manifest:full-path="content.xml" manifest:media-type="text/xml"/>`)
		for _, nm := range metaParts {
			w.S(`<manifest:file-entry manifest:full-path="`)
			w.S(nm)
			w.S(`" manifest:media-type="text/xml"/>`)
		}
		w.S(`</manifest:manifest>`)
	})
}

func metaXML(created time.Time) []byte {
	return render(func(w, _ *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<office:document-meta ` + nsOffice + ` ` + nsMeta + ` ` + odfVer + `><office:meta>` +
			`<meta:generator>streamsheet</meta:generator><meta:creation-date>`)
		w.S(created.UTC().Format("2006-01-02T15:04:05"))
		w.S(`</meta:creation-date></office:meta></office:document-meta>`)
	})
}

func settingsXML(active *streamsheet.Sheet) []byte {
	return render(func(w, e *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<office:document-settings ` + nsOffice + ` ` + nsConfig + ` ` + odfVer + `><office:settings>`)
		if active != nil {
			w.S(`<config:config-item-set config:name="ooo:view-settings">` +
				`<config:config-item-map-indexed config:name="Views"><config:config-item-map-entry>` +
				`<config:config-item config:name="ActiveTable" config:type="string">`)
			e.S(active.Name())
			w.S(`</config:config-item></config:config-item-map-entry></config:config-item-map-indexed>` +
				`</config:config-item-set>`)
		}
		w.S(`</office:settings></office:document-settings>`)
	})
}
