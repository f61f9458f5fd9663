// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"github.com/UNO-SOFT/streamsheet"
	"github.com/valyala/quicktemplate"
)

// DefaultDateTimeFormat is the number format of date/time cells without one.
const DefaultDateTimeFormat = "yyyy-mm-dd hh:mm:ss"

// firstCustomNumFmt is the first id not reserved for the built-in formats.
const firstCustomNumFmt = 164

var builtinNumFmts = map[string]int{
	"General":     0,
	"0":           1,
	"0.00":        2,
	"#,##0":       3,
	"#,##0.00":    4,
	"0%":          9,
	"0.00%":       10,
	"0.00E+00":    11,
	"# ?/?":       12,
	"# ??/??":     13,
	"mm-dd-yy":    14,
	"d-mmm-yy":    15,
	"d-mmm":       16,
	"mmm-yy":      17,
	"h:mm AM/PM":  18,
	"h:mm":        20,
	"h:mm:ss":     21,
	"m/d/yy h:mm": 22,
	"mm:ss":       45,
	"[h]:mm:ss":   46,
	"@":           49,
}

// styleTable maps the styles to cellXfs indexes, 0 being the default.
type styleTable struct {
	ids     map[streamsheet.Style]int
	numFmts map[string]int
	list    []streamsheet.Style
	custom  []string
}

func newStyleTable() *styleTable {
	return &styleTable{
		ids:     map[streamsheet.Style]int{{}: 0},
		numFmts: make(map[string]int),
		list:    []streamsheet.Style{{}},
	}
}

func (t *styleTable) id(st streamsheet.Style) int {
	if id, ok := t.ids[st]; ok {
		return id
	}
	id := len(t.list)
	t.ids[st] = id
	t.list = append(t.list, st)
	if st.Format != "" {
		t.numFmtID(st.Format)
	}
	return id
}

func (t *styleTable) numFmtID(code string) int {
	if id, ok := builtinNumFmts[code]; ok {
		return id
	}
	if id, ok := t.numFmts[code]; ok {
		return id
	}
	id := firstCustomNumFmt + len(t.custom)
	t.numFmts[code] = id
	t.custom = append(t.custom, code)
	return id
}

// xml returns xl/styles.xml.
func (t *styleTable) xml() []byte {
	return render(func(w, e *quicktemplate.QWriter) {
		w.S(xmlHeader)
		w.S(`<styleSheet xmlns="` + nsMain + `">`)
		if len(t.custom) != 0 {
			w.S(`<numFmts count="`)
			w.D(len(t.custom))
			w.S(`">`)
			for i, code := range t.custom {
				w.S(`<numFmt numFmtId="`)
				w.D(firstCustomNumFmt + i)
				w.S(`" formatCode="`)
				e.S(code)
				w.S(`"/>`)
			}
			w.S(`</numFmts>`)
		}
		w.S(`<fonts count="2">` +
			`<font><sz val="11"/><name val="Calibri"/><family val="2"/></font>` +
			`<font><b/><sz val="11"/><name val="Calibri"/><family val="2"/></font>` +
			`</fonts>` +
			`<fills count="2"><fill><patternFill patternType="none"/></fill>` +
			`<fill><patternFill patternType="gray125"/></fill></fills>` +
			`<borders count="1"><border><left/><right/><top/><bottom/><diagonal/></border></borders>` +
			`<cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>`)
		w.S(`<cellXfs count="`)
		w.D(len(t.list))
		w.S(`">`)
		for _, st := range t.list {
			var numFmt, font int
			if st.Format != "" {
				numFmt = t.numFmtID(st.Format)
			}
			if st.FontBold {
				font = 1
			}
			w.S(`<xf numFmtId="`)
			w.D(numFmt)
			w.S(`" fontId="`)
			w.D(font)
			w.S(`" fillId="0" borderId="0" xfId="0"`)
			if numFmt != 0 {
				w.S(` applyNumberFormat="1"`)
			}
			if font != 0 {
				w.S(` applyFont="1"`)
			}
			if st.WrapText {
				w.S(` applyAlignment="1"><alignment wrapText="1"/></xf>`)
			} else {
				w.S(`/>`)
			}
		}
		w.S(`</cellXfs>` +
			`<cellStyles count="1"><cellStyle name="Normal" xfId="0" builtinId="0"/></cellStyles>` +
			`</styleSheet>`)
	})
}
