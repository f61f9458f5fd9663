// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"strconv"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/valyala/quicktemplate"
)

// styleTable maps the styles to automatic cell style names (ce1, ce2...).
//
// Number formats are not translated to ODF data styles,
// so Style.Format does not distinguish styles here.
type styleTable struct {
	names map[streamsheet.Style]string
	list  []streamsheet.Style
}

func newStyleTable() *styleTable {
	return &styleTable{names: make(map[streamsheet.Style]string)}
}

// name returns the style name of st, "" for the default style.
func (t *styleTable) name(st streamsheet.Style) string {
	st.Format = ""
	if st.IsZero() {
		return ""
	}
	if nm, ok := t.names[st]; ok {
		return nm
	}
	t.list = append(t.list, st)
	nm := "ce" + strconv.Itoa(len(t.list))
	t.names[st] = nm
	return nm
}

func (t *styleTable) writeXML(w *quicktemplate.QWriter) {
	w.S(`<office:automatic-styles>`)
	for i, st := range t.list {
		w.S(`<style:style style:name="ce`)
		w.D(i + 1)
		w.S(`" style:family="table-cell" style:parent-style-name="Default">`)
		if st.WrapText {
			w.S(`<style:table-cell-properties fo:wrap-option="wrap"/>`)
		}
		if st.FontBold {
			w.S(`<style:text-properties fo:font-weight="bold" style:font-weight-asian="bold" style:font-weight-complex="bold"/>`)
		}
		w.S(`</style:style>`)
	}
	w.S(`</office:automatic-styles>`)
}
