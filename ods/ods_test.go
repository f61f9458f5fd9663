// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package ods_test

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/ods"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textCell = `<table:table-cell office:value-type="string" calcext:value-type="string">`

func write(t *testing.T, fill func(*streamsheet.Workbook)) string {
	t.Helper()
	tmp := t.TempDir()
	out := filepath.Join(t.TempDir(), "test.ods")
	wb := ods.NewWriter(streamsheet.WithTempFolder(tmp))
	require.NoError(t, wb.Open(out))
	fill(wb)
	require.NoError(t, wb.Close())
	des, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, des)
	return out
}

func readZip(t *testing.T, fn string) ([]*zip.File, map[string]string) {
	t.Helper()
	zr, err := zip.OpenReader(fn)
	require.NoError(t, err)
	t.Cleanup(func() { zr.Close() })
	m := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		m[f.Name] = string(b)
	}
	return zr.File, m
}

func content(t *testing.T, fill func(*streamsheet.Workbook)) string {
	t.Helper()
	_, m := readZip(t, write(t, fill))
	return m["content.xml"]
}

// paragraphs returns the text of every <text:p>, with <text:s> and
// <text:tab> expanded.
func paragraphs(t *testing.T, s string) []string {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(s))
	var ps []string
	var buf strings.Builder
	var in bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return ps
		}
		require.NoError(t, err)
		switch x := tok.(type) {
		case xml.StartElement:
			switch x.Name.Local {
			case "p":
				in = true
				buf.Reset()
			case "s":
				n := 1
				for _, a := range x.Attr {
					if a.Name.Local == "c" {
						n, err = strconv.Atoi(a.Value)
						require.NoError(t, err)
					}
				}
				buf.WriteString(strings.Repeat(" ", n))
			case "tab":
				buf.WriteByte('\t')
			}
		case xml.CharData:
			if in {
				buf.Write(x)
			}
		case xml.EndElement:
			if x.Name.Local == "p" {
				in = false
				ps = append(ps, buf.String())
			}
		}
	}
}

func TestRepetition(t *testing.T) {
	c := content(t, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow("A", "A", "A"))
		require.NoError(t, wb.AddRow("A", "A", "B", "B"))
		require.NoError(t, wb.AddRow("A", "B", "A"))
		require.NoError(t, wb.AddRow())
		require.NoError(t, wb.AddRow(nil, nil, 1))
	})
	assert.Contains(t, c, `<table:table-row>`+
		`<table:table-cell table:number-columns-repeated="3" office:value-type="string" calcext:value-type="string"><text:p>A</text:p></table:table-cell>`+
		`</table:table-row>`)
	assert.Contains(t, c, `<table:table-row>`+
		`<table:table-cell table:number-columns-repeated="2" office:value-type="string" calcext:value-type="string"><text:p>A</text:p></table:table-cell>`+
		`<table:table-cell table:number-columns-repeated="2" office:value-type="string" calcext:value-type="string"><text:p>B</text:p></table:table-cell>`+
		`</table:table-row>`)
	assert.Contains(t, c, `<table:table-row>`+
		textCell+`<text:p>A</text:p></table:table-cell>`+
		textCell+`<text:p>B</text:p></table:table-cell>`+
		textCell+`<text:p>A</text:p></table:table-cell>`+
		`</table:table-row>`)
	assert.Contains(t, c, `<table:table-row><table:table-cell/></table:table-row>`)
	assert.Contains(t, c, `<table:table-row><table:table-cell table:number-columns-repeated="2"/>`+
		`<table:table-cell office:value-type="float" calcext:value-type="float" office:value="1"><text:p>1</text:p></table:table-cell>`+
		`</table:table-row>`)
	assert.NotContains(t, c, `table:number-columns-repeated="1"`)
	assert.Contains(t, c, `<table:table-column table:default-cell-style-name="Default" table:number-columns-repeated="4"/>`)
}

func TestValues(t *testing.T) {
	c := content(t, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow(
			true, 0.0, time.Date(2020, 3, 4, 5, 6, 7, 0, time.UTC),
			24*time.Hour+23*time.Second, streamsheet.FormulaError("#DIV/0!", "#DIV/0!"),
		))
	})
	for _, want := range []string{
		`office:value-type="boolean" calcext:value-type="boolean" office:boolean-value="true"`,
		`office:value-type="float" calcext:value-type="float" office:value="0"><text:p>0</text:p>`,
		`office:date-value="2020-03-04T05:06:07Z"><text:p>2020-03-04T05:06:07Z</text:p>`,
		`office:time-value="P1DT23S"><text:p>P1DT23S</text:p>`,
		`calcext:value-type="error" office:string-value="#DIV/0!"><text:p>#DIV/0!</text:p>`,
	} {
		assert.Contains(t, c, want)
	}
}

func TestText(t *testing.T) {
	special := `<tag attr="v" & 'q'>`
	c := content(t, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow(special))
		require.NoError(t, wb.AddRow("first\nsecond"))
		require.NoError(t, wb.AddRow("  lead\tand  inner   trail "))
		require.NoError(t, wb.AddRow("bad\x00\x1fchar"))
		require.NoError(t, wb.AddRow("ok\xffbad", "x\uFFFEy"))
	})
	assert.NotContains(t, c, special)
	assert.Contains(t, c, `<text:p>first</text:p><text:p>second</text:p>`)
	assert.Contains(t, c, `table:style-name="ce1"`, "newline wraps")
	assert.Contains(t, c, `fo:wrap-option="wrap"`)
	assert.Equal(t, []string{
		special, "first", "second", "  lead\tand  inner   trail ", "badchar",
		"ok\uFFFDbad", "xy",
	}, paragraphs(t, c))
}

func TestPackage(t *testing.T) {
	out := write(t, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow(streamsheet.Styled{V: "h", Style: streamsheet.Style{FontBold: true}}))
		s, err := wb.AddNewSheetAndMakeItCurrent()
		require.NoError(t, err)
		require.NoError(t, s.SetName("R&D"))
	})

	mt, err := mimetype.DetectFile(out)
	require.NoError(t, err)
	assert.True(t, mt.Is(ods.MimeType), mt.String())

	files, m := readZip(t, out)
	require.NotEmpty(t, files)
	assert.Equal(t, "mimetype", files[0].Name)
	assert.Equal(t, zip.Store, files[0].Method)
	assert.Equal(t, ods.MimeType, m["mimetype"])

	manifest := m["META-INF/manifest.xml"]
	for _, nm := range []string{"content.xml", "styles.xml", "meta.xml", "settings.xml"} {
		assert.Contains(t, m, nm)
		assert.Contains(t, manifest, `manifest:full-path="`+nm+`"`)
	}
	assert.Contains(t, manifest, `manifest:media-type="`+ods.MimeType+`"`)

	c := m["content.xml"]
	assert.Equal(t, 2, strings.Count(c, "<table:table "))
	assert.Contains(t, c, `table:name="R&amp;D"`)
	assert.Contains(t, c, `fo:font-weight="bold"`)
	// the empty sheet still has a row
	assert.Contains(t, c, `<table:table-row><table:table-cell/></table:table-row></table:table>`)
	assert.Contains(t, m["settings.xml"], `config:type="string">R&amp;D</config:config-item>`)

	var doc struct {
		XMLName xml.Name
	}
	for _, nm := range []string{"content.xml", "styles.xml", "meta.xml", "settings.xml", "META-INF/manifest.xml"} {
		assert.NoError(t, xml.Unmarshal([]byte(m[nm]), &doc), nm)
	}
}
