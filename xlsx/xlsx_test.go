// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx_test

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/xlsx"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func write(t *testing.T, fill func(*streamsheet.Workbook)) string {
	t.Helper()
	tmp := t.TempDir()
	out := filepath.Join(t.TempDir(), "test.xlsx")
	wb := xlsx.NewWriter(streamsheet.WithTempFolder(tmp))
	require.NoError(t, wb.Open(out))
	fill(wb)
	require.NoError(t, wb.Close())
	des, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, des)
	return out
}

func entries(t *testing.T, fn string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(fn)
	require.NoError(t, err)
	defer zr.Close()
	m := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		m[f.Name] = string(b)
	}
	return m
}

func TestReadBack(t *testing.T) {
	bold := streamsheet.Style{FontBold: true}
	out := write(t, func(wb *streamsheet.Workbook) {
		sw, err := wb.NewSheet("Data", []streamsheet.Column{
			{Name: "name", Header: bold},
			{Name: "count", Header: bold},
			{Name: "ratio", Header: bold},
		})
		require.NoError(t, err)
		require.NoError(t, sw.AppendRow("apple", 3, 0.5))
		require.NoError(t, sw.AppendRow(`a<b & "c" 'd'`, int64(-7), 0.0))
		require.NoError(t, sw.AppendRow(nil, nil, 1.25))
		require.NoError(t, wb.AddRow("apple"))
		_, err = wb.AddNewSheetAndMakeItCurrent()
		require.NoError(t, err)
		require.NoError(t, wb.AddRow("second"))
	})

	mt, err := mimetype.DetectFile(out)
	require.NoError(t, err)
	assert.True(t, mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"), mt.String())

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Data", "Sheet2"}, f.GetSheetList())
	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "count", "ratio"},
		{"apple", "3", "0.5"},
		{`a<b & "c" 'd'`, "-7", "0"},
		{"", "", "1.25"},
		{"apple"},
	}, rows)
	v, err := f.GetCellValue("Sheet2", "A1")
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestSharedStrings(t *testing.T) {
	out := write(t, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow("a", "b", "a"))
		require.NoError(t, wb.AddRow("a", 24*time.Hour+23*time.Second))
	})
	sst := entries(t, out)["xl/sharedStrings.xml"]
	assert.Contains(t, sst, `count="5" uniqueCount="3"`)
	assert.Equal(t, 1, strings.Count(sst, `<t xml:space="preserve">a</t>`))
	assert.Contains(t, sst, `<t xml:space="preserve">P1DT23S</t>`)
}

func TestCells(t *testing.T) {
	when := time.Date(2020, 3, 4, 5, 6, 7, 0, time.UTC)
	out := write(t, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow(true, false, when, streamsheet.FormulaError("#DIV/0!", ""),
			streamsheet.Styled{Style: streamsheet.Style{FontBold: true}}, "\x01_x0041_", "two\nlines"))
	})
	m := entries(t, out)
	sheet := m["xl/worksheets/sheet1.xml"]
	assert.Contains(t, sheet, `<dimension ref="A1:G1"/>`)
	assert.Contains(t, sheet, `<c r="A1" t="b"><v>1</v></c>`)
	assert.Contains(t, sheet, `<c r="B1" t="b"><v>0</v></c>`)
	assert.Contains(t, sheet, `t="d"><v>2020-03-04T05:06:07Z</v></c>`)
	assert.Contains(t, sheet, `<c r="D1" t="e"><v>#DIV/0!</v></c>`)
	assert.Regexp(t, `<c r="E1" s="\d+"/>`, sheet)
	assert.Regexp(t, `<c r="G1" s="\d+" t="s">`, sheet, "newline wraps")

	sst := m["xl/sharedStrings.xml"]
	assert.Contains(t, sst, `_x0001__x005F_x0041_`)

	styles := m["xl/styles.xml"]
	assert.Contains(t, styles, `formatCode="yyyy-mm-dd hh:mm:ss"`)
	assert.Contains(t, styles, `<alignment wrapText="1"/>`)
	assert.Contains(t, styles, `applyFont="1"`)
}

func TestInvalidText(t *testing.T) {
	out := write(t, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow("ok\xffbad", "x\uFFFEy", streamsheet.FormulaError("#N/A\xff", "")))
	})
	m := entries(t, out)
	for _, nm := range []string{"xl/sharedStrings.xml", "xl/worksheets/sheet1.xml"} {
		var doc struct{ XMLName xml.Name }
		assert.NoError(t, xml.Unmarshal([]byte(m[nm]), &doc), nm)
	}

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.GreaterOrEqual(t, len(rows[0]), 2)
	assert.Equal(t, []string{"ok\uFFFDbad", "xy"}, rows[0][:2])
}

func TestPackage(t *testing.T) {
	out := write(t, func(wb *streamsheet.Workbook) {
		_, err := wb.AddNewSheetAndMakeItCurrent()
		require.NoError(t, err)
	})
	m := entries(t, out)
	for _, nm := range []string{
		"[Content_Types].xml", "_rels/.rels", "docProps/app.xml", "docProps/core.xml",
		"xl/workbook.xml", "xl/_rels/workbook.xml.rels", "xl/styles.xml", "xl/sharedStrings.xml",
		"xl/worksheets/sheet1.xml", "xl/worksheets/sheet2.xml",
	} {
		assert.Contains(t, m, nm)
	}
	assert.Contains(t, m["xl/workbook.xml"], `activeTab="1"`)
	assert.Contains(t, m["xl/worksheets/sheet2.xml"], `tabSelected="1"`)
	assert.Contains(t, m["xl/worksheets/sheet1.xml"], `<dimension ref="A1"/>`)
	assert.Contains(t, m["[Content_Types].xml"], `PartName="/xl/worksheets/sheet2.xml"`)
}
