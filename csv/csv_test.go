// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package csv_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/csv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func write(t *testing.T, cfg csv.Config, fill func(*streamsheet.Workbook)) []byte {
	t.Helper()
	tmp := t.TempDir()
	out := filepath.Join(t.TempDir(), "test.csv")
	wb, err := csv.NewWriter(cfg, streamsheet.WithTempFolder(tmp))
	require.NoError(t, err)
	require.NoError(t, wb.Open(out))
	fill(wb)
	require.NoError(t, wb.Close())
	des, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, des)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	return b
}

func TestValues(t *testing.T) {
	got := write(t, csv.Config{}, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow(1, "a,b", true, 0.0, "x\ny", nil, `q"q`))
		require.NoError(t, wb.AddRow(
			time.Date(2020, 3, 4, 5, 6, 7, 0, time.UTC),
			24*time.Hour+23*time.Second,
			streamsheet.FormulaError("#N/A", "missing"),
			false,
		))
		require.NoError(t, wb.AddRow(streamsheet.FormulaError("#DIV/0!", "")))
		require.NoError(t, wb.AddRow())
	})
	assert.Equal(t, "1,\"a,b\",1,0,\"x\ny\",,\"q\"\"q\"\n"+
		"2020-03-04T05:06:07Z,P1DT23S,missing,0\n"+
		"#DIV/0!\n"+
		"\n", string(got))
}

func TestDelimiters(t *testing.T) {
	got := write(t, csv.Config{Comma: ';', UseCRLF: true, AddBOM: true}, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow("a;b", 2.5))
		require.NoError(t, wb.AddRow("c", "d"))
	})
	assert.Equal(t, csv.BOM+"\"a;b\";2.5\r\nc;d\r\n", string(got))

	for _, comma := range []rune{'"', '\n', '\r', 0xFFFD} {
		_, err := csv.New(csv.Config{Comma: comma})
		assert.Error(t, err, "%q", comma)
	}
}

func TestCharset(t *testing.T) {
	got := write(t, csv.Config{Encoding: "ISO-8859-2", AddBOM: true}, func(wb *streamsheet.Workbook) {
		require.NoError(t, wb.AddRow("árvíztűrő", "tükörfúrógép"))
	})
	want, err := charmap.ISO8859_2.NewEncoder().String("árvíztűrő,tükörfúrógép\n")
	require.NoError(t, err)
	assert.Equal(t, want, string(got), "no BOM for a non-UTF-8 charset")

	_, err = csv.New(csv.Config{Encoding: "no-such-charset"})
	assert.Error(t, err)
}

func TestSheetsConcatenated(t *testing.T) {
	got := write(t, csv.Config{}, func(wb *streamsheet.Workbook) {
		first := wb.CurrentSheet()
		require.NoError(t, wb.AddRow("a"))
		_, err := wb.AddNewSheetAndMakeItCurrent()
		require.NoError(t, err)
		require.NoError(t, wb.AddRow("b"))
		require.NoError(t, wb.SetCurrentSheet(first))
		require.NoError(t, wb.AddRow("c"))
	})
	assert.Equal(t, "a\nc\nb\n", string(got))
}
