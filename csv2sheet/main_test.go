// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/csv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	data, err := charmap.ISO8859_2.NewEncoder().String("név;kor\nÁrpád;42\nŐz;\n")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(in, []byte(data), 0o600))

	out := filepath.Join(dir, "out.xlsx")
	wb, err := newWorkbook(out, csv.Config{})
	require.NoError(t, err)
	require.NoError(t, wb.Configure(streamsheet.WithTempFolder(t.TempDir())))
	require.NoError(t, wb.Open(out))
	require.NoError(t, copyFile(context.Background(), wb, "people", in, "iso-8859-2"))
	require.NoError(t, wb.Close())

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("people")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"név", "kor"}, {"Árpád", "42"}, {"Őz"}}, rows)
}

func TestCopyFileCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte(csv.BOM+"a\tb\n1\t2\n"), 0o600))

	out := filepath.Join(dir, "out.csv")
	wb, err := newWorkbook(out, csv.Config{Comma: ';'})
	require.NoError(t, err)
	require.NoError(t, wb.Configure(streamsheet.WithTempFolder(t.TempDir())))
	require.NoError(t, wb.Open(out))
	require.NoError(t, copyFile(context.Background(), wb, "x", in, "utf-8"))
	require.NoError(t, wb.Close())
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a;b\n1;2\n", string(b))
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": ',', ",": ',', `\t`: '\t', "tab": '\t', ";": ';', "¦": '¦'} {
		got, err := parseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseDelimiter(";;")
	assert.Error(t, err)
}

func TestCleanSheetName(t *testing.T) {
	for in, want := range map[string]string{
		"report":                "report",
		"a:b[1]":                "a_b_1_",
		"'quoted'":              "quoted",
		"":                      "Sheet",
		strings.Repeat("x", 40): strings.Repeat("x", streamsheet.MaxSheetNameLength),
	} {
		assert.Equal(t, want, cleanSheetName(in), in)
	}
}
