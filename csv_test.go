// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package streamsheet

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestGetEncoding(t *testing.T) {
	for _, nm := range []string{"", "utf-8", "UTF8"} {
		enc, err := GetEncoding(nm)
		require.NoError(t, err)
		assert.Nil(t, enc, nm)
	}
	enc, err := GetEncoding("ISO-8859-2")
	require.NoError(t, err)
	assert.Equal(t, charmap.ISO8859_2, enc)
	_, err = GetEncoding("klingon")
	assert.Error(t, err)
}

func TestOpenCsv(t *testing.T) {
	dir := t.TempDir()
	for name, tc := range map[string]struct {
		Data, Enc string
		Want      [][]string
	}{
		"comma":     {Data: "a,b\n1,2\n", Want: [][]string{{"a", "b"}, {"1", "2"}}},
		"semicolon": {Data: `"x";y` + "\n3;4\n", Want: [][]string{{"x", "y"}, {"3", "4"}}},
		"bomTab":    {Data: bom + "a\tb\n", Want: [][]string{{"a", "b"}}},
		"oneColumn": {Data: "name\nzed\n", Want: [][]string{{"name"}, {"zed"}}},
		"latin2":    {Data: "\xe1rv\xedzt\xfbr\xf5|x\n", Enc: "iso-8859-2", Want: [][]string{{"árvíztűrő", "x"}}},
	} {
		t.Run(name, func(t *testing.T) {
			fn := filepath.Join(dir, name+".csv")
			require.NoError(t, os.WriteFile(fn, []byte(tc.Data), 0o600))
			cr, err := OpenCsv(fn, tc.Enc)
			require.NoError(t, err)
			defer cr.Close()
			var got [][]string
			for {
				rec, err := cr.Read()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				got = append(got, append([]string(nil), rec...))
			}
			assert.Equal(t, tc.Want, got)
		})
	}

	_, err := OpenCsv(filepath.Join(dir, "missing.csv"), "")
	assert.Error(t, err)
}
