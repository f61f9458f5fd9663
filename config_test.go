// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package streamsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromMap(t *testing.T) {
	opts, err := ConfigFromMap(map[string]any{
		"temp_folder":                            "/var/tmp",
		"SHOULD_CREATE_NEW_SHEETS_AUTOMATICALLY": "true",
		"Max_Rows_Per_Sheet":                     10.0,
	})
	require.NoError(t, err)
	var cfg Config
	for _, o := range opts {
		o(&cfg)
	}
	assert.Equal(t, Config{
		TempFolder:                         "/var/tmp",
		ShouldCreateNewSheetsAutomatically: true,
		MaxRowsPerSheet:                    10,
	}, cfg)

	for name, m := range map[string]map[string]any{
		"unknown":  {"TEMP_DIR": "/tmp"},
		"negative": {KeyMaxRowsPerSheet: -1},
		"notBool":  {KeyAutoSplit: "perhaps"},
		"notInt":   {KeyMaxRowsPerSheet: "many"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ConfigFromMap(m)
			assert.Error(t, err)
		})
	}
}

func TestOptions(t *testing.T) {
	wb := New(nil, WithMaxRowsPerSheet(5), WithAutoSplit(true))
	require.NoError(t, wb.Configure(WithMaxRowsPerSheet(-1), WithTempFolder("x")))
	cfg := wb.Config()
	assert.Equal(t, 5, cfg.MaxRowsPerSheet)
	assert.True(t, cfg.ShouldCreateNewSheetsAutomatically)
	assert.Equal(t, "x", cfg.TempFolder)

	require.NoError(t, wb.Configure(WithConfig(Config{})))
	assert.Equal(t, Config{}, wb.Config())
}
