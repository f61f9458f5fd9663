// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package streamsheet

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"
)

// Configuration keys recognized by ConfigFromMap.
const (
	KeyTempFolder      = "TEMP_FOLDER"
	KeyAutoSplit       = "SHOULD_CREATE_NEW_SHEETS_AUTOMATICALLY"
	KeyMaxRowsPerSheet = "MAX_ROWS_PER_SHEET"
)

// Config of a Workbook. It must be set before Open.
type Config struct {
	// TempFolder is where the scratch directory is created (default os.TempDir()).
	TempFolder string
	// ShouldCreateNewSheetsAutomatically starts a new sheet when the current
	// one reached MaxRowsPerSheet rows. Without it, the maximum is advisory.
	ShouldCreateNewSheetsAutomatically bool
	// MaxRowsPerSheet overrides the format's maximum, if positive.
	MaxRowsPerSheet int
	// Logger defaults to discarding everything.
	Logger *slog.Logger
}

// Option modifies the Config.
type Option func(*Config)

// WithTempFolder sets the directory for the scratch files.
func WithTempFolder(dir string) Option {
	return func(c *Config) { c.TempFolder = dir }
}

// WithAutoSplit sets whether a new sheet is started automatically
// when the current sheet is full.
func WithAutoSplit(b bool) Option {
	return func(c *Config) { c.ShouldCreateNewSheetsAutomatically = b }
}

// WithMaxRowsPerSheet overrides the format-dependent row maximum.
func WithMaxRowsPerSheet(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.MaxRowsPerSheet = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lgr *slog.Logger) Option {
	return func(c *Config) { c.Logger = lgr }
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// ConfigFromMap returns the Options for the keys
// TEMP_FOLDER, SHOULD_CREATE_NEW_SHEETS_AUTOMATICALLY and MAX_ROWS_PER_SHEET.
//
// Keys are case-insensitive, values are coerced ("true", "1", 10.0 ...).
func ConfigFromMap(m map[string]any) ([]Option, error) {
	opts := make([]Option, 0, len(m))
	for k, v := range m {
		switch strings.ToUpper(k) {
		case KeyTempFolder:
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			opts = append(opts, WithTempFolder(s))
		case KeyAutoSplit:
			b, err := cast.ToBoolE(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			opts = append(opts, WithAutoSplit(b))
		case KeyMaxRowsPerSheet:
			n, err := cast.ToIntE(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if n < 0 {
				return nil, fmt.Errorf("%s: %d is negative", k, n)
			}
			opts = append(opts, WithMaxRowsPerSheet(n))
		default:
			return nil, fmt.Errorf("unknown option %q", k)
		}
	}
	return opts, nil
}
