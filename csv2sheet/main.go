// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Command csv2sheet converts CSV files into the sheets of one spreadsheet.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/UNO-SOFT/streamsheet"
	"github.com/UNO-SOFT/streamsheet/csv"
	"github.com/UNO-SOFT/streamsheet/ods"
	"github.com/UNO-SOFT/streamsheet/xlsx"
	"github.com/UNO-SOFT/zlog/v2"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/zeebo/errs"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		logger.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

func Main() error {
	fs := flag.NewFlagSet("csv2sheet", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagEnc := fs.String("charset", streamsheet.EncName, "input csv charset name")
	flagOutEnc := fs.String("out-charset", "utf-8", "output csv charset name")
	flagDelim := fs.String("delimiter", ",", `output csv field delimiter (\t for tab)`)
	flagBOM := fs.Bool("bom", false, "start UTF-8 csv output with a byte order mark")
	flagCRLF := fs.Bool("crlf", false, `end the csv output records with \r\n`)
	flagAutoSplit := fs.Bool("auto-split", false, "continue on a new sheet when one is full")
	flagMaxRows := fs.Int("max-rows", 0, "maximum number of rows per sheet (default: the limit of the format)")
	flagTemp := fs.String("temp", "", "directory of the scratch files (default: the system temp dir)")

	app := ffcli.Command{Name: "csv2sheet", FlagSet: fs,
		ShortUsage: "csv2sheet [flags] out.{ods,xlsx,csv} [name:]in.csv...",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return flag.ErrHelp
			}
			comma, err := parseDelimiter(*flagDelim)
			if err != nil {
				return err
			}
			out := args[0]
			wb, err := newWorkbook(out, csv.Config{
				Encoding: *flagOutEnc, Comma: comma,
				UseCRLF: *flagCRLF, AddBOM: *flagBOM,
			})
			if err != nil {
				return err
			}
			if err = wb.Configure(
				streamsheet.WithTempFolder(*flagTemp),
				streamsheet.WithAutoSplit(*flagAutoSplit),
				streamsheet.WithMaxRowsPerSheet(*flagMaxRows),
				streamsheet.WithLogger(logger),
			); err != nil {
				return err
			}
			if err = wb.Open(out); err != nil {
				return err
			}

			inputs := args[1:]
			if len(inputs) == 0 {
				inputs = []string{"-"}
			}
			for i, fn := range inputs {
				sheetName := fmt.Sprintf("Sheet%d", i+1)
				if i := strings.IndexByte(fn, ':'); i >= 0 {
					sheetName, fn = fn[:i], fn[i+1:]
				} else if fn != "" && fn != "-" {
					sheetName = cleanSheetName(strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn)))
				}
				if err := copyFile(ctx, wb, sheetName, fn, *flagEnc); err != nil {
					return errs.Combine(fmt.Errorf("%q: %w", fn, err), wb.Abort())
				}
			}
			return wb.Close()
		},
	}

	if err := app.Parse(os.Args[1:]); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

// newWorkbook returns the Workbook for the extension of fn, ods by default.
func newWorkbook(fn string, csvConfig csv.Config) (*streamsheet.Workbook, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".xlsx":
		return xlsx.NewWriter(), nil
	case ".csv", ".txt":
		return csv.NewWriter(csvConfig)
	default:
		return ods.NewWriter(), nil
	}
}

func copyFile(ctx context.Context, w streamsheet.Writer, sheetName, fn, encName string) error {
	cr, err := streamsheet.OpenCsv(fn, encName)
	if err != nil {
		return err
	}
	defer cr.Close()
	cr.FieldsPerRecord = -1

	row, err := cr.Read()
	if err != nil {
		return err
	}
	cols := make([]streamsheet.Column, len(row))
	for i, r := range row {
		cols[i].Name = r
		cols[i].Header.FontBold = true
	}
	sheet, err := w.NewSheet(sheetName, cols)
	if err != nil {
		return err
	}

	var rowI []any
	var n int
	for {
		if row, err = cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		rowI = rowI[:0]
		for _, s := range row {
			rowI = append(rowI, s)
		}
		if err = sheet.AppendRow(rowI...); err != nil {
			return err
		}
		if n++; n%1024 == 0 {
			if err = ctx.Err(); err != nil {
				return err
			}
		}
	}
	logger.Info("copied", "file", fn, "sheet", sheetName, "rows", n)
	return sheet.Close()
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("delimiter %q: must be one character", s)
	}
	return r, nil
}

// cleanSheetName makes a valid sheet name from a file name.
func cleanSheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/?*:[]`, r) {
			return '_'
		}
		return r
	}, strings.Trim(s, "'"))
	if s == "" {
		return "Sheet"
	}
	if utf8.RuneCountInString(s) > streamsheet.MaxSheetNameLength {
		s = string([]rune(s)[:streamsheet.MaxSheetNameLength])
	}
	return s
}
