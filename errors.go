// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package streamsheet

import (
	"errors"

	"github.com/zeebo/errs"
)

var (
	// ErrWriterNotOpened is returned by every operation but Open
	// when the workbook is not open (never opened, closed or failed).
	ErrWriterNotOpened = errors.New("writer is not opened")
	// ErrWriterAlreadyOpened is returned when configuring an opened workbook.
	ErrWriterAlreadyOpened = errors.New("writer is already opened")
	// ErrUnsupportedValueType is returned for cell values the writer cannot represent.
	ErrUnsupportedValueType = errors.New("unsupported value type")
	// ErrValueTooLong is returned for text longer than the format allows.
	ErrValueTooLong = errors.New("value too long")
	// ErrSheetNotFound is returned when the sheet does not belong to the workbook.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrInvalidSheetName is returned by Sheet.SetName.
	ErrInvalidSheetName = errors.New("invalid sheet name")
)

var (
	// IOError is the class of errors of Open:
	// the target or the scratch location is not writable.
	IOError = errs.Class("io")
	// WriteError is the class of every error returned by AddRows and Close.
	// The output is already removed when such an error is returned.
	WriteError = errs.Class("write")
)
