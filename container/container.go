// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package container assembles a zip archive (or a flat file) from parts
// spooled to a private scratch directory.
//
// Parts are written while the document is generated, and folded into the
// output only by Finalize, so memory use stays at the I/O buffers.
// Abort (or a failing Finalize) removes the scratch directory and the
// output file.
package container

import (
	"bufio"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/zeebo/errs"
)

// Compression methods of AddEntry.
const (
	Store   = zip.Store
	Deflate = zip.Deflate
)

var (
	// ErrTargetBusy is returned by Create when another Writer has the same output path.
	ErrTargetBusy = errors.New("target is already being written")
	// ErrFinalized is returned when the Writer is already finalized or aborted.
	ErrFinalized = errors.New("container is finalized")
	// ErrDuplicateEntry is returned when an entry name is added twice.
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Config of the Writer.
type Config struct {
	// TempFolder is the parent of the scratch directory (default os.TempDir()).
	TempFolder string
	// Flat concatenates the entries into the output without an archive.
	Flat bool
	// Logger defaults to discarding.
	Logger *slog.Logger
}

// Writer is a container being written.
// It is not safe for concurrent use.
type Writer struct {
	logger   *slog.Logger
	out      *os.File
	names    map[string]struct{}
	modified time.Time
	path     string
	scratch  string
	parts    []*Part
	entries  []entry
	flat     bool
	done     bool
}

type entry struct {
	name    string
	sources []Source
	method  uint16
}

var targets = struct {
	m map[string]struct{}
	sync.Mutex
}{m: make(map[string]struct{})}

func lockTarget(path string) bool {
	targets.Lock()
	defer targets.Unlock()
	if _, ok := targets.m[path]; ok {
		return false
	}
	targets.m[path] = struct{}{}
	return true
}

func unlockTarget(path string) {
	targets.Lock()
	delete(targets.m, path)
	targets.Unlock()
}

// Create the output file at path and a private scratch directory.
//
// On error nothing is left behind.
func Create(path string, cfg Config) (*Writer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	if !lockTarget(abs) {
		return nil, fmt.Errorf("%q: %w", abs, ErrTargetBusy)
	}
	tmp := cfg.TempFolder
	if tmp == "" {
		tmp = os.TempDir()
	}
	scratch := filepath.Join(tmp, "streamsheet-"+uuid.NewString())
	if err = os.Mkdir(scratch, 0o700); err != nil {
		unlockTarget(abs)
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	out, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		unlockTarget(abs)
		return nil, errs.Combine(err, os.RemoveAll(scratch))
	}
	logger.Debug("container created", "path", abs, "scratch", scratch, "flat", cfg.Flat)
	return &Writer{
		logger: logger, out: out, path: abs, scratch: scratch,
		flat: cfg.Flat, names: make(map[string]struct{}),
		modified: time.Now(),
	}, nil
}

// Path of the output.
func (w *Writer) Path() string { return w.path }

// ScratchDir returns the private scratch directory.
func (w *Writer) ScratchDir() string { return w.scratch }

// OpenPart creates a new spooled part. The part is not an entry by itself:
// it must be added to one with AddEntry.
func (w *Writer) OpenPart(name string) (*Part, error) {
	if w.done {
		return nil, ErrFinalized
	}
	fn := filepath.Join(w.scratch, strconv.Itoa(len(w.parts))+".part")
	fh, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open part %q: %w", name, err)
	}
	p := &Part{name: name, path: fn, fh: fh, bw: bufio.NewWriterSize(fh, 32<<10)}
	w.parts = append(w.parts, p)
	w.logger.Debug("part opened", "name", name, "file", fn)
	return p, nil
}

// AddBlob adds data as a compressed entry.
func (w *Writer) AddBlob(name string, data []byte) error {
	return w.AddEntry(name, Deflate, Bytes(data))
}

// AddEntry adds an entry composed of the sources, in order.
// Entries are written in the order they are added.
func (w *Writer) AddEntry(name string, method uint16, sources ...Source) error {
	if w.done {
		return ErrFinalized
	}
	if _, ok := w.names[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrDuplicateEntry)
	}
	w.names[name] = struct{}{}
	w.entries = append(w.entries, entry{name: name, method: method, sources: sources})
	return nil
}

// Finalize writes all the entries into the output,
// closes it and removes the scratch directory.
//
// On error the Writer is aborted.
func (w *Writer) Finalize() (err error) {
	if w.done {
		return ErrFinalized
	}
	defer func() {
		if err != nil {
			err = errs.Combine(err, w.Abort())
		}
	}()
	for _, p := range w.parts {
		if err = p.Close(); err != nil {
			return err
		}
	}
	bw := bufio.NewWriterSize(w.out, 1<<16)
	if w.flat {
		for _, e := range w.entries {
			for _, src := range e.sources {
				if err = src.writeTo(bw); err != nil {
					return fmt.Errorf("%s: %w", e.name, err)
				}
			}
		}
	} else if err = w.writeZip(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	out := w.out
	w.out = nil
	if err = out.Close(); err != nil {
		return err
	}
	w.done = true
	unlockTarget(w.path)
	if rmErr := os.RemoveAll(w.scratch); rmErr != nil {
		w.logger.Warn("remove scratch", "dir", w.scratch, "error", rmErr)
	}
	w.logger.Debug("container finalized", "path", w.path, "entries", len(w.entries))
	return nil
}

func (w *Writer) writeZip(dst io.Writer) error {
	zw := zip.NewWriter(dst)
	for _, e := range w.entries {
		if err := w.writeEntry(zw, e); err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
	}
	return zw.Close()
}

func (w *Writer) writeEntry(zw *zip.Writer, e entry) error {
	if e.method == Store {
		// stored in-memory entries get their sizes in the local header,
		// without data descriptor or extra field (the ODF mimetype)
		if data, ok := concatBytes(e.sources); ok {
			fw, err := zw.CreateRaw(&zip.FileHeader{
				Name:               e.name,
				Method:             Store,
				CRC32:              crc32.ChecksumIEEE(data),
				CompressedSize64:   uint64(len(data)),
				UncompressedSize64: uint64(len(data)),
			})
			if err != nil {
				return err
			}
			_, err = fw.Write(data)
			return err
		}
	}
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name: e.name, Method: e.method, Modified: w.modified,
	})
	if err != nil {
		return err
	}
	for _, src := range e.sources {
		if err = src.writeTo(fw); err != nil {
			return err
		}
	}
	return nil
}

func concatBytes(sources []Source) ([]byte, bool) {
	var n int
	for _, src := range sources {
		b, ok := src.(Bytes)
		if !ok {
			return nil, false
		}
		n += len(b)
	}
	data := make([]byte, 0, n)
	for _, src := range sources {
		data = append(data, src.(Bytes)...)
	}
	return data, true
}

// Abort closes every file, removes the scratch directory and the output.
// It is a no-op after a successful Finalize, or a second Abort.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	defer unlockTarget(w.path)
	var group errs.Group
	for _, p := range w.parts {
		group.Add(p.discard())
	}
	if w.out != nil {
		group.Add(w.out.Close())
		w.out = nil
	}
	if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		group.Add(err)
	}
	group.Add(os.RemoveAll(w.scratch))
	w.logger.Debug("container aborted", "path", w.path, "scratch", w.scratch)
	return group.Err()
}

// Source of an entry: Bytes or a *Part.
type Source interface {
	writeTo(io.Writer) error
}

// Bytes is an in-memory Source.
type Bytes []byte

func (b Bytes) writeTo(w io.Writer) error {
	_, err := w.Write(b)
	return err
}

// Part is an append-only, buffered scratch file.
type Part struct {
	fh     *os.File
	bw     *bufio.Writer
	name   string
	path   string
	size   int64
	closed bool
}

var _ io.StringWriter = (*Part)(nil)

// Name returns the name the part was opened with.
func (p *Part) Name() string { return p.name }

// Size returns the number of bytes written.
func (p *Part) Size() int64 { return p.size }

func (p *Part) Write(b []byte) (int, error) {
	if p.closed {
		return 0, fmt.Errorf("%s: %w", p.name, os.ErrClosed)
	}
	n, err := p.bw.Write(b)
	p.size += int64(n)
	return n, err
}

func (p *Part) WriteString(s string) (int, error) {
	if p.closed {
		return 0, fmt.Errorf("%s: %w", p.name, os.ErrClosed)
	}
	n, err := p.bw.WriteString(s)
	p.size += int64(n)
	return n, err
}

// Close flushes and closes the part. Further writes fail.
func (p *Part) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.bw.Flush()
	return errs.Combine(err, p.fh.Close())
}

func (p *Part) discard() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.fh.Close()
}

func (p *Part) writeTo(w io.Writer) error {
	if !p.closed {
		if err := p.Close(); err != nil {
			return err
		}
	}
	fh, err := os.Open(p.path)
	if err != nil {
		return err
	}
	defer fh.Close()
	_, err = io.Copy(w, fh)
	return err
}
