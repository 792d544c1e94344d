// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// READER CONSTANTS
// =============================================================================

// Prefix marks a line that carries an event payload.
const Prefix = "data: "

// DefaultMaxLineBytes is the default cap on a single buffered line (1MB).
const DefaultMaxLineBytes = 1 << 20

// readChunkSize is the size of each read from the decoded source.
const readChunkSize = 4 * 1024

// =============================================================================
// READER
// =============================================================================

// Reader turns a raw byte stream into a sequence of event payloads.
//
// Bytes are decoded as UTF-8 incrementally, so a multi-byte character split
// across reads is held back until it is complete. Decoded text accumulates in
// a carry-over buffer; every complete line is queued and the trailing
// fragment is kept for the next read. Only lines starting with Prefix are
// returned, with the prefix removed.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	src     io.Reader
	chunk   []byte
	carry   []byte
	lines   []string
	maxLine int

	dropped int
	eof     bool
	err     error
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxLineBytes caps the size of a single line. Exceeding it ends the
// stream with a transport failure.
func WithMaxLineBytes(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// NewReader creates a Reader over r. A leading byte order mark is dropped
// and invalid byte sequences decode to U+FFFD.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	rd := &Reader{
		src:     transform.NewReader(r, decoder),
		chunk:   make([]byte, readChunkSize),
		maxLine: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Next returns the next payload.
//
// It returns io.EOF once the source is exhausted and every complete payload
// has been returned, and a *TransportError if the source fails. Iteration
// ends after either. ctx is checked between reads; a read that is already
// blocked is released by closing the underlying source.
func (r *Reader) Next(ctx context.Context) (string, error) {
	for {
		for len(r.lines) > 0 {
			line := r.lines[0]
			r.lines = r.lines[1:]
			if payload, ok := cutPrefix(line); ok {
				return payload, nil
			}
		}

		if r.err != nil {
			return "", r.err
		}
		if r.eof {
			return "", io.EOF
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			r.carry = append(r.carry, r.chunk[:n]...)
			r.splitLines()
			if r.err == nil && len(r.carry) > r.maxLine {
				r.carry = nil
				r.err = &TransportError{Err: ErrLineTooLong}
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			r.eof = true
			r.flush()
		default:
			if r.err == nil {
				r.err = &TransportError{Err: err}
			}
		}
	}
}

// Dropped returns how many truncated trailing frames were discarded.
func (r *Reader) Dropped() int {
	return r.dropped
}

// splitLines moves every complete line out of the carry-over buffer.
func (r *Reader) splitLines() {
	for {
		i := bytes.IndexByte(r.carry, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(r.carry[:i], []byte("\r"))
		if len(line) > r.maxLine {
			r.carry = nil
			r.err = &TransportError{Err: ErrLineTooLong}
			return
		}
		r.lines = append(r.lines, string(line))
		r.carry = r.carry[i+1:]
	}
	if len(r.carry) == 0 {
		r.carry = nil
	}
}

// flush handles the fragment left at end of stream. It is kept only if it
// is a prefixed line holding a complete JSON value.
func (r *Reader) flush() {
	tail := bytes.TrimSuffix(r.carry, []byte("\r"))
	r.carry = nil
	if len(tail) == 0 {
		return
	}
	payload, ok := cutPrefix(string(tail))
	if ok && gjson.Valid(payload) {
		r.lines = append(r.lines, string(tail))
		return
	}
	r.dropped++
}

func cutPrefix(line string) (string, bool) {
	return strings.CutPrefix(line, Prefix)
}
