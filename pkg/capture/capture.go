// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records raw bus reads to a file and plays them back.
//
// A capture is a stream of CBOR arrays, one per read:
// [unix_nanos, bytes].
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

// Record is one chunk as it came off the bus.
type Record struct {
	_        struct{} `cbor:",toarray"`
	UnixNano int64
	Data     []byte
}

// Time returns when the chunk was read.
func (r Record) Time() time.Time {
	return time.Unix(0, r.UnixNano)
}

// Writer appends records. It is a node ReadObserver, so it can be attached
// to a running node directly.
type Writer struct {
	mu     sync.Mutex
	enc    *cbor.Encoder
	closer io.Closer
	err    error
	count  int
	now    func() time.Time
}

// NewWriter writes records to w.
func NewWriter(w io.Writer) *Writer {
	cw := &Writer{enc: cbor.NewEncoder(w), now: time.Now}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	return cw
}

// Create truncates or creates path and returns a Writer on it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture: %w", err)
	}
	return NewWriter(f), nil
}

// Write appends one record stamped with the current time.
func (w *Writer) Write(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	data := make([]byte, len(p))
	copy(data, p)
	if err := w.enc.Encode(Record{UnixNano: w.now().UnixNano(), Data: data}); err != nil {
		w.err = fmt.Errorf("write capture record: %w", err)
		return w.err
	}
	w.count++
	return nil
}

// ObserveRead records p. The first error sticks and is returned by Err and
// Close.
func (w *Writer) ObserveRead(p []byte) {
	w.Write(p)
}

// Observe ignores events; only raw reads are captured.
func (w *Writer) Observe(teamlink.Event) {}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close closes the underlying file when there is one.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var closeErr error
	if w.closer != nil {
		closeErr = w.closer.Close()
		w.closer = nil
	}
	return errors.Join(w.err, closeErr)
}

// Reader reads records in order.
type Reader struct {
	dec    *cbor.Decoder
	closer io.Closer
}

// NewReader reads records from r.
func NewReader(r io.Reader) *Reader {
	cr := &Reader{dec: cbor.NewDecoder(r)}
	if c, ok := r.(io.Closer); ok {
		cr.closer = c
	}
	return cr
}

// Open opens a capture file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	return NewReader(f), nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("read capture record: %w", err)
	}
	return rec, nil
}

// Close closes the underlying file when there is one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Replay feeds every record through acc and calls fn once per record with
// the events its bytes produced, possibly none.
func Replay(r *Reader, acc *teamlink.Accumulator, fn func(Record, []teamlink.Event)) error {
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(rec, acc.FeedAll(rec.Data))
	}
}
