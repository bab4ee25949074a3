// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/teamlink/pkg/teamlink"
)

func TestWriterReader_Stream(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	base := time.Unix(1700000000, 0)
	w.now = func() time.Time { return base }

	require.NoError(t, w.Write([]byte("AZWX")))
	w.ObserveRead([]byte("YB"))
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Close())

	r := NewReader(&buf)
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("AZWX"), rec.Data)
	assert.True(t, rec.Time().Equal(base))

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("YB"), rec.Data)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriter_CopiesInput(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	p := []byte("AZ")
	require.NoError(t, w.Write(p))
	p[0] = 'Q'

	rec, err := NewReader(&buf).Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("AZ"), rec.Data)
}

func TestReader_Truncated(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write([]byte("AZWXYB")))

	data := buf.Bytes()[:buf.Len()-2]
	_, err := NewReader(bytes.NewReader(data)).Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestReplay_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.cbor")

	w, err := Create(path)
	require.NoError(t, err)
	// Frames split across reads, as a serial port delivers them.
	for _, chunk := range []string{"AZW", "XYBMotor", "Speed20YB", "AZQRYB"} {
		require.NoError(t, w.Write([]byte(chunk)))
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	acc := teamlink.NewAccumulator(teamlink.DefaultCommandTable(), teamlink.DefaultRoster())
	var kinds []teamlink.EventKind
	var lastChunk string
	records := 0
	require.NoError(t, Replay(r, acc, func(rec Record, events []teamlink.Event) {
		records++
		for _, e := range events {
			if e.Kind == teamlink.EventFrameStart {
				continue
			}
			kinds = append(kinds, e.Kind)
			lastChunk = string(rec.Data)
		}
	}))

	assert.Equal(t, 4, records)

	assert.Equal(t, []teamlink.EventKind{
		teamlink.EventForward,
		teamlink.EventCommand,
		teamlink.EventRejected,
	}, kinds)
	assert.Equal(t, "AZQRYB", lastChunk)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.cbor"))
	assert.Error(t, err)
}
