// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package archive

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, binary.LittleEndian)

	idx1, err := w.WriteRecord(KindStats, 1000, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idx1)

	idx2, err := w.WriteRestart(1001, RestartPayload{CPUCount: 4, HZ: 100})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), idx2)

	idx3, err := w.WriteComment(1002, "rebooted")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), idx3)

	require.NoError(t, w.Flush())

	r := NewReader(&buf, binary.LittleEndian)

	hdr, payload, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), hdr.Index)
	assert.Equal(t, KindStats, hdr.Kind)
	assert.Equal(t, []byte{1, 2, 3}, payload)

	hdr, payload, err = r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, KindRestart, hdr.Kind)
	restart, err := DecodeRestart(binary.LittleEndian, payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), restart.CPUCount)
	assert.Equal(t, uint32(100), restart.HZ)

	hdr, payload, err = r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, KindComment, hdr.Kind)
	comment, err := DecodeComment(payload)
	require.NoError(t, err)
	assert.Equal(t, "rebooted", comment)

	_, _, err = r.ReadRecord()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteCommentTooLong(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, binary.LittleEndian)
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	_, err := w.WriteComment(0, string(long))
	assert.ErrorIs(t, err, ErrCommentTooLong)
}

func TestReaderRejectsNonMonotonicIndex(t *testing.T) {
	var buf bytes.Buffer
	order := binary.LittleEndian

	// Hand-craft two records with a repeated index to simulate a
	// corrupted/tampered stream.
	writeRaw := func(idx uint64) {
		hdrBuf := make([]byte, recordHeaderSize)
		order.PutUint64(hdrBuf[0:8], idx)
		hdrBuf[8] = byte(KindStats)
		order.PutUint64(hdrBuf[9:17], 0)
		order.PutUint32(hdrBuf[17:21], 0)
		buf.Write(hdrBuf)
	}
	writeRaw(5)
	writeRaw(5)

	r := NewReader(&buf, order)
	_, _, err := r.ReadRecord()
	require.NoError(t, err)

	_, _, err = r.ReadRecord()
	assert.ErrorIs(t, err, ErrArchiveCorrupt)
}

func TestReaderDetectsTruncatedPayload(t *testing.T) {
	order := binary.LittleEndian
	hdrBuf := make([]byte, recordHeaderSize)
	order.PutUint64(hdrBuf[0:8], 1)
	hdrBuf[8] = byte(KindStats)
	order.PutUint32(hdrBuf[17:21], 10) // claims 10 payload bytes
	buf := bytes.NewBuffer(hdrBuf)
	buf.Write([]byte{1, 2, 3}) // only 3 actually present

	r := NewReader(buf, order)
	_, _, err := r.ReadRecord()
	assert.ErrorIs(t, err, ErrArchiveCorrupt)
}
