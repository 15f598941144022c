// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package archive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysstatgo/satop/pkg/activity"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	hdr := FileHeader{
		Version:      FormatVersion,
		Endian:       LittleEndian,
		HZ:           100,
		UTCOffsetSec: -18000,
		CPUCount:     8,
		Hostname:     "web-1",
		Release:      "6.8.0-generic",
	}
	table := []ActivityTableEntry{
		{ID: activity.CPU, Magic: 1, FSize: 48, NrIni: 9},
		{ID: activity.Disk, Magic: 2, FSize: 56, NrIni: 4},
	}

	require.NoError(t, WriteFileHeader(&buf, hdr, table))

	got, gotTable, err := ReadFileHeader(&buf, LittleEndian, false)
	require.NoError(t, err)
	assert.Equal(t, hdr.Version, got.Version)
	assert.Equal(t, hdr.HZ, got.HZ)
	assert.Equal(t, hdr.UTCOffsetSec, got.UTCOffsetSec)
	assert.Equal(t, hdr.CPUCount, got.CPUCount)
	assert.Equal(t, hdr.Hostname, got.Hostname)
	assert.Equal(t, hdr.Release, got.Release)
	require.Len(t, gotTable, 2)
	assert.Equal(t, activity.CPU, gotTable[0].ID)
	assert.Equal(t, uint32(48), gotTable[0].FSize)
}

func TestReadFileHeaderRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	_, _, err := ReadFileHeader(buf, LittleEndian, false)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

// TestReadFileHeaderRejectsEndianMismatchUnlessAllowed covers scenario
// E6's companion invariant: a reader must reject a file whose endian
// marker disagrees with the host, unless byte-swap mode is explicitly
// enabled.
func TestReadFileHeaderRejectsEndianMismatchUnlessAllowed(t *testing.T) {
	var buf bytes.Buffer
	hdr := FileHeader{Version: FormatVersion, Endian: BigEndian, HZ: 100, CPUCount: 1}
	require.NoError(t, WriteFileHeader(&buf, hdr, nil))

	_, _, err := ReadFileHeader(bytes.NewReader(buf.Bytes()), LittleEndian, false)
	assert.ErrorIs(t, err, ErrVersionMismatch)

	_, _, err = ReadFileHeader(bytes.NewReader(buf.Bytes()), LittleEndian, true)
	assert.NoError(t, err)
}

func TestAdaptPayloadZeroPadsWhenMSizeLarger(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	out := AdaptPayload(payload, 8)
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, out)
}

func TestAdaptPayloadTruncatesWhenMSizeSmaller(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6}
	out := AdaptPayload(payload, 3)
	assert.Equal(t, []byte{1, 2, 3}, out)
}

// TestActivityTableExposesUnknownMagicBeforePayload covers the table side
// of scenario E6: an activity table entry with a magic the reader doesn't
// recognize reads back intact alongside the others, before any payload is
// read, which is what lets a reader skip that activity by fsize. The skip
// itself is tested in stats_test.go.
func TestActivityTableExposesUnknownMagicBeforePayload(t *testing.T) {
	var buf bytes.Buffer
	hdr := FileHeader{Version: FormatVersion, Endian: LittleEndian, HZ: 100, CPUCount: 2}
	table := []ActivityTableEntry{
		{ID: activity.CPU, Magic: 999, FSize: 48, NrIni: 2}, // unknown future magic
		{ID: activity.Disk, Magic: 2, FSize: 56, NrIni: 1},
	}
	require.NoError(t, WriteFileHeader(&buf, hdr, table))

	_, gotTable, err := ReadFileHeader(&buf, LittleEndian, false)
	require.NoError(t, err)
	require.Len(t, gotTable, 2)
	// A consumer recognizes activity descriptors by registry magic; an
	// unrecognized one is identified here purely from the table, without
	// any payload having been read yet, confirming skip-by-fsize is
	// possible before touching the record stream.
	assert.NotEqual(t, uint16(1), gotTable[0].Magic)
	assert.Equal(t, uint16(2), gotTable[1].Magic)
}
