// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package archive

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sysstatgo/satop/pkg/activity"
)

// FileMagic identifies this module's archive format. It intentionally
// does not match the original sysstat tool's magic number: the exact
// byte layout of that format could not be recovered from the available
// sources, so this is a self-consistent format this module defines for
// itself (see DESIGN.md's Open Question decisions).
const FileMagic uint32 = 0x53544154 // "STAT"

// FormatVersion is bumped whenever FileHeader's own layout changes.
const FormatVersion uint16 = 1

// Endian is the byte-order marker recorded in the file header.
type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
)

func (e Endian) byteOrder() binary.ByteOrder {
	return e.ByteOrder()
}

// ByteOrder returns the binary.ByteOrder this marker denotes, for
// callers (record.Writer/record.Reader) that must encode subsequent
// records with the same order the file header declared.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// FileHeader is the fixed-order metadata block every archive begins
// with, following FileMagic: version, endian marker, HZ, UTC offset,
// CPU count at creation time, hostname, and kernel release. The
// activity table (one row per activity that may appear in the file)
// follows immediately after.
type FileHeader struct {
	Version      uint16
	Endian       Endian
	HZ           uint32
	UTCOffsetSec int32
	CPUCount     uint32
	Hostname     string
	Release      string
}

// ActivityTableEntry is one row of the activity table: enough for a
// reader to allocate correctly-strided buffers and skip activities it
// does not recognize, without parsing their payloads.
type ActivityTableEntry struct {
	ID    activity.ID
	Magic uint16
	FSize uint32
	NrIni uint32
	Nr2   uint32
}

const activityTableEntrySize = 1 + 2 + 4 + 4 + 4

// stringFieldCap bounds Hostname/Release on the wire: a uint8 length
// prefix followed by up to 255 bytes.
const stringFieldCap = 255

// WriteFileHeader writes FileMagic, the file header, and the activity
// table to w, using hdr.Endian as the wire byte order for every
// subsequent record in the stream.
func WriteFileHeader(w io.Writer, hdr FileHeader, table []ActivityTableEntry) error {
	order := hdr.Endian.byteOrder()

	magicBuf := make([]byte, 4)
	order.PutUint32(magicBuf, FileMagic)
	if _, err := w.Write(magicBuf); err != nil {
		return fmt.Errorf("archive: write file magic: %w", err)
	}

	fixed := make([]byte, 2+1+4+4+4)
	order.PutUint16(fixed[0:2], hdr.Version)
	fixed[2] = byte(hdr.Endian)
	order.PutUint32(fixed[3:7], hdr.HZ)
	order.PutUint32(fixed[7:11], uint32(hdr.UTCOffsetSec))
	order.PutUint32(fixed[11:15], hdr.CPUCount)
	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("archive: write file header: %w", err)
	}

	if err := writeString(w, order, hdr.Hostname); err != nil {
		return fmt.Errorf("archive: write hostname: %w", err)
	}
	if err := writeString(w, order, hdr.Release); err != nil {
		return fmt.Errorf("archive: write release: %w", err)
	}

	countBuf := make([]byte, 4)
	order.PutUint32(countBuf, uint32(len(table)))
	if _, err := w.Write(countBuf); err != nil {
		return fmt.Errorf("archive: write activity count: %w", err)
	}
	for _, e := range table {
		if err := writeActivityEntry(w, order, e); err != nil {
			return fmt.Errorf("archive: write activity table entry: %w", err)
		}
	}
	return nil
}

func writeString(w io.Writer, order binary.ByteOrder, s string) error {
	if len(s) > stringFieldCap {
		s = s[:stringFieldCap]
	}
	buf := make([]byte, 1+len(s))
	buf[0] = byte(len(s))
	copy(buf[1:], s)
	_, err := w.Write(buf)
	return err
}

func readString(r io.Reader) (string, error) {
	lenBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return "", err
	}
	n := int(lenBuf[0])
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeActivityEntry(w io.Writer, order binary.ByteOrder, e ActivityTableEntry) error {
	buf := make([]byte, activityTableEntrySize)
	buf[0] = byte(e.ID)
	order.PutUint16(buf[1:3], e.Magic)
	order.PutUint32(buf[3:7], e.FSize)
	order.PutUint32(buf[7:11], e.NrIni)
	order.PutUint32(buf[11:15], e.Nr2)
	_, err := w.Write(buf)
	return err
}

// ReadFileHeader reads and validates FileMagic, the file header, and the
// activity table from r. allowByteSwap, when true, accepts a header
// whose endian marker disagrees with the host and decodes it anyway
// (the explicit override the spec requires before a reader may do so);
// when false, a disagreeing marker is reported as ErrVersionMismatch.
func ReadFileHeader(r io.Reader, hostEndian Endian, allowByteSwap bool) (FileHeader, []ActivityTableEntry, error) {
	// The magic is read with both candidate orders since we don't yet
	// know which one the file uses; FileMagic is not byte-order
	// symmetric, so exactly one interpretation will match.
	magicBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, magicBuf); err != nil {
		return FileHeader{}, nil, fmt.Errorf("archive: read file magic: %w", err)
	}
	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(magicBuf) == FileMagic:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(magicBuf) == FileMagic:
		order = binary.BigEndian
	default:
		return FileHeader{}, nil, fmt.Errorf("archive: bad file magic: %w", ErrVersionMismatch)
	}

	fixed := make([]byte, 2+1+4+4+4)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return FileHeader{}, nil, fmt.Errorf("archive: read file header: %w", err)
	}
	hdr := FileHeader{
		Version:      order.Uint16(fixed[0:2]),
		Endian:       Endian(fixed[2]),
		HZ:           order.Uint32(fixed[3:7]),
		UTCOffsetSec: int32(order.Uint32(fixed[7:11])),
		CPUCount:     order.Uint32(fixed[11:15]),
	}

	fileIsBigEndian := hdr.Endian == BigEndian
	hostIsBigEndian := hostEndian == BigEndian
	if fileIsBigEndian != hostIsBigEndian && !allowByteSwap {
		return FileHeader{}, nil, fmt.Errorf("archive: endian marker disagrees with host: %w", ErrVersionMismatch)
	}

	var err error
	if hdr.Hostname, err = readString(r); err != nil {
		return FileHeader{}, nil, fmt.Errorf("archive: read hostname: %w", err)
	}
	if hdr.Release, err = readString(r); err != nil {
		return FileHeader{}, nil, fmt.Errorf("archive: read release: %w", err)
	}

	countBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, countBuf); err != nil {
		return FileHeader{}, nil, fmt.Errorf("archive: read activity count: %w", err)
	}
	n := order.Uint32(countBuf)
	table := make([]ActivityTableEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		e, err := readActivityEntry(r, order)
		if err != nil {
			return FileHeader{}, nil, fmt.Errorf("archive: read activity table entry %d: %w", i, err)
		}
		table = append(table, e)
	}
	return hdr, table, nil
}

func readActivityEntry(r io.Reader, order binary.ByteOrder) (ActivityTableEntry, error) {
	buf := make([]byte, activityTableEntrySize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return ActivityTableEntry{}, err
	}
	return ActivityTableEntry{
		ID:    activity.ID(buf[0]),
		Magic: order.Uint16(buf[1:3]),
		FSize: order.Uint32(buf[3:7]),
		NrIni: order.Uint32(buf[7:11]),
		Nr2:   order.Uint32(buf[11:15]),
	}, nil
}

// AdaptPayload reshapes a serialized payload of fsize bytes (as recorded
// in the activity table) into a buffer of msize bytes (the in-memory
// stride this build expects), per the reader invariant: when msize >
// fsize (newer tool, older file) the result is zero-padded; when msize <
// fsize the result is truncated, preserving the reader's stream
// position (the caller has already consumed exactly fsize bytes from
// the stream regardless of msize).
func AdaptPayload(payload []byte, msize int) []byte {
	if len(payload) == msize {
		return payload
	}
	out := make([]byte, msize)
	copy(out, payload) // copy truncates or zero-pads automatically
	return out
}

// HostEndian reports this process's native byte order.
func HostEndian() Endian {
	if binary.NativeEndian.String() == binary.BigEndian.String() {
		return BigEndian
	}
	return LittleEndian
}
