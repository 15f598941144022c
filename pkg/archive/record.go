// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package archive implements the record framing and file codec the
// collector writes and the reporter reads: a header with an activity
// table, followed by a stream of STATS/RESTART/COMMENT records in
// strictly increasing index order.
package archive

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Kind tags a record's payload type.
type Kind uint8

const (
	KindStats Kind = iota
	KindRestart
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindStats:
		return "STATS"
	case KindRestart:
		return "RESTART"
	case KindComment:
		return "COMMENT"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// maxCommentLen is the hard ceiling on a COMMENT record's UTF-8 payload.
const maxCommentLen = 64

// RecordHeader precedes every record's payload on the wire. Index must
// strictly increase across the whole stream; Timestamp is Unix seconds
// at the moment the record was produced.
type RecordHeader struct {
	Index      uint64
	Kind       Kind
	Timestamp  int64
	PayloadLen uint32
}

const recordHeaderSize = 8 + 1 + 8 + 4

// RestartPayload is the fixed payload of a RESTART record: the new
// per-sample context a reader needs to reinterpret subsequent STATS
// records (e.g. after a reboot changed the CPU count or clock rate).
type RestartPayload struct {
	CPUCount uint32
	HZ       uint32
}

const restartPayloadSize = 4 + 4

// Writer serializes records to an underlying stream, enforcing strictly
// increasing record indices and header-before-payload ordering. It does
// not truncate the stream when a write stops part-way: a record cut off
// inside its header or payload stays in the file, and Reader reports it
// as ErrArchiveCorrupt, not EOF.
type Writer struct {
	w       *bufio.Writer
	order   binary.ByteOrder
	nextIdx uint64
}

// NewWriter wraps w for record writing using the given byte order (which
// must match the order recorded in the file header).
func NewWriter(w io.Writer, order binary.ByteOrder) *Writer {
	return &Writer{w: bufio.NewWriter(w), order: order, nextIdx: 1}
}

// WriteRecord writes one record with the next monotonic index and the
// given kind/payload. Returns the index assigned.
func (wr *Writer) WriteRecord(kind Kind, timestamp int64, payload []byte) (uint64, error) {
	idx := wr.nextIdx
	hdr := RecordHeader{
		Index:      idx,
		Kind:       kind,
		Timestamp:  timestamp,
		PayloadLen: uint32(len(payload)),
	}
	if err := writeHeader(wr.w, wr.order, hdr); err != nil {
		return 0, fmt.Errorf("archive: write record header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := wr.w.Write(payload); err != nil {
			return 0, fmt.Errorf("archive: write record payload: %w", err)
		}
	}
	wr.nextIdx++
	return idx, nil
}

// WriteRestart writes a RESTART record.
func (wr *Writer) WriteRestart(timestamp int64, p RestartPayload) (uint64, error) {
	buf := make([]byte, restartPayloadSize)
	wr.order.PutUint32(buf[0:4], p.CPUCount)
	wr.order.PutUint32(buf[4:8], p.HZ)
	return wr.WriteRecord(KindRestart, timestamp, buf)
}

// WriteComment writes a COMMENT record: a length-prefixed UTF-8 string
// of at most 64 bytes.
func (wr *Writer) WriteComment(timestamp int64, text string) (uint64, error) {
	if len(text) > maxCommentLen {
		return 0, ErrCommentTooLong
	}
	buf := make([]byte, 1+len(text))
	buf[0] = byte(len(text))
	copy(buf[1:], text)
	return wr.WriteRecord(KindComment, timestamp, buf)
}

// Flush flushes any buffered output. The caller is responsible for
// fsyncing the underlying file descriptor on rotation, per the
// fsync-on-rotation-only durability guarantee.
func (wr *Writer) Flush() error {
	return wr.w.Flush()
}

func writeHeader(w io.Writer, order binary.ByteOrder, hdr RecordHeader) error {
	buf := make([]byte, recordHeaderSize)
	order.PutUint64(buf[0:8], hdr.Index)
	buf[8] = byte(hdr.Kind)
	order.PutUint64(buf[9:17], uint64(hdr.Timestamp))
	order.PutUint32(buf[17:21], hdr.PayloadLen)
	_, err := w.Write(buf)
	return err
}

// Reader deserializes records from an underlying stream, validating
// strictly monotonic record indices.
type Reader struct {
	r       io.Reader
	order   binary.ByteOrder
	lastIdx uint64
	started bool
}

// NewReader wraps r for record reading using the given byte order.
func NewReader(r io.Reader, order binary.ByteOrder) *Reader {
	return &Reader{r: r, order: order}
}

// ReadRecord reads the next record. Returns io.EOF (possibly wrapped,
// via errors.Is) when the stream ends cleanly at a record boundary.
// ErrArchiveCorrupt is returned when the index does not strictly
// increase, or when a payload is truncated mid-record.
func (rr *Reader) ReadRecord() (RecordHeader, []byte, error) {
	hdrBuf := make([]byte, recordHeaderSize)
	if _, err := io.ReadFull(rr.r, hdrBuf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return RecordHeader{}, nil, fmt.Errorf("archive: truncated record header: %w", ErrArchiveCorrupt)
		}
		return RecordHeader{}, nil, err
	}

	hdr := RecordHeader{
		Index:      rr.order.Uint64(hdrBuf[0:8]),
		Kind:       Kind(hdrBuf[8]),
		Timestamp:  int64(rr.order.Uint64(hdrBuf[9:17])),
		PayloadLen: rr.order.Uint32(hdrBuf[17:21]),
	}

	if rr.started && hdr.Index <= rr.lastIdx {
		return RecordHeader{}, nil, fmt.Errorf("archive: record index %d did not increase past %d: %w", hdr.Index, rr.lastIdx, ErrArchiveCorrupt)
	}
	rr.lastIdx = hdr.Index
	rr.started = true

	payload := make([]byte, hdr.PayloadLen)
	if hdr.PayloadLen > 0 {
		if _, err := io.ReadFull(rr.r, payload); err != nil {
			return RecordHeader{}, nil, fmt.Errorf("archive: truncated record payload: %w", ErrArchiveCorrupt)
		}
	}
	return hdr, payload, nil
}

// DecodeRestart parses a RESTART record's payload.
func DecodeRestart(order binary.ByteOrder, payload []byte) (RestartPayload, error) {
	if len(payload) < restartPayloadSize {
		return RestartPayload{}, fmt.Errorf("archive: short RESTART payload: %w", ErrArchiveCorrupt)
	}
	return RestartPayload{
		CPUCount: order.Uint32(payload[0:4]),
		HZ:       order.Uint32(payload[4:8]),
	}, nil
}

// DecodeComment parses a COMMENT record's payload.
func DecodeComment(payload []byte) (string, error) {
	if len(payload) < 1 {
		return "", fmt.Errorf("archive: empty COMMENT payload: %w", ErrArchiveCorrupt)
	}
	n := int(payload[0])
	if len(payload) < 1+n {
		return "", fmt.Errorf("archive: short COMMENT payload: %w", ErrArchiveCorrupt)
	}
	return string(payload[1 : 1+n]), nil
}
