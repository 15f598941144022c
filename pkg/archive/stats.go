// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/sysstatgo/satop/pkg/activity"
)

// ActivitySnapshot is one activity's curr-slot items as of the tick a
// STATS record captures, the unit EncodeStats serializes and
// DecodeStats reconstructs.
type ActivitySnapshot struct {
	ID    activity.ID
	Items []activity.Item
}

// EncodeStats serializes every activity in order into one STATS record
// payload: an activity count, then per activity its ID, item count, and
// per item a length-prefixed name followed by its U64/U32/U fields in
// the order FieldWidth describes — the caller supplies layout since the
// payload itself carries no schema, matching the archive header's
// activity table being read once up front.
func EncodeStats(order binary.ByteOrder, snapshots []ActivitySnapshot, layouts map[activity.ID]activity.FieldWidth) ([]byte, error) {
	buf := make([]byte, 0, 256)
	var tmp [8]byte

	order.PutUint32(tmp[:4], uint32(len(snapshots)))
	buf = append(buf, tmp[:4]...)

	for _, snap := range snapshots {
		layout, ok := layouts[snap.ID]
		if !ok {
			return nil, fmt.Errorf("archive: no layout registered for activity %s", snap.ID)
		}
		buf = append(buf, byte(snap.ID))
		order.PutUint32(tmp[:4], uint32(len(snap.Items)))
		buf = append(buf, tmp[:4]...)

		for _, item := range snap.Items {
			if len(item.Name) > stringFieldCap {
				return nil, fmt.Errorf("archive: item name %q exceeds %d bytes", item.Name, stringFieldCap)
			}
			buf = append(buf, byte(len(item.Name)))
			buf = append(buf, item.Name...)

			if len(item.U64) < layout.U64 || len(item.U32) < layout.U32 || len(item.U) < layout.U {
				return nil, fmt.Errorf("archive: item %q has fewer fields than activity %s's layout requires", item.Name, snap.ID)
			}

			for i := 0; i < layout.U64; i++ {
				order.PutUint64(tmp[:8], item.U64[i])
				buf = append(buf, tmp[:8]...)
			}
			for i := 0; i < layout.U32; i++ {
				order.PutUint32(tmp[:4], item.U32[i])
				buf = append(buf, tmp[:4]...)
			}
			for i := 0; i < layout.U; i++ {
				order.PutUint32(tmp[:4], item.U[i])
				buf = append(buf, tmp[:4]...)
			}
		}
	}
	return buf, nil
}

// DecodeStats parses a STATS record payload back into per-activity
// snapshots, given the same layouts map the writer used. sizes supplies
// each activity's declared per-item numeric payload size (the archive
// table's FSize, minus the length-prefixed name) for every activity in
// the file, known or not; an activity absent from layouts (unregistered,
// or a VersionMismatch the caller has already decided to reject) is
// skipped by consulting sizes alone, so one activity's corrupt or
// unreadable layout never prevents the rest of the record from
// decoding.
func DecodeStats(order binary.ByteOrder, payload []byte, layouts map[activity.ID]activity.FieldWidth, sizes map[activity.ID]int) ([]ActivitySnapshot, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("archive: short STATS payload: %w", ErrArchiveCorrupt)
	}
	pos := 0
	readU32 := func() (uint32, error) {
		if pos+4 > len(payload) {
			return 0, fmt.Errorf("archive: truncated STATS payload: %w", ErrArchiveCorrupt)
		}
		v := order.Uint32(payload[pos : pos+4])
		pos += 4
		return v, nil
	}
	readU64 := func() (uint64, error) {
		if pos+8 > len(payload) {
			return 0, fmt.Errorf("archive: truncated STATS payload: %w", ErrArchiveCorrupt)
		}
		v := order.Uint64(payload[pos : pos+8])
		pos += 8
		return v, nil
	}

	nActivities, err := readU32()
	if err != nil {
		return nil, err
	}

	snapshots := make([]ActivitySnapshot, 0, nActivities)
	for a := uint32(0); a < nActivities; a++ {
		if pos >= len(payload) {
			return nil, fmt.Errorf("archive: truncated STATS payload: %w", ErrArchiveCorrupt)
		}
		id := activity.ID(payload[pos])
		pos++
		nItems, err := readU32()
		if err != nil {
			return nil, err
		}
		layout, ok := layouts[id]
		if !ok {
			itemSize, sok := sizes[id]
			if !sok {
				return nil, fmt.Errorf("archive: no layout or size registered for activity %s", id)
			}
			for i := uint32(0); i < nItems; i++ {
				if pos >= len(payload) {
					return nil, fmt.Errorf("archive: truncated STATS payload: %w", ErrArchiveCorrupt)
				}
				nameLen := int(payload[pos])
				pos++
				if pos+nameLen+itemSize > len(payload) {
					return nil, fmt.Errorf("archive: truncated STATS payload: %w", ErrArchiveCorrupt)
				}
				pos += nameLen + itemSize
			}
			continue
		}

		items := make([]activity.Item, nItems)
		for i := range items {
			if pos >= len(payload) {
				return nil, fmt.Errorf("archive: truncated STATS payload: %w", ErrArchiveCorrupt)
			}
			nameLen := int(payload[pos])
			pos++
			if pos+nameLen > len(payload) {
				return nil, fmt.Errorf("archive: truncated STATS payload: %w", ErrArchiveCorrupt)
			}
			items[i].Name = string(payload[pos : pos+nameLen])
			pos += nameLen

			items[i].U64 = make([]uint64, layout.U64)
			for j := 0; j < layout.U64; j++ {
				v, err := readU64()
				if err != nil {
					return nil, err
				}
				items[i].U64[j] = v
			}
			items[i].U32 = make([]uint32, layout.U32)
			for j := 0; j < layout.U32; j++ {
				v, err := readU32()
				if err != nil {
					return nil, err
				}
				items[i].U32[j] = v
			}
			items[i].U = make([]uint32, layout.U)
			for j := 0; j < layout.U; j++ {
				v, err := readU32()
				if err != nil {
					return nil, err
				}
				items[i].U[j] = v
			}
		}
		snapshots = append(snapshots, ActivitySnapshot{ID: id, Items: items})
	}
	return snapshots, nil
}
