// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package archive

import serrors "github.com/sysstatgo/satop/pkg/errors"

var (
	// ErrArchiveCorrupt is returned when a record's index does not
	// strictly increase over the previous record, or a payload is
	// truncated mid-record.
	ErrArchiveCorrupt = serrors.New("archive: corrupt record stream")

	// ErrVersionMismatch is returned when a file header's magic or
	// endian marker disagrees with what this reader supports and no
	// byte-swap override was requested.
	ErrVersionMismatch = serrors.New("archive: incompatible file version")

	// ErrCommentTooLong is returned by WriteComment when the comment
	// text exceeds the 64-byte limit.
	ErrCommentTooLong = serrors.New("archive: comment exceeds 64 bytes")
)
