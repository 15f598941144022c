// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package activity

import serrors "github.com/sysstatgo/satop/pkg/errors"

var (
	// errInvalidSelector is returned by ParseSelector on malformed input.
	errInvalidSelector = serrors.New("activity: invalid item selector")

	// ErrOutOfCapacity is returned when an item count exceeds a
	// descriptor's hard Max and the buffer manager cannot grow further.
	ErrOutOfCapacity = serrors.New("activity: item count exceeds maximum capacity")

	// ErrUnknownID is returned when looking up an activity ID not present
	// in the descriptor table.
	ErrUnknownID = serrors.New("activity: unknown activity id")
)
