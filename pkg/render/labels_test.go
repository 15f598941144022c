// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sysstatgo/satop/pkg/activity"
)

func TestValueLabelsDropsLeadingItemLabel(t *testing.T) {
	desc := &activity.Descriptor{
		Layout:  activity.FieldWidth{U64: 6},
		HdrLine: "CPU;%user;%nice;%system;%iowait;%steal;%idle",
	}
	got := ValueLabels(desc, nil)
	assert.Equal(t, []string{"%user", "%nice", "%system", "%iowait", "%steal", "%idle"}, got)
}

func TestValueLabelsDirectMatch(t *testing.T) {
	desc := &activity.Descriptor{
		Layout:  activity.FieldWidth{U32: 2},
		HdrLine: "pswpin/s;pswpout/s",
	}
	got := ValueLabels(desc, nil)
	assert.Equal(t, []string{"pswpin/s", "pswpout/s"}, got)
}

func TestValueLabelsFallsBackWhenFieldCountsMismatch(t *testing.T) {
	desc := &activity.Descriptor{
		Layout:  activity.FieldWidth{U64: 9, U32: 6},
		HdrLine: "kbmemfree;kbavail;kbmemused;%memused",
	}
	got := ValueLabels(desc, nil)
	assert.Len(t, got, 15)
	assert.Equal(t, "fld0", got[0])
	assert.Equal(t, "fld14", got[14])
}
