// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package osadapter

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sysstatgo/satop/pkg/activity"
)

// networkSNMPReader reads socket/connection totals off /proc/net/sockstat
// (one whole-system item). Layout: U64[0..5] = totsck, tcpsck, udpsck,
// rawsck, ip-frag, tcp-tw.
type networkSNMPReader struct {
	sockstatPath string
}

func newNetworkSNMPReader(procPath string) *networkSNMPReader {
	return &networkSNMPReader{sockstatPath: filepath.Join(procPath, "net", "sockstat")}
}

func (r *networkSNMPReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	return 1, true, nil
}

func (r *networkSNMPReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	f, err := os.Open(r.sockstatPath)
	if err != nil {
		return errOpen(r.sockstatPath, err)
	}
	defer f.Close()

	item := &buf.Curr()[0]
	item.Name = "system"

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		switch fields[0] {
		case "sockets:":
			item.U64[0] = sockstatValue(fields, "used")
		case "TCP:":
			item.U64[1] = sockstatValue(fields, "inuse")
			item.U64[5] = sockstatValue(fields, "tw")
		case "UDP:":
			item.U64[2] = sockstatValue(fields, "inuse")
		case "RAW:":
			item.U64[3] = sockstatValue(fields, "inuse")
		case "FRAG:":
			item.U64[4] = sockstatValue(fields, "inuse")
		}
	}
	return scanner.Err()
}

// sockstatValue finds the value following key in a sockstat line's
// alternating "key value" field pairs.
func sockstatValue(fields []string, key string) uint64 {
	for i := 1; i+1 < len(fields); i += 2 {
		if fields[i] == key {
			v, _ := strconv.ParseUint(fields[i+1], 10, 64)
			return v
		}
	}
	return 0
}
