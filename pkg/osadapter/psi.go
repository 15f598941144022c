// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package osadapter

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"path/filepath"

	"github.com/sysstatgo/satop/pkg/activity"
)

// psiReader reads the kernel's pressure-stall-information files,
// /proc/pressure/{cpu,io}, one whole-system item. Each file's "some"
// line carries avg10/avg60/avg300 as percentages with two decimal
// places; values are stored scaled by 100 (hundredths of a percent) so
// the U32 layout can hold them without floating point. Layout: U32[0..2]
// = cpu avg10/avg60/avg300, U32[3] = cpu avg300 again (the "%scpu" total
// column), U32[4..5] = io avg10/avg60.
type psiReader struct {
	cpuPath string
	ioPath  string
}

func newPSIReader(procPath string) *psiReader {
	return &psiReader{
		cpuPath: filepath.Join(procPath, "pressure", "cpu"),
		ioPath:  filepath.Join(procPath, "pressure", "io"),
	}
}

func (r *psiReader) available() bool {
	_, err := os.Stat(r.cpuPath)
	return err == nil
}

func (r *psiReader) CountItems(desc *activity.Descriptor) (int, bool, error) {
	if !r.available() {
		return 0, false, nil
	}
	return 1, true, nil
}

func (r *psiReader) Read(desc *activity.Descriptor, buf *activity.Buffer) error {
	item := &buf.Curr()[0]
	item.Name = "system"

	cpuAvg, err := readPSISomeLine(r.cpuPath)
	if err != nil {
		return err
	}
	ioAvg, err := readPSISomeLine(r.ioPath)
	if err != nil {
		return err
	}

	item.U32[0] = scalePct(cpuAvg[0])
	item.U32[1] = scalePct(cpuAvg[1])
	item.U32[2] = scalePct(cpuAvg[2])
	item.U32[3] = scalePct(cpuAvg[2])
	item.U32[4] = scalePct(ioAvg[0])
	item.U32[5] = scalePct(ioAvg[1])
	return nil
}

func scalePct(v float64) uint32 { return uint32(v * 100) }

// readPSISomeLine returns [avg10, avg60, avg300] parsed off a PSI file's
// "some avg10=X avg60=Y avg300=Z total=..." line.
func readPSISomeLine(path string) ([3]float64, error) {
	var avg [3]float64
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return avg, nil
		}
		return avg, errOpen(path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "some" {
			continue
		}
		for _, tok := range fields[1:] {
			kv := strings.SplitN(tok, "=", 2)
			if len(kv) != 2 {
				continue
			}
			v, err := strconv.ParseFloat(kv[1], 64)
			if err != nil {
				continue
			}
			switch kv[0] {
			case "avg10":
				avg[0] = v
			case "avg60":
				avg[1] = v
			case "avg300":
				avg[2] = v
			}
		}
	}
	return avg, scanner.Err()
}
