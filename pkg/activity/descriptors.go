// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package activity

// magicBase is the schema-version floor every activity's Magic is offset
// from; bumping an activity's field layout bumps its own offset so an
// archive reader can detect an incompatible payload one activity at a
// time instead of invalidating the whole file.
const magicBase uint16 = 0x9f8a

// Descriptors returns the fixed, built-in activity table in archive/
// render order. Callers that need a subset build a Registry from a
// filtered copy of this slice; the slice itself is rebuilt fresh on each
// call so callers may freely mutate the Hooks of their own copies
// without affecting other registries.
func Descriptors() []*Descriptor {
	return []*Descriptor{
		cpuDescriptor(),
		pcswDescriptor(),
		interruptsDescriptor(),
		memoryDescriptor(),
		swapDescriptor(),
		diskDescriptor(),
		networkDescriptor(),
		networkSNMPDescriptor(),
		filesystemDescriptor(),
		fibreChannelDescriptor(),
		serialDescriptor(),
		powerDescriptor(),
		psiDescriptor(),
		kernelLogDescriptor(),
	}
}

func cpuDescriptor() *Descriptor {
	return &Descriptor{
		ID:        CPU,
		Magic:     magicBase + 1,
		Group:     GDefault,
		Flags:     Collected | Counted | AlwaysCounted | MultipleOutputs | GraphPerItem,
		Layout:    FieldWidth{U64: 6},
		HdrLine:   "CPU;%user;%nice;%system;%iowait;%steal;%idle",
		HasBitmap: true,
	}
}

func pcswDescriptor() *Descriptor {
	return &Descriptor{
		ID:      PCSW,
		Magic:   magicBase + 1,
		Group:   GDefault,
		Flags:   Collected,
		Layout:  FieldWidth{U64: 2},
		HdrLine: "proc/s;cswch/s",
	}
}

func interruptsDescriptor() *Descriptor {
	return &Descriptor{
		ID:        Interrupts,
		Magic:     magicBase + 1,
		Group:     GInt,
		Flags:     Collected,
		Layout:    FieldWidth{U64: 1},
		HdrLine:   "INTR;intr/s",
		HasBitmap: true,
	}
}

func memoryDescriptor() *Descriptor {
	return &Descriptor{
		ID:      Memory,
		Magic:   magicBase + 1,
		Group:   GDefault,
		Flags:   Collected,
		Layout:  FieldWidth{U64: 9, U32: 6},
		HdrLine: "kbmemfree;kbavail;kbmemused;%memused;kbbuffers;kbcached;kbcommit;%commit;kbactive;kbinact;kbdirty",
	}
}

func swapDescriptor() *Descriptor {
	return &Descriptor{
		ID:      Swap,
		Magic:   magicBase,
		Group:   GDefault,
		Flags:   Collected,
		Layout:  FieldWidth{U32: 2},
		HdrLine: "pswpin/s;pswpout/s",
	}
}

func diskDescriptor() *Descriptor {
	return &Descriptor{
		ID:        Disk,
		Magic:     magicBase + 2,
		Group:     GDisk,
		Flags:     Collected | Persistent,
		Layout:    FieldWidth{U64: 4, U32: 3},
		HdrLine:   "DEV;tps;rkB/s;wkB/s;dkB/s;areq-sz;aqu-sz;await;%util",
		HasBitmap: false,
	}
}

func networkDescriptor() *Descriptor {
	return &Descriptor{
		ID:      Network,
		Magic:   magicBase + 2,
		Group:   GDefault,
		Flags:   Collected | GraphPerItem,
		Layout:  FieldWidth{U64: 6, U32: 2},
		HdrLine: "IFACE;rxbyt/s;txbyt/s;rxpck/s;txpck/s;rxcmp/s;txcmp/s;rxmcst/s;%ifutil",
	}
}

func networkSNMPDescriptor() *Descriptor {
	return &Descriptor{
		ID:      NetworkSNMP,
		Magic:   magicBase,
		Group:   GSNMP,
		Flags:   Collected | CloseMarkup,
		Layout:  FieldWidth{U64: 6},
		HdrLine: "totsck;tcpsck;udpsck;rawsck;ip-frag;tcp-tw",
	}
}

func filesystemDescriptor() *Descriptor {
	return &Descriptor{
		ID:      Filesystem,
		Magic:   magicBase + 1,
		Group:   GXDisk,
		Flags:   Collected,
		Layout:  FieldWidth{U64: 4},
		HdrLine: "dentunusd;file-nr;inode-nr;pty-nr",
	}
}

func fibreChannelDescriptor() *Descriptor {
	return &Descriptor{
		ID:      FibreChannel,
		Magic:   magicBase,
		Group:   GXDisk,
		Flags:   Collected | Detected,
		Layout:  FieldWidth{U64: 4},
		HdrLine: "FCHOST;fch_rxf/s;fch_txf/s;fch_rxw/s;fch_txw/s",
	}
}

func serialDescriptor() *Descriptor {
	return &Descriptor{
		ID:      Serial,
		Magic:   magicBase + 1,
		Group:   GDefault,
		Flags:   Collected | Detected,
		Layout:  FieldWidth{U32: 6},
		HdrLine: "TTY;rcvin/s;txmtin/s;framerr/s;prtyerr/s;brk/s;ovrun/s",
	}
}

func powerDescriptor() *Descriptor {
	return &Descriptor{
		ID:      Power,
		Magic:   magicBase + 2,
		Group:   GPower,
		Flags:   Collected | Detected | CloseMarkup,
		Layout:  FieldWidth{U32: 1},
		HdrLine: "MHz",
	}
}

func psiDescriptor() *Descriptor {
	return &Descriptor{
		ID:      PSI,
		Magic:   magicBase + 1,
		Group:   GDefault,
		Flags:   Collected | Detected | CloseMarkup,
		Layout:  FieldWidth{U32: 6},
		HdrLine: "%scpu-10;%scpu-60;%scpu-300;%scpu;%sio-10;%sio-60",
	}
}

func kernelLogDescriptor() *Descriptor {
	return &Descriptor{
		ID:      KernelLog,
		Magic:   magicBase,
		Group:   GInt,
		Flags:   Collected | CloseMarkup,
		Layout:  FieldWidth{U64: 1},
		HdrLine: "KERNEL;facility;level;message",
	}
}
