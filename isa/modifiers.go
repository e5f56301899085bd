// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package isa

import (
	"fmt"
	"strings"
)

// MaxDSOffset is the largest byte offset the 16-bit DS offset field encodes.
const MaxDSOffset = 1<<16 - 1

// DSModifiers carries the immediate offsets of a DS instruction. Offsets are
// byte offsets from the address register.
type DSModifiers struct {
	// NumOffsets is 1 for single-address forms and 2 for read2 forms.
	NumOffsets int
	Offset     int
	Offset0    int
	Offset1    int
}

// DS1 returns single-offset modifiers.
func DS1(offset int) *DSModifiers {
	return &DSModifiers{NumOffsets: 1, Offset: offset}
}

// DS2 returns dual-offset modifiers.
func DS2(offset0, offset1 int) *DSModifiers {
	return &DSModifiers{NumOffsets: 2, Offset0: offset0, Offset1: offset1}
}

// Offsets returns the offsets in address order.
func (d *DSModifiers) Offsets() []int {
	if d == nil {
		return nil
	}
	if d.NumOffsets == 2 {
		return []int{d.Offset0, d.Offset1}
	}
	return []int{d.Offset}
}

func (d *DSModifiers) String() string {
	switch d.NumOffsets {
	case 1:
		return fmt.Sprintf(" offset:%d", d.Offset)
	case 2:
		return fmt.Sprintf(" offset0:%d offset1:%d", d.Offset0, d.Offset1)
	}
	return ""
}

// SelectBit selects a sub-dword field for SDWA operands.
type SelectBit int

const (
	SelNone SelectBit = iota
	SelByte0
	SelByte1
	SelByte2
	SelByte3
	SelWord0
	SelWord1
	SelDword
)

func (s SelectBit) String() string {
	switch s {
	case SelByte0:
		return "BYTE_0"
	case SelByte1:
		return "BYTE_1"
	case SelByte2:
		return "BYTE_2"
	case SelByte3:
		return "BYTE_3"
	case SelWord0:
		return "WORD_0"
	case SelWord1:
		return "WORD_1"
	case SelDword:
		return "DWORD"
	}
	return ""
}

// Field returns the bit shift and mask of the selected field.
func (s SelectBit) Field() (shift uint, mask uint32) {
	switch s {
	case SelByte0, SelByte1, SelByte2, SelByte3:
		return uint(s-SelByte0) * 8, 0xFF
	case SelWord0:
		return 0, 0xFFFF
	case SelWord1:
		return 16, 0xFFFF
	}
	return 0, 0xFFFFFFFF
}

// SDWAModifiers selects sub-dword fields of the destination and first
// source. Unselected destination bits are preserved.
type SDWAModifiers struct {
	DstSel  SelectBit
	Src0Sel SelectBit
}

func (m *SDWAModifiers) String() string {
	var sb strings.Builder
	if m.DstSel != SelNone {
		sb.WriteString(" dst_sel:" + m.DstSel.String() + " dst_unused:UNUSED_PRESERVE")
	}
	if m.Src0Sel != SelNone {
		sb.WriteString(" src0_sel:" + m.Src0Sel.String())
	}
	return sb.String()
}

// VOP3PModifiers carries op_sel bits.
type VOP3PModifiers struct {
	OpSel [4]int
}

func (m *VOP3PModifiers) String() string {
	return fmt.Sprintf(" op_sel:[%d,%d,%d,%d]", m.OpSel[0], m.OpSel[1], m.OpSel[2], m.OpSel[3])
}

// WaitCnt lists the counters an s_waitcnt waits on. Negative means "don't
// wait on this counter".
type WaitCnt struct {
	LGKM int
	VM   int
	VS   int
}

func (w *WaitCnt) String() string {
	var parts []string
	if w.LGKM >= 0 {
		parts = append(parts, fmt.Sprintf("lgkmcnt(%d)", w.LGKM))
	}
	if w.VM >= 0 {
		parts = append(parts, fmt.Sprintf("vmcnt(%d)", w.VM))
	}
	if w.VS >= 0 {
		parts = append(parts, fmt.Sprintf("vscnt(%d)", w.VS))
	}
	return strings.Join(parts, " ")
}
