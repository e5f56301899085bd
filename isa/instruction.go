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
	"slices"
	"strings"
)

// Instruction is one emitted instruction. It is pure data: an opcode,
// operands, optional modifiers and an annotation for the listing.
type Instruction struct {
	Op  Opcode
	Dst []Operand
	Src []Operand

	DS    *DSModifiers
	SDWA  *SDWAModifiers
	VOP3P *VOP3PModifiers
	Wait  *WaitCnt

	Comment string
}

func (*Instruction) isItem() {}

// DSRead builds a DS read of dst from the address register addr.
func DSRead(op Opcode, dst, addr Operand, ds *DSModifiers, comment string) *Instruction {
	return &Instruction{Op: op, Dst: []Operand{dst}, Src: []Operand{addr}, DS: ds, Comment: comment}
}

// VPermB32 selects bytes of {src0, src1} into dst according to the selector
// in sel. Bytes 0-3 of the 64-bit pool come from src1, bytes 4-7 from src0.
func VPermB32(dst, src0, src1, sel Operand, comment string) *Instruction {
	return &Instruction{Op: OpVPermB32, Dst: []Operand{dst}, Src: []Operand{src0, src1, sel}, Comment: comment}
}

// VLShiftLeftOrB32 computes dst = (src0 << shift) | src1.
func VLShiftLeftOrB32(dst, src0 Operand, shift uint32, src1 Operand, comment string) *Instruction {
	return &Instruction{Op: OpVLShiftLeftOrB32, Dst: []Operand{dst}, Src: []Operand{src0, Imm(shift), src1}, Comment: comment}
}

// VLShiftRightB32 computes dst = src >> shift.
func VLShiftRightB32(dst Operand, shift uint32, src Operand, comment string) *Instruction {
	return &Instruction{Op: OpVLShiftRightB32, Dst: []Operand{dst}, Src: []Operand{Imm(shift), src}, Comment: comment}
}

// VOrB32 computes dst = src0 | src1.
func VOrB32(dst, src0, src1 Operand, comment string) *Instruction {
	return &Instruction{Op: OpVOrB32, Dst: []Operand{dst}, Src: []Operand{src0, src1}, Comment: comment}
}

// VMovB32 copies src to dst, optionally through SDWA field selects.
func VMovB32(dst, src Operand, sdwa *SDWAModifiers, comment string) *Instruction {
	return &Instruction{Op: OpVMovB32, Dst: []Operand{dst}, Src: []Operand{src}, SDWA: sdwa, Comment: comment}
}

// VCvtPkFP8toF32 widens the two 8-bit floats of the src0_sel word of src
// into the register pair dst.
func VCvtPkFP8toF32(dst, src Operand, sdwa *SDWAModifiers, comment string) *Instruction {
	return &Instruction{Op: OpVCvtPkFP8toF32, Dst: []Operand{dst}, Src: []Operand{src}, SDWA: sdwa, Comment: comment}
}

// VCvtFP8toF32 widens the src0_sel byte of src to a float32.
func VCvtFP8toF32(dst, src Operand, sdwa *SDWAModifiers, comment string) *Instruction {
	return &Instruction{Op: OpVCvtFP8toF32, Dst: []Operand{dst}, Src: []Operand{src}, SDWA: sdwa, Comment: comment}
}

// VCvtF32toF16 narrows a float32 into the dst_sel half of dst.
func VCvtF32toF16(dst, src Operand, sdwa *SDWAModifiers, comment string) *Instruction {
	return &Instruction{Op: OpVCvtF32toF16, Dst: []Operand{dst}, Src: []Operand{src}, SDWA: sdwa, Comment: comment}
}

// VCvtScaleFP8toF16 converts one scaled 8-bit float into one half of dst.
// op_sel[0:1] choose the source byte, op_sel[2] the destination half.
func VCvtScaleFP8toF16(dst, src Operand, scale uint32, vop3 *VOP3PModifiers, comment string) *Instruction {
	return &Instruction{Op: OpVCvtScaleFP8toF16, Dst: []Operand{dst}, Src: []Operand{src, Imm(scale)}, VOP3P: vop3, Comment: comment}
}

// VCvtScalePkFP8toF16 converts two scaled 8-bit floats (the op_sel[0] word
// of src) into a packed pair of halves.
func VCvtScalePkFP8toF16(dst, src Operand, scale uint32, vop3 *VOP3PModifiers, comment string) *Instruction {
	return &Instruction{Op: OpVCvtScalePkFP8toF16, Dst: []Operand{dst}, Src: []Operand{src, Imm(scale)}, VOP3P: vop3, Comment: comment}
}

// SMovB32 loads src into a scalar register.
func SMovB32(dst, src Operand, comment string) *Instruction {
	return &Instruction{Op: OpSMovB32, Dst: []Operand{dst}, Src: []Operand{src}, Comment: comment}
}

// SWaitCnt waits for the listed counters; pass a negative value to skip one.
func SWaitCnt(lgkm, vm, vs int, comment string) *Instruction {
	return &Instruction{Op: OpSWaitCnt, Wait: &WaitCnt{LGKM: lgkm, VM: vm, VS: vs}, Comment: comment}
}

// AssertEq checks at run time that a equals b and traps otherwise.
func AssertEq(a, b Operand, comment string) *Instruction {
	return &Instruction{Op: OpAssertEq, Src: []Operand{a, b}, Comment: comment}
}

// Equal reports whether two instructions are identical, annotation included.
func (i *Instruction) Equal(o *Instruction) bool {
	if i == nil || o == nil {
		return i == o
	}
	return i.Op == o.Op &&
		slices.Equal(i.Dst, o.Dst) &&
		slices.Equal(i.Src, o.Src) &&
		ptrEqual(i.DS, o.DS) &&
		ptrEqual(i.SDWA, o.SDWA) &&
		ptrEqual(i.VOP3P, o.VOP3P) &&
		ptrEqual(i.Wait, o.Wait) &&
		i.Comment == o.Comment
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// String renders the instruction as one line of assembly.
func (i *Instruction) String() string {
	var sb strings.Builder
	mnemonic := i.Op.String()
	if i.SDWA != nil && i.Op == OpVMovB32 {
		mnemonic += "_sdwa"
	}
	sb.WriteString(mnemonic)

	var ops []string
	for _, d := range i.Dst {
		ops = append(ops, d.String())
	}
	for _, s := range i.Src {
		ops = append(ops, s.String())
	}
	if len(ops) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(ops, ", "))
	}
	if i.Wait != nil {
		sb.WriteString(" ")
		sb.WriteString(i.Wait.String())
	}
	if i.DS != nil {
		sb.WriteString(i.DS.String())
	}
	if i.SDWA != nil {
		sb.WriteString(i.SDWA.String())
	}
	if i.VOP3P != nil {
		sb.WriteString(i.VOP3P.String())
	}
	if i.Comment != "" {
		sb.WriteString(" // ")
		sb.WriteString(i.Comment)
	}
	return sb.String()
}
