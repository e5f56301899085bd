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

package localread

import (
	"fmt"

	"github.com/ajroetker/lrgen/isa"
	"github.com/ajroetker/lrgen/kernel"
)

// converter turns 8-bit floats read from LDS into packed halves.
type converter interface {
	// unpack converts the four values of src into dstLo (bytes 0-1) and
	// dstHi (bytes 2-3). src may alias dstLo.
	unpack(dstLo, dstHi, src isa.Operand) []isa.Item

	// inPlace converts the two values in the low word of reg.
	inPlace(reg isa.Operand) []isa.Item

	// single converts byte 0 of src into the low or high half of dst,
	// keeping the other half.
	single(dst, src isa.Operand, high bool) []isa.Item
}

func converterFor(caps kernel.Caps) converter {
	if caps.HasCvtF16FP8 {
		return scaledConverter{}
	}
	return viaF32Converter{}
}

// scaledConverter uses the one-step scaled converts.
type scaledConverter struct{}

func (scaledConverter) unpack(dstLo, dstHi, src isa.Operand) []isa.Item {
	return []isa.Item{
		isa.VCvtScalePkFP8toF16(dstHi, src, F8ToF16Scale, &isa.VOP3PModifiers{OpSel: [4]int{1, 0, 0, 0}}, "convert fp8 to f16"),
		isa.VCvtScalePkFP8toF16(dstLo, src, F8ToF16Scale, &isa.VOP3PModifiers{}, "convert fp8 to f16"),
	}
}

func (scaledConverter) inPlace(reg isa.Operand) []isa.Item {
	return []isa.Item{isa.VCvtScalePkFP8toF16(reg, reg, F8ToF16Scale, nil, "convert F8 to F16")}
}

func (scaledConverter) single(dst, src isa.Operand, high bool) []isa.Item {
	sel := [4]int{}
	if high {
		sel[2] = 1
	}
	return []isa.Item{isa.VCvtScaleFP8toF16(dst, src, F8ToF16Scale, &isa.VOP3PModifiers{OpSel: sel}, "convert fp8 to f16")}
}

// viaF32Converter widens to f32 and narrows each value into its half.
type viaF32Converter struct{}

func (c viaF32Converter) words(dst, src isa.Operand, word isa.SelectBit) []isa.Item {
	tmp := cvtTemp()
	return []isa.Item{
		isa.VCvtPkFP8toF32(tmp, src, &isa.SDWAModifiers{Src0Sel: word}, "convert to F32"),
		isa.VCvtF32toF16(dst, tmp.Reg(0), &isa.SDWAModifiers{DstSel: isa.SelWord0}, "Convert to FP16"),
		isa.VCvtF32toF16(dst, tmp.Reg(1), &isa.SDWAModifiers{DstSel: isa.SelWord1}, "Convert to FP16"),
	}
}

func (c viaF32Converter) unpack(dstLo, dstHi, src isa.Operand) []isa.Item {
	return append(c.words(dstHi, src, isa.SelWord1), c.words(dstLo, src, isa.SelWord0)...)
}

func (c viaF32Converter) inPlace(reg isa.Operand) []isa.Item {
	return c.words(reg, reg, isa.SelWord0)
}

func (viaF32Converter) single(dst, src isa.Operand, high bool) []isa.Item {
	sel := isa.SelWord0
	if high {
		sel = isa.SelWord1
	}
	return []isa.Item{
		isa.VCvtFP8toF32(src, src, &isa.SDWAModifiers{Src0Sel: isa.SelByte0}, ""),
		isa.VCvtF32toF16(dst, src, &isa.SDWAModifiers{DstSel: sel}, "Convert to FP16"),
	}
}

// convertUnrollMajor converts each register of an unroll-major read into
// two compute registers, last register first so sources are consumed
// before they are overwritten.
type convertUnrollMajor struct {
	planContext
	conv converter
}

func (p convertUnrollMajor) step(st *readStep, code *isa.Module) {
	st.highBitsForHalf, st.isHigh16Bits = false, false
	v := st.valuIdx()
	for i := range p.l.numVgpr {
		off := p.l.numVgpr - i - 1
		code.Add(p.conv.unpack(p.n.valu(v+2*off, 1), p.n.valu(v+1+2*off, 1), p.n.valu(v+off, 1))...)
	}
}

// convertTile1 reads one value per K index into its own staging register
// and converts it into alternating halves of the compute registers.
type convertTile1 struct {
	planContext
	conv converter
}

func (p convertTile1) step(st *readStep, code *isa.Module) {
	st.highBitsForHalf, st.isHigh16Bits = false, false
	cvtDst := p.n.valu(st.valuBytes/2, p.l.numVgpr)
	st.dest = cvtDst
	if st.rIdx != 0 {
		st.dest = p.n.stage(st.rIdx%4, st.valuIdx(), p.l.numVgpr)
	}
	code.Add(p.conv.single(cvtDst, st.dest, st.rIdx%2 == 1)...)
}

// convertTiled handles lrvwTile 2, 4 and 8: each read holds several tile
// positions of one K index. The values are split into half-register pairs,
// converted, and permuted into K order once the last K index is read.
type convertTiled struct {
	planContext
	conv converter

	// stride is the staging registers per read register: 1 for lrvwTile 2,
	// 2 when the read is split in halves first.
	stride int
}

func (p convertTiled) step(st *readStep, code *isa.Module) {
	l, n := p.l, p.n
	st.highBitsForHalf, st.isHigh16Bits = false, false
	st.dest = p.stageDest(st, p.stride)
	first := st.dest.First()

	switch l.lrvwTile {
	case 2:
		for i := range l.numVgpr {
			code.Add(p.conv.inPlace(first.Plus(i))...)
		}
	case 4:
		code.Add(isa.VLShiftRightB32(first.Plus(1), 16, first, "shift 2 element to vgpr+1"))
		code.Add(p.conv.inPlace(first)...)
		code.Add(p.conv.inPlace(first.Plus(1))...)
	case 8:
		code.Add(
			isa.VLShiftRightB32(first.Plus(3), 16, first.Plus(1), "shift 2 element to vgpr+3"),
			isa.VMovB32(first.Plus(2), first.Plus(1), nil, ""),
			isa.VLShiftRightB32(first.Plus(1), 16, first, "shift 2 element to vgpr+1"),
		)
		for i := range 4 {
			code.Add(p.conv.inPlace(first.Plus(i))...)
		}
	}

	if !p.lastRead(st) {
		return
	}
	bpe := l.t.BPE
	for i := range l.numVgpr * p.stride {
		vgprIdx := p.permuteIndex(st, i, p.stride, bpe)
		src := i + p.stride*st.vIdx*l.numVgpr
		off := 0
		for vectorIdx := range 2 {
			for e := range bpe * l.miInput / bytesPerReg {
				code.Add(isa.VPermB32(n.valu(vgprIdx+off, 1), n.stage(2*e+1, src, 1), n.stage(2*e, src, 1), packMask("", vectorIdx),
					fmt.Sprintf("select K=%d%d for vector=%d", 2*e, 2*e+1, vectorIdx)))
				off++
			}
		}
	}
}
