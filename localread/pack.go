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
)

// permute16 interleaves 16-bit staging data read with lrvwTile > 1. Each
// staging pool holds one K index for several tile positions; the last read
// of the unroll selects matching halves into K-ordered compute registers.
type permute16 struct{ planContext }

func (p permute16) step(st *readStep, code *isa.Module) {
	l, n := p.l, p.n
	st.highBitsForHalf, st.isHigh16Bits = false, false
	st.dest = p.stageDest(st, 1)
	if !p.lastRead(st) {
		return
	}
	bpe := l.t.BPE
	perReg := bytesPerReg / bpe
	for i := range l.numVgpr {
		vgprIdx := p.permuteIndex(st, i, 1, l.t.BPEDS)
		src := i + st.vIdx*l.numVgpr
		off := 0
		for vectorIdx := range perReg {
			for e := range bpe * l.miInput / bytesPerReg {
				k := e * perReg
				code.Add(isa.VPermB32(n.valu(vgprIdx+off, 1), n.stage(k+1, src, 1), n.stage(k, src, 1), packMask("", vectorIdx),
					fmt.Sprintf("select K=%d%d for vector=%d", k, k+1, vectorIdx)))
				off++
			}
		}
	}
}

// permute8 is permute16 for 8-bit data: two selects gather four K values
// into two half registers which are then merged.
type permute8 struct{ planContext }

func (p permute8) step(st *readStep, code *isa.Module) {
	l, n := p.l, p.n
	st.highBitsForHalf, st.isHigh16Bits = false, false
	st.dest = p.stageDest(st, 1)
	if !p.lastRead(st) {
		return
	}
	bpe := l.t.BPE
	perReg := bytesPerReg / bpe
	tmp := packTemp()
	for i := range l.numVgpr {
		vgprIdx := p.permuteIndex(st, i, 1, l.t.BPEDS)
		src := i + st.vIdx*l.numVgpr
		off := 0
		for vectorIdx := range perReg {
			if l.vectorWidth <= 2 && vectorIdx > 1 {
				break
			}
			mask := packMask("", vectorIdx)
			for e := range bpe * l.miInput / bytesPerReg {
				dst := n.valu(vgprIdx+off, 1)
				k := e * perReg
				code.Add(
					isa.VPermB32(dst, n.stage(k+1, src, 1), n.stage(k, src, 1), mask,
						fmt.Sprintf("select K=%d%d for vector=%d", k, k+1, vectorIdx)),
					isa.VPermB32(tmp, n.stage(k+3, src, 1), n.stage(k+2, src, 1), mask,
						fmt.Sprintf("select K=%d%d for vector=%d", k+2, k+3, vectorIdx)),
					isa.VLShiftLeftOrB32(dst, tmp, 16, dst, "pack two half Vgpr to one Vgpr"),
				)
				off++
			}
		}
	}
}

// mergeHigh16 places the upper halfword in high into base. Targets whose
// d16_hi reads clobber the low half shift it into place; the others already
// hold it in the upper half.
func (p planContext) mergeHigh16(base, high isa.Operand) *isa.Instruction {
	if p.l.cfg.Caps.DSLow16NotPreserve {
		return isa.VLShiftLeftOrB32(base, high, 16, base, "pack two half Vgpr to one Vgpr")
	}
	return isa.VOrB32(base, base, high, "pack two half Vgpr to one Vgpr")
}

// eccPack reads upper halves and odd bytes into staging registers and
// merges them into the compute register, for targets whose sub-dword reads
// do not preserve the rest of the destination.
type eccPack struct{ planContext }

func (p eccPack) step(st *readStep, code *isa.Module) {
	l, n := p.l, p.n
	bytes := l.readBytes
	isHigh8 := bytes == 1 && (st.rIdx%4)%2 == 1
	v := st.valuIdx()

	if st.highBitsForHalf {
		high := n.stage(st.rIdx%2, v, l.numVgpr)
		code.Add(p.mergeHigh16(st.base, high))
		st.dest = high
	}
	if st.rIdx == 0 || !(isHigh8 || st.isHigh16Bits) {
		return
	}
	high := n.stage(st.rIdx%4, v, l.numVgpr)
	st.dest = high
	if !isHigh8 {
		return
	}
	low := st.base
	if st.isHigh16Bits {
		low = n.stage(st.rIdx%4-1, v, l.numVgpr)
	}
	code.Add(isa.VLShiftLeftOrB32(low, high, 8, low, "pack two int8 Vgpr to one half Vgpr"))
	if st.isHigh16Bits {
		code.Add(p.mergeHigh16(st.base, low))
	}
}

// byteChain is the non-ECC 8-bit pack: byte pairs are built with the
// upper-half reads and odd bytes are shifted in from staging.
type byteChain struct{ planContext }

func (p byteChain) step(st *readStep, code *isa.Module) {
	l, n := p.l, p.n
	isHigh8 := l.readBytes == 1 && (st.rIdx%4)%2 == 1
	if st.rIdx == 0 || !isHigh8 {
		return
	}
	high := n.stage(st.rIdx%2, st.valuIdx(), l.numVgpr)
	st.dest = high
	if st.isHigh16Bits {
		code.Add(isa.VLShiftLeftOrB32(st.base, high, 8, st.base, "pack two int8x2 Vgpr to one Vgpr"))
	}
}
