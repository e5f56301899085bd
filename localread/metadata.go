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

// Structured-sparsity metadata plans. Metadata reads always go to their own
// register (the compute position advances one register per read).

// metadataPack merges byte-wide metadata reads: pairs of bytes into a
// halfword and, with four inputs per thread, pairs of halfwords into a
// full register.
type metadataPack struct{ planContext }

func (p metadataPack) step(st *readStep, code *isa.Module) {
	l, n := p.l, p.n
	bytes := l.readBytes
	vf := st.valuIdx()
	isHigh8 := bytes == 1 && st.rIdx%2 == 1
	isHigh16 := bytes == 1 && st.rIdx%4 == 3 && l.miInput == 4

	if isHigh8 {
		code.Add(isa.VLShiftLeftOrB32(n.valu(vf/2, l.numVgpr), n.valu(vf, l.numVgpr), 8, n.valu(vf-1, l.numVgpr),
			"pack two int8 Vgpr to one half Vgpr"))
	}
	if isHigh16 {
		code.Add(isa.VLShiftLeftOrB32(n.valu(vf/4, l.numVgpr), n.valu(vf/2, l.numVgpr), 16, n.valu((vf-2)/2, l.numVgpr),
			"pack two int8x2 Vgpr to one Vgpr"))
	}
	// Metadata occupies one register per matrix instruction, so the reads
	// never need the upper-half forms.
	st.highBitsForHalf, st.isHigh16Bits = false, false
}

// metadataPermute gathers metadata read with lrvwTile > 1 into one
// register per vector.
type metadataPermute struct{ planContext }

func (p metadataPermute) step(st *readStep, code *isa.Module) {
	l, n := p.l, p.n
	st.highBitsForHalf, st.isHigh16Bits = false, false
	st.dest = p.stageDest(st, 1)
	if !p.lastRead(st) {
		return
	}
	for i := range l.numVgpr {
		vgprIdx := p.permuteIndex(st, i, 1, l.t.BPEDS)
		src := i + st.vIdx*l.numVgpr
		off := 0
		for e := range l.miInput {
			code.Add(isa.VPermB32(n.valu(vgprIdx+e+st.vIdx*2, 1), n.stage(off*2+1, src, 1), n.stage(off*2, src, 1), packMask("", e),
				fmt.Sprintf("select K=%d%d for vector=%d", off*2+1, off*2, e)))
			if e%2 == 1 {
				off++
			}
		}
	}
}

// metadataSplit spreads a read that covers several metadata registers into
// one compute register per matrix instruction.
type metadataSplit struct {
	planContext

	// prefix selects the mask set shared with 16-bit data permutes.
	prefix string
}

func (p metadataSplit) step(st *readStep, code *isa.Module) {
	l, n := p.l, p.n
	st.highBitsForHalf, st.isHigh16Bits = false, false
	st.dest = p.stageDest(st, 1)
	if !p.lastRead(st) {
		return
	}
	bpe := l.t.BPEDS
	tmp := packTemp()
	for i := range l.numVgpr {
		vgprIdx := (st.vIdx*l.numVgpr + i) * ceilDiv(bpe*l.miInput, bytesPerReg) * min(bytesPerReg/bpe, l.vectorWidth)
		src := i + st.vIdx*l.numVgpr
		bitShift := uint32(0)
		for e := range min(l.numSplitMetadata+1, bytesPerReg) {
			dst := n.valu(vgprIdx+e, 1)
			mask := packMask(p.prefix, e)
			switch l.miInput {
			case 4:
				code.Add(
					isa.VPermB32(dst, n.stage(1, src, 1), n.stage(0, src, 1), mask, fmt.Sprintf("select K=01 for vector=%d", e)),
					isa.VPermB32(tmp, n.stage(3, src, 1), n.stage(2, src, 1), mask, fmt.Sprintf("select K=23 for vector=%d", e)),
					isa.VLShiftLeftOrB32(dst, tmp, 16, dst, "pack two half Vgpr to one Vgpr"),
				)
			case 2:
				code.Add(isa.VPermB32(dst, n.stage(1, src, 1), n.stage(0, src, 1), mask, fmt.Sprintf("select K=01 for vector=%d", e)))
			case 1:
				comment := ""
				if bitShift != 0 {
					comment = fmt.Sprintf("another VGPR storing lshr %d-bit value %d %d", bitShift, vgprIdx, e)
				}
				code.Add(isa.VMovB32(dst, n.stage(st.rIdx%l.miInput, src, 1), nil, comment))
				if bitShift != 0 {
					code.Add(isa.VLShiftRightB32(dst, bitShift, dst, fmt.Sprintf("ValuMetadata Vpgr >> %d", bitShift)))
				}
				bitShift += 8
			}
		}
	}
}
