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

// mfmaGenerator emits reads feeding matrix instructions. Each call walks
// vectors, elements and K reads in that order and lets the operand's
// packing plan redirect and merge reads.
type mfmaGenerator struct {
	cfg *kernel.Config
}

func (g *mfmaGenerator) generate(s *Session, bufferIdx, iui int, t kernel.Tensor) (Result, error) {
	tc := t.Char()
	res := Result{
		Read: isa.NewModule(fmt.Sprintf("LocalReadDo%s_I%d", tc, iui)),
		Pack: isa.NewModule(fmt.Sprintf("pack%s_I%d", tc, iui)),
	}
	l := newLayout(g.cfg, t)
	n := regNames{tc: tc, bufferIdx: bufferIdx, iui: iui}

	var err error
	if t.EnableLDSTr {
		err = g.transpose(res.Read, l, n)
	} else {
		err = g.reads(s, res, l, n)
	}
	if err != nil {
		return Result{}, err
	}

	if g.cfg.UseF32XEmulation && g.cfg.EnableF32XEmulationLds && t.IsA() {
		res.Read.Add(tf32Emulation(t))
	}
	// Direct-to-VGPR operands are loaded straight from global memory. Only
	// their pack code is kept.
	if (t.IsA() || t.IsB()) && l.op.DirectToVgpr {
		res.Read = isa.NewModule(fmt.Sprintf("LocalReadDo%s_I%d (Empty)", tc, iui))
	}
	return res, nil
}

func (g *mfmaGenerator) reads(s *Session, res Result, l *layout, n regNames) error {
	plan, err := planFor(l, n)
	if err != nil {
		return err
	}
	t, caps := l.t, g.cfg.Caps
	chk := checker{s: s, dt: g.cfg.DataType}
	checking := l.op.CheckValue && !g.cfg.InTailLoop

	valuBytes := 0
	for vIdx := range l.numVectorsPerTile {
		for eIdx := range l.numReadsPerVector {
			code := res.Read.AddModule(fmt.Sprintf("LocalRead%s Valu%d", t.Char(), valuBytes/bytesPerReg))
			var packCode *isa.Module
			if l.needPack || l.numSplitMetadata > 0 {
				packCode = res.Pack.AddModule("packCode")
			}
			for rIdx := range l.numReadsPerUnroll {
				base := n.valu(valuBytes/bytesPerReg, l.numVgpr)
				st := &readStep{
					vIdx: vIdx, eIdx: eIdx, rIdx: rIdx,
					valuBytes:       valuBytes,
					base:            base,
					dest:            base,
					highBitsForHalf: l.readBytes == 2 && rIdx%2 == 1,
					isHigh16Bits:    l.readBytes == 1 && (rIdx%4)/2 == 1,
				}
				plan.step(st, packCode)
				valuBytes += l.advance()

				offsets, slot, err := windowed(l.offsets(s, vIdx, eIdx, rIdx), Window)
				if err != nil {
					return fmt.Errorf("%s read v%d e%d r%d: %w", t.Kind, vIdx, eIdx, rIdx, err)
				}
				comment := fmt.Sprintf("L -> Reg lro=%d swapByteOffset=%d ti=%d vIdx=%d eIdx=%d rIdx=%d oIdx=%d buffer=%d iui=%d",
					t.LocalReadOffset, t.SwapByteOffset, l.waveShape, vIdx, eIdx, rIdx, l.numOffsets-1, n.bufferIdx, n.iui)
				high := highVariant(caps, st.highBitsForHalf, st.isHigh16Bits)
				code.Add(selectRead(l.ri, t, st.dest, slot, offsets, high, comment))

				if checking {
					if err := chk.mfma(code, st.dest, l.needPack, st); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// advance is how far one read moves the compute register position, in
// bytes. Converted unroll-major reads expand to the compute width, and
// metadata reads take a register each.
func (l *layout) advance() int {
	switch {
	case l.t.IsM():
		return bytesPerReg
	case l.convert && l.op.UnrollMajorLDS:
		return l.readBytes * (l.t.BPE / l.t.BPEDS)
	}
	return l.readBytes
}

// transpose emits the transposing reads: two per matrix tile, each filling
// two registers, with no packing.
func (g *mfmaGenerator) transpose(read *isa.Module, l *layout, n regNames) error {
	t := l.t
	for tIdx := range g.cfg.MIWaveTile[l.tile01] {
		code := read.AddModule(fmt.Sprintf("LocalRead%s Valu%d", t.Char(), 4*tIdx))
		for i, o := range l.transposeOffsets(tIdx) {
			if o < 0 || o > isa.MaxDSOffset {
				return fmt.Errorf("%s transpose read %d: %w: offset %d", t.Kind, tIdx, ErrOffsetRange, o)
			}
			code.Add(isa.DSRead(l.ri.Inst(false), n.valu(4*tIdx+2*i, 2), t.AddressReg(0), isa.DS1(o), "LDS Transpose"))
		}
	}
	return nil
}

// tf32Emulation reloads four dwords of A and splits their halves across the
// first four compute registers for the split-precision float32 path.
func tf32Emulation(t kernel.Tensor) *isa.Module {
	m := isa.NewModule("TF32 Emulation read lds")
	op := t.Instruction.Inst(false)
	for k := range 4 {
		m.Add(isa.DSRead(op, isa.VGPR(CvtPool, k, 1), t.AddressReg(0), isa.DS1(256*k), ""))
	}
	m.Add(isa.SWaitCnt(0, -1, -1, "wait for lds read"))

	moves := []struct {
		dst, src       int
		dstSel, srcSel isa.SelectBit
	}{
		{0, 0, isa.SelWord1, isa.SelWord1},
		{1, 2, isa.SelWord1, isa.SelWord1},
		{2, 0, isa.SelWord1, isa.SelWord0},
		{3, 2, isa.SelWord1, isa.SelWord0},
		{0, 1, isa.SelWord0, isa.SelWord1},
		{1, 3, isa.SelWord0, isa.SelWord1},
		{2, 1, isa.SelWord0, isa.SelWord0},
		{3, 3, isa.SelWord0, isa.SelWord0},
	}
	valu := ValuPool("A", 0, 0)
	for _, mv := range moves {
		m.Add(isa.VMovB32(isa.VGPR(valu, mv.dst, 1), isa.VGPR(CvtPool, mv.src, 1),
			&isa.SDWAModifiers{DstSel: mv.dstSel, Src0Sel: mv.srcSel}, ""))
	}
	return m
}
