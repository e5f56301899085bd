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

// valuGenerator emits reads for kernels computing on the vector ALU,
// including the dot2 variant. Reads land directly in compute registers, so
// the pack module is always empty.
type valuGenerator struct {
	cfg *kernel.Config
}

// valuShape is the read loop geometry of one operand.
type valuShape struct {
	numVectors int
	numReads   int
	stride     int
}

func (g *valuGenerator) shape(t kernel.Tensor) valuShape {
	cfg := g.cfg
	op := cfg.Operand(t.Kind)
	bytes := t.Instruction.Bytes
	if cfg.UseDotInstruction {
		// dot2 reads unroll-major LDS only.
		stride := 1
		if op.UnrollMajorLDS {
			pad := 0
			if op.LdsBlockSizePerPad == 0 {
				pad = op.LdsPad
			}
			stride = op.DepthU + pad
		}
		return valuShape{
			numVectors: cfg.ThreadTile[t.Tile01],
			numReads:   cfg.LRVWUnrollA * t.BPE / bytes,
			stride:     stride,
		}
	}
	vw := cfg.A.VectorWidth
	return valuShape{
		numVectors: cfg.ThreadTile[t.Tile01] / vw,
		numReads:   vw * t.BPE / bytes,
		stride:     vw,
	}
}

func (g *valuGenerator) generate(s *Session, bufferIdx, iui int, t kernel.Tensor) (Result, error) {
	cfg := g.cfg
	tc := t.Char()
	res := Result{
		Read: isa.NewModule(fmt.Sprintf("LocalReadDo%s_I%d", tc, iui)),
		Pack: isa.NewModule(fmt.Sprintf("pack%s_I%d", tc, iui)),
	}
	n := regNames{tc: tc, bufferIdx: bufferIdx, iui: iui}
	ri := t.Instruction
	sh := g.shape(t)
	chk := checker{s: s, dt: cfg.DataType}
	width := ri.NumVgpr() * ri.NumOffsets

	valuBytes := 0
	for vIdx := range ceilDiv(sh.numVectors, ri.NumOffsets) {
		for rIdx := range sh.numReads {
			code := res.Read.AddModule(fmt.Sprintf("LocalRead%s Valu%d", tc, valuBytes/bytesPerReg))
			raw := make([]int, ri.NumOffsets)
			for oIdx := range raw {
				x := (cfg.SubGroup[t.Tile01]*(vIdx*ri.NumOffsets+oIdx)*sh.stride+t.LocalReadOffset)*t.BPE + t.SwapByteOffset
				raw[oIdx] = (rIdx*ri.Bytes*t.BPE + bytesPerReg*x) / bytesPerReg
			}
			offsets, slot, err := windowed(raw, WindowVALU)
			if err != nil {
				return Result{}, fmt.Errorf("%s read v%d r%d: %w", t.Kind, vIdx, rIdx, err)
			}
			dst := n.valu(valuBytes/bytesPerReg, width)
			code.Add(selectRead(ri, t, dst, slot, offsets, false, ""))
			valuBytes += ri.Bytes * ri.NumOffsets

			if cfg.Operand(t.Kind).CheckValue {
				if err := chk.valu(code, dst, cfg.Caps.SeparateVscnt); err != nil {
					return Result{}, err
				}
			}
		}
	}
	return res, nil
}
