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

// readStep is one matrix-instruction read as seen by the pack planner.
// The planner may redirect dest to a staging register and clear the
// upper-half flags before the read is emitted.
type readStep struct {
	vIdx, eIdx, rIdx int

	// valuBytes is the position in the compute pool, in bytes, before
	// this read.
	valuBytes int

	// base is the compute register at valuBytes, numVgpr wide.
	base isa.Operand
	dest isa.Operand

	highBitsForHalf bool
	isHigh16Bits    bool
}

func (st *readStep) valuIdx() int { return st.valuBytes / bytesPerReg }

// packer is a packing plan. It is chosen once per generation call and
// called for every read in order; it appends to the pack module of the
// current (vector, element) group.
type packer interface {
	step(st *readStep, code *isa.Module)
}

type planContext struct {
	l *layout
	n regNames
}

func (p planContext) lastRead(st *readStep) bool {
	return st.rIdx == p.l.numReadsPerUnroll-1
}

// stageDest is the staging register of read rIdx used by the tiled plans:
// one pool per K index, vectors side by side.
func (p planContext) stageDest(st *readStep, stride int) isa.Operand {
	return p.n.stage(st.rIdx%p.l.miInput, stride*st.vIdx*p.l.numVgpr, p.l.numVgpr)
}

// noPack leaves reads in place.
type noPack struct{}

func (noPack) step(*readStep, *isa.Module) {}

// planFor selects the packing plan of l.
func planFor(l *layout, n regNames) (packer, error) {
	if !l.needPack && l.numSplitMetadata == 0 {
		return noPack{}, nil
	}
	p := planContext{l: l, n: n}
	cfg, t := l.cfg, l.t

	if l.convert {
		conv := converterFor(cfg.Caps)
		switch {
		case l.op.UnrollMajorLDS:
			return convertUnrollMajor{p, conv}, nil
		case t.IsM():
			return nil, fmt.Errorf("%w: converting metadata after LDS read", ErrUnsupported)
		}
		switch l.lrvwTile {
		case 1:
			return convertTile1{p, conv}, nil
		case 2:
			return convertTiled{p, conv, 1}, nil
		case 4, 8:
			return convertTiled{p, conv, 2}, nil
		}
		return nil, fmt.Errorf("%w: lrvwTile %d with conversion", ErrUnsupported, l.lrvwTile)
	}

	if l.lrvwTile > 1 {
		dt := cfg.DataType
		switch {
		case l.numSplitMetadata > 0:
			switch l.miInput {
			case 1, 2, 4:
			default:
				return nil, fmt.Errorf("%w: metadata split with MIInputPerThread %d", ErrUnsupported, l.miInput)
			}
			prefix := ""
			if (dt.IsHalf() || dt.IsBFloat16()) && (cfg.A.LRVWTile > 1 || cfg.B.LRVWTile > 1) && cfg.Metadata.LRVWTile > 1 {
				prefix = "M"
			}
			return metadataSplit{p, prefix}, nil
		case t.IsM():
			return metadataPermute{p}, nil
		case dt.IsHalf() || dt.IsBFloat16() || cfg.MFMABF16_1K:
			return permute16{p}, nil
		case dt.IsInt8() || dt.Is8bitFloat():
			return permute8{p}, nil
		}
		return nil, fmt.Errorf("%w: lrvwTile %d for %s", ErrUnsupported, l.lrvwTile, dt)
	}

	switch {
	case t.IsM():
		return metadataPack{p}, nil
	case cfg.Caps.EccPack():
		return eccPack{p}, nil
	}
	return byteChain{p}, nil
}

// permuteIndex is the first compute register written from staging
// register i of vector vIdx. It reorders [tile][K][vector] staging data
// into [tile][vector][K].
func (p planContext) permuteIndex(st *readStep, i, stride, bpe int) int {
	l := p.l
	return (stride*st.vIdx*l.numVgpr + i) * bpe * l.miInput / bytesPerReg * min(bytesPerReg/bpe, l.vectorWidth)
}
