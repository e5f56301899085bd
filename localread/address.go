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

const (
	bytesPerReg = 4

	// windowSize is the reach of the DS offset field plus one.
	windowSize = 1 << 16
)

// layout holds the geometry of one operand's matrix-instruction reads. It
// is derived once per generation call.
type layout struct {
	cfg *kernel.Config
	op  *kernel.OperandConfig
	t   kernel.Tensor
	ri  kernel.ReadInstruction

	tile01     int
	numOffsets int

	// readBytes is the per-address read size; numVgpr its register count.
	readBytes int
	numVgpr   int

	// unrollBytes and tileBytes are the read extents along K and along the
	// tile dimension.
	unrollBytes int
	tileBytes   int

	waveShape    int
	tileStride   int
	unrollStride int

	numVectorsPerTile int
	numReadsPerVector int
	numReadsPerUnroll int

	lrvwTile          int
	miInput           int
	vectorWidth       int
	numElementPerRead int
	inputPerThread    int

	convert          bool
	needPack         bool
	numSplitMetadata int

	// Structured sparsity blocks, only meaningful when smfmaBlocks > 1.
	smfmaBlocks           int
	smfmaElementsPerBlock int
	smfmaBlockOffset      int
}

func newLayout(cfg *kernel.Config, t kernel.Tensor) *layout {
	op := cfg.Operand(t.Kind)
	ri := t.Instruction
	l := &layout{
		cfg:         cfg,
		op:          op,
		t:           t,
		ri:          ri,
		tile01:      t.Tile01,
		numOffsets:  ri.NumOffsets,
		readBytes:   ri.Bytes,
		numVgpr:     ri.NumVgpr(),
		lrvwTile:    op.LRVWTile,
		miInput:     op.MIInputPerThread,
		vectorWidth: op.VectorWidth,
		waveShape:   cfg.WaveGroupShape()[t.Tile01],
	}

	if op.UnrollMajorLDS {
		l.unrollBytes, l.tileBytes = ri.Bytes, t.BPEDS
	} else {
		l.unrollBytes, l.tileBytes = t.BPEDS, ri.Bytes
	}

	pad := 0
	if op.LdsBlockSizePerPad == 0 {
		pad = op.LdsPad
	}
	l.tileStride, l.unrollStride = 1, op.MacroTile+pad
	if op.UnrollMajorLDS {
		l.tileStride, l.unrollStride = op.DepthU+pad, 1
	}

	l.numVectorsPerTile = cfg.MIWaveTile[t.Tile01] / l.vectorWidth
	l.numReadsPerVector = l.vectorWidth * t.BPEDS / l.tileBytes
	l.numReadsPerUnroll = ceilDiv(t.BPEDS*l.miInput, l.unrollBytes)

	if cfg.ConvertAfterDS {
		l.numElementPerRead = 1
	} else {
		l.numElementPerRead = ri.Bytes / t.BPE / l.lrvwTile
	}
	l.inputPerThread = cfg.LocalReadVectorWidth
	if cfg.InTailLoop {
		l.inputPerThread = l.miInput
	}

	l.convert = cfg.ConvertAfterDS && t.BPE != t.BPEDS
	if cfg.Caps.EccPack() {
		l.needPack = t.BPEDS < 4 && !op.UnrollMajorLDS && !t.IsM()
		if t.IsM() {
			wide := l.miInput*t.BPEDS > ri.Bytes
			narrowLRVW := cfg.DataType.NumBytes() == 1 && op.LRVWTile > 1
			l.needPack = l.needPack || wide || narrowLRVW
		}
	} else {
		l.needPack = ri.Bytes == 1
	}
	l.needPack = l.needPack || l.convert

	if t.IsM() {
		l.numSplitMetadata = max(ri.Bytes/t.BPEDS-1, 0)
	}

	l.smfmaBlocks, l.smfmaElementsPerBlock, l.smfmaBlockOffset = 1, 1, 1
	if cfg.Sparse != 0 && cfg.MIInputPerThread*cfg.DataTypeB.NumBytes() > 16 {
		sparseTrack := (cfg.Sparse == 1 && t.IsA()) || (cfg.Sparse == 2 && t.IsB()) || t.IsM()
		if !sparseTrack {
			l.smfmaBlocks = 2
			threadGroups := cfg.MatrixInst.K / cfg.MIInputPerThread
			l.smfmaElementsPerBlock = cfg.MIInputPerThread / l.smfmaBlocks
			blockStride := l.smfmaElementsPerBlock * threadGroups
			l.smfmaBlockOffset = blockStride - l.smfmaElementsPerBlock
		}
	}
	return l
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// doubleKIncrement is the extra element offset of reads in the upper half
// of the K range for 8-bit floats on instructions with K > 32. The values
// follow the hardware lane order of those instructions and are kept as a
// table per (M, LDS layout).
func (l *layout) doubleKIncrement(rIdx int) int {
	mid := l.numReadsPerUnroll / 2
	if rIdx < mid {
		return 0
	}
	m := l.cfg.MatrixInst.M
	if !l.op.UnrollMajorLDS {
		switch m {
		case 32:
			return mid * l.numElementPerRead * l.unrollStride
		case 16:
			return 3 * mid * l.numElementPerRead * l.unrollStride
		}
		return 0
	}
	switch m {
	case 32:
		return 16
	case 16:
		return 48
	}
	return 0
}

// offsets returns the raw LDS byte offset of every address of read
// (vIdx, eIdx, rIdx), before windowing.
func (l *layout) offsets(s *Session, vIdx, eIdx, rIdx int) []int {
	cfg, t, op := l.cfg, l.t, l.op
	out := make([]int, 0, l.numOffsets)
	for oIdx := range l.numOffsets {
		o := (eIdx + (vIdx*l.numOffsets+oIdx)*l.waveShape) * l.tileStride
		k := rIdx * l.numElementPerRead * l.unrollStride

		switch {
		case cfg.Sparse != 0:
			if l.smfmaBlocks > 1 {
				blockID := rIdx * l.numElementPerRead / l.smfmaElementsPerBlock
				if op.UnrollMajorLDS {
					o += l.smfmaBlockOffset * blockID
				} else {
					o += l.smfmaBlockOffset * blockID * l.unrollStride
				}
			}
		case cfg.DataType.Is8bitFloat() && cfg.MatrixInst.K > 32:
			k += l.doubleKIncrement(rIdx)
		}
		o = (k + o + t.LocalReadOffset) * t.BPEDS

		if op.LdsBlockSizePerPad != 0 && op.LdsPad != 0 {
			o += o / op.LdsBlockSizePerPad * op.LdsPad * t.BPEDS
		}
		o += t.SwapByteOffset
		if op.DirectToLds && op.GlobalReadVectorWidth*t.BPEDS > 4 {
			o = s.Converter.ConvertOffset(cfg, t, o)
		}
		out = append(out, o)
	}
	return out
}

// transposeOffsets returns the two offsets of transpose read tIdx.
func (l *layout) transposeOffsets(tIdx int) [2]int {
	o := (l.t.LocalReadOffset + l.waveShape*tIdx) * l.t.BPEDS
	if l.op.LdsBlockSizePerPad != 0 && l.op.LdsPad != 0 {
		o += o / l.op.LdsBlockSizePerPad * l.op.LdsPad * l.t.BPEDS
	}
	return [2]int{o, o + l.unrollStride*l.inputPerThread}
}

// Window splits a raw offset into the DS offset field value and the base
// address register slot for matrix-instruction reads. The address
// registers of slots 1 and 2 are 64 KiB and 128 KiB past slot 0.
func Window(o int) (reduced, slot int) {
	switch {
	case o >= 2*windowSize:
		return o - 2*windowSize, 2
	case o >= windowSize:
		return o - windowSize, 1
	}
	return o, 0
}

// WindowVALU splits a raw offset for vector-ALU reads, whose address
// registers are spaced every 64 KiB without limit.
func WindowVALU(o int) (reduced, slot int) {
	slot = o / windowSize
	return o - slot*windowSize, slot
}

// windowed applies window to the first offset and moves every offset of
// the read by the same amount. A reduced offset outside the DS offset field
// is an error.
func windowed(offsets []int, window func(int) (int, int)) ([]int, int, error) {
	reduced, slot := window(offsets[0])
	shift := offsets[0] - reduced
	out := make([]int, len(offsets))
	for i, o := range offsets {
		out[i] = o - shift
		if out[i] < 0 || out[i] > isa.MaxDSOffset {
			return nil, 0, fmt.Errorf("%w: offset %d is %d past base slot %d", ErrOffsetRange, o, out[i], slot)
		}
	}
	return out, slot, nil
}
