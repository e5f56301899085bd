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

// Symbolic register pools. Their physical ranges are assigned by the
// kernel writer and the pack masks are initialized by its prologue.
const (
	PackTempPool = "PackTemp"
	CvtTempPool  = "CvtTemp"
	CvtPool      = "Cvt"
)

// F8ToF16Scale is the float32 1.0 scale of the scaled converts.
const F8ToF16Scale = 0x3f800000

// regNames builds the per-call register operands of one operand.
type regNames struct {
	tc        string
	bufferIdx int
	iui       int
}

// ValuPool is the name of the compute register pool of operand tc.
func ValuPool(tc string, bufferIdx, iui int) string {
	return fmt.Sprintf("Valu%s_X%d_I%d", tc, bufferIdx, iui)
}

// StagePool is the name of staging pool d of operand tc.
func StagePool(tc string, bufferIdx, iui, d int) string {
	return fmt.Sprintf("Valu%s_X%d_I%d_D%d", tc, bufferIdx, iui, d)
}

func (n regNames) valu(idx, width int) isa.Operand {
	return isa.VGPR(ValuPool(n.tc, n.bufferIdx, n.iui), idx, width)
}

func (n regNames) stage(d, idx, width int) isa.Operand {
	return isa.VGPR(StagePool(n.tc, n.bufferIdx, n.iui, d), idx, width)
}

func packTemp() isa.Operand { return isa.VGPR(PackTempPool, 0, 1) }

func cvtTemp() isa.Operand { return isa.VGPR(CvtTempPool, 0, 2) }

// packMask is the scalar holding the v_perm_b32 selector for vector v.
// The prefix is "M" when metadata packing shares the masks.
func packMask(prefix string, v int) isa.Operand {
	return isa.SGPR(fmt.Sprintf("PackKFor%sV%d", prefix, v), 0)
}

// PackMask returns the selector the kernel prologue loads into
// PackKForV<vector>. For 16-bit elements it selects the low (vector 0) or
// high (vector 1) halves of src1 and src0; for 8-bit elements it selects
// byte <vector> of src1 and src0 into the low half and zeroes the rest.
func PackMask(vector, bytesPerElem int) uint32 {
	if bytesPerElem == 1 {
		v := uint32(vector & 3)
		return 0x0c0c0000 | (4+v)<<8 | v
	}
	if vector&1 == 0 {
		return 0x05040100
	}
	return 0x07060302
}
