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
	"github.com/ajroetker/lrgen/numeric"
)

// checker emits the debug value checks that follow each read when a kernel
// is built with CheckValue. The checks assume the operand was filled with
// ones, so every element read must decode to 1.
type checker struct {
	s  *Session
	dt numeric.DataType
}

// withTemp runs fn with a scratch SGPR held for its duration.
func (c checker) withTemp(fn func(tmp isa.Operand)) error {
	g, err := c.s.Pool.Acquire(1)
	if err != nil {
		return fmt.Errorf("debug check: %w", err)
	}
	defer g.Release()
	fn(g.Operand())
	return nil
}

func (c checker) expect(code *isa.Module, dst, tmp isa.Operand, value uint32, comment string) {
	code.Add(isa.SMovB32(tmp, isa.Imm(value), comment), c.s.Asserter.AssertEq(dst, tmp))
}

func label16(dt numeric.DataType) string {
	if dt.IsBFloat16() {
		return "CheckValue1: BF16"
	}
	return "CheckValue1: FP16"
}

// mfma checks one matrix-instruction read into dst. Packed reads hold a
// single element, in the half selected by the read flags.
func (c checker) mfma(code *isa.Module, dst isa.Operand, needPack bool, st *readStep) error {
	dst = dst.First()
	return c.withTemp(func(tmp isa.Operand) {
		code.Add(isa.SWaitCnt(0, -1, 0, "CheckValue1 wait for LDS read"))
		if c.dt.IsHalf() || c.dt.IsBFloat16() {
			v := numeric.OnesPattern(c.dt)
			if needPack {
				v = numeric.OnesHalfword(c.dt, st.highBitsForHalf)
			}
			c.expect(code, dst, tmp, v, label16(c.dt))
		}
		switch {
		case c.dt.IsInt8():
			if needPack {
				c.expect(code, dst, tmp, numeric.OnesHalfword(c.dt, st.isHigh16Bits), "CheckValue1: INT8")
			}
		case c.dt.IsInt8x4():
			c.expect(code, dst, tmp, numeric.OnesPattern(c.dt), "CheckValue1: INT8x4")
		case c.dt.IsSingle():
			code.Add(c.s.Asserter.AssertEq(dst, isa.ImmFloat(1)))
		}
	})
}

// valu checks one vector-ALU read into dst. These reads are never packed.
func (c checker) valu(code *isa.Module, dst isa.Operand, separateVscnt bool) error {
	dst = dst.First()
	return c.withTemp(func(tmp isa.Operand) {
		code.Add(isa.SWaitCnt(0, -1, -1, "CheckValue1 wait for lds read"))
		if separateVscnt {
			code.Add(isa.SWaitCnt(-1, 0, 0, ""))
		}
		if c.dt.IsHalf() || c.dt.IsBFloat16() {
			c.expect(code, dst, tmp, numeric.OnesPattern(c.dt), label16(c.dt))
		}
		switch {
		case c.dt.IsInt8():
			c.expect(code, dst, tmp, numeric.OnesPattern(c.dt), "CheckValue1: INT8")
		case c.dt.IsInt8x4():
			code.Add(c.s.Asserter.AssertEq(dst, isa.Imm(1)))
		case c.dt.IsSingle():
			code.Add(c.s.Asserter.AssertEq(dst, isa.ImmFloat(1)))
		}
	})
}
