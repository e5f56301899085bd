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

// Package isa models the subset of the AMDGPU instruction set emitted by the
// local-read generator: symbolic register operands, DS/SDWA/VOP3P
// modifiers, instructions, and nestable instruction sequences.
//
// Registers are symbolic. A VGPR operand names a pool ("ValuA_X0_I0"), an
// index into that pool and a width in registers; physical allocation happens
// in a later stage that resolves the ".set vgprValuA_X0_I0 N" symbols.
package isa

import (
	"fmt"
	"math"
	"strconv"
)

// Space is the register file an operand lives in.
type Space uint8

const (
	SpaceVGPR Space = iota
	SpaceSGPR
	SpaceImm
)

// String returns a human-readable name for the Space.
func (s Space) String() string {
	switch s {
	case SpaceVGPR:
		return "vgpr"
	case SpaceSGPR:
		return "sgpr"
	case SpaceImm:
		return "imm"
	default:
		return fmt.Sprintf("Space(%d)", s)
	}
}

// Operand is a symbolic register range or an immediate. It is a comparable
// value: two operands are equal iff they name the same registers.
type Operand struct {
	Space Space

	// Pool is the symbol the register range is relative to. An empty pool
	// means Index is an absolute register number (used for temporaries
	// handed out by the scoped pool).
	Pool string

	// Index is the offset of the first register within Pool.
	Index int

	// Width is the number of consecutive 32-bit registers.
	Width int

	// Bits holds the immediate value for SpaceImm.
	Bits uint32

	// Float renders an immediate as a float32 literal.
	Float bool
}

// VGPR returns a register range of width registers starting at pool+index.
// Widths below one register are rounded up, so a 0.5-register read still
// names one VGPR.
func VGPR(pool string, index, width int) Operand {
	return Operand{Space: SpaceVGPR, Pool: pool, Index: index, Width: max(width, 1)}
}

// SGPR returns a single named scalar register.
func SGPR(pool string, index int) Operand {
	return Operand{Space: SpaceSGPR, Pool: pool, Index: index, Width: 1}
}

// SGPRIndex returns an absolute scalar register, e.g. one handed out by a
// regpool guard.
func SGPRIndex(index int) Operand {
	return Operand{Space: SpaceSGPR, Index: index, Width: 1}
}

// Imm returns an integer immediate.
func Imm(bits uint32) Operand {
	return Operand{Space: SpaceImm, Bits: bits}
}

// ImmFloat returns a float32 immediate.
func ImmFloat(f float32) Operand {
	return Operand{Space: SpaceImm, Bits: math.Float32bits(f), Float: true}
}

// IsReg reports whether o names registers (as opposed to an immediate).
func (o Operand) IsReg() bool { return o.Space != SpaceImm }

// First returns the first register of the range.
func (o Operand) First() Operand {
	if o.IsReg() {
		o.Width = 1
	}
	return o
}

// Reg returns the i-th register of the range as a single-register operand.
func (o Operand) Reg(i int) Operand {
	o.Index += i
	o.Width = 1
	return o
}

// Plus shifts the range by n registers within its pool.
func (o Operand) Plus(n int) Operand {
	o.Index += n
	return o
}

// String renders the operand in assembler syntax.
func (o Operand) String() string {
	switch o.Space {
	case SpaceImm:
		if o.Float {
			return strconv.FormatFloat(float64(math.Float32frombits(o.Bits)), 'f', -1, 32) + renderFloatSuffix(o.Bits)
		}
		return fmt.Sprintf("0x%x", o.Bits)
	case SpaceSGPR:
		if o.Pool == "" {
			if o.Width > 1 {
				return fmt.Sprintf("s[%d:%d]", o.Index, o.Index+o.Width-1)
			}
			return fmt.Sprintf("s%d", o.Index)
		}
		return rangeString("s", "sgpr", o)
	default:
		if o.Pool == "" {
			if o.Width > 1 {
				return fmt.Sprintf("v[%d:%d]", o.Index, o.Index+o.Width-1)
			}
			return fmt.Sprintf("v%d", o.Index)
		}
		return rangeString("v", "vgpr", o)
	}
}

// renderFloatSuffix keeps integral float immediates unambiguous ("1.0").
func renderFloatSuffix(bits uint32) string {
	f := math.Float32frombits(bits)
	if f == float32(math.Trunc(float64(f))) && !math.IsInf(float64(f), 0) {
		return ".0"
	}
	return ""
}

func rangeString(prefix, symPrefix string, o Operand) string {
	first := fmt.Sprintf("%s%s+%d", symPrefix, o.Pool, o.Index)
	if o.Width <= 1 {
		return fmt.Sprintf("%s[%s]", prefix, first)
	}
	return fmt.Sprintf("%s[%s:%s+%d]", prefix, first, first, o.Width-1)
}
