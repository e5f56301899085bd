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

// Package sim executes the instruction subset emitted by the local-read
// generator against a byte-addressed LDS image and a symbolic register file,
// one lane at a time. It exists to check that generated read and pack
// sequences leave compute registers holding the expected bytes.
//
// DS offsets are byte offsets relative to the address register. Registers
// that were never written read as zero.
package sim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ajroetker/lrgen/isa"
	"github.com/ajroetker/lrgen/numeric"
)

var (
	// ErrUnsupported is returned for opcodes the simulator does not model.
	ErrUnsupported = errors.New("unsupported instruction")

	// ErrAssertion is returned by Exec for a failed assert_eq when no
	// Reporter is installed.
	ErrAssertion = errors.New("assertion failed")

	// ErrLDSBounds is returned for reads outside the LDS image.
	ErrLDSBounds = errors.New("LDS access out of bounds")
)

// Reporter receives assertion failures. *testing.T satisfies it.
type Reporter interface {
	Errorf(format string, args ...any)
}

// Options control hardware behavior that differs between targets.
type Options struct {
	// Preserve16 keeps the low half of the destination on d16_hi reads.
	// Without it the low half is cleared, as on ECC-half targets.
	Preserve16 bool

	// Float8 selects the 8-bit float decoding of the fp8 converts.
	// Defaults to numeric.FP8.
	Float8 numeric.DataType

	Reporter Reporter
}

type regKey struct {
	space isa.Space
	pool  string
	index int
}

// Machine is one lane of a wave plus its view of LDS.
type Machine struct {
	LDS  []byte
	opts Options
	regs map[regKey]uint32

	// Failures lists the messages of failed assertions.
	Failures []string

	// Executed counts instructions run.
	Executed int
}

// New returns a machine over lds. The slice is used directly.
func New(lds []byte, opts Options) *Machine {
	if opts.Float8 == numeric.Invalid {
		opts.Float8 = numeric.FP8
	}
	return &Machine{LDS: lds, opts: opts, regs: make(map[regKey]uint32)}
}

func key(op isa.Operand, i int) regKey {
	return regKey{space: op.Space, pool: op.Pool, index: op.Index + i}
}

// Set writes v to the first register of op.
func (m *Machine) Set(op isa.Operand, v uint32) {
	m.regs[key(op, 0)] = v
}

// Reg returns the first register of op, or the immediate value.
func (m *Machine) Reg(op isa.Operand) uint32 {
	if op.Space == isa.SpaceImm {
		return op.Bits
	}
	return m.regs[key(op, 0)]
}

// Regs returns the op.Width registers of op.
func (m *Machine) Regs(op isa.Operand) []uint32 {
	out := make([]uint32, op.Width)
	for i := range out {
		out[i] = m.regs[key(op, i)]
	}
	return out
}

func (m *Machine) write(op isa.Operand, i int, v uint32) {
	m.regs[key(op, i)] = v
}

// Run executes every instruction of mod in order.
func (m *Machine) Run(mod *isa.Module) error {
	for _, inst := range mod.Flatten() {
		if err := m.Exec(inst); err != nil {
			return err
		}
	}
	return nil
}

// Exec executes one instruction.
func (m *Machine) Exec(inst *isa.Instruction) error {
	m.Executed++
	if inst.Op.ReadBytes() > 0 {
		return m.dsRead(inst)
	}
	switch inst.Op {
	case isa.OpVPermB32:
		m.write(inst.Dst[0], 0, perm(m.Reg(inst.Src[0]), m.Reg(inst.Src[1]), m.Reg(inst.Src[2])))
	case isa.OpVLShiftLeftOrB32:
		m.write(inst.Dst[0], 0, m.Reg(inst.Src[0])<<(m.Reg(inst.Src[1])&31)|m.Reg(inst.Src[2]))
	case isa.OpVLShiftRightB32:
		m.write(inst.Dst[0], 0, m.Reg(inst.Src[1])>>(m.Reg(inst.Src[0])&31))
	case isa.OpVOrB32:
		m.write(inst.Dst[0], 0, m.Reg(inst.Src[0])|m.Reg(inst.Src[1]))
	case isa.OpVMovB32:
		v := m.Reg(inst.Src[0])
		if inst.SDWA != nil {
			v = selectField(v, inst.SDWA.Src0Sel)
			v = insertField(m.Reg(inst.Dst[0]), v, inst.SDWA.DstSel)
		}
		m.write(inst.Dst[0], 0, v)
	case isa.OpVCvtPkFP8toF32:
		word := m.Reg(inst.Src[0])
		if inst.SDWA != nil {
			word = selectField(word, inst.SDWA.Src0Sel)
		}
		m.write(inst.Dst[0], 0, math.Float32bits(m.fp8(uint8(word))))
		m.write(inst.Dst[0], 1, math.Float32bits(m.fp8(uint8(word>>8))))
	case isa.OpVCvtFP8toF32:
		v := m.Reg(inst.Src[0])
		if inst.SDWA != nil {
			v = selectField(v, inst.SDWA.Src0Sel)
		}
		m.write(inst.Dst[0], 0, math.Float32bits(m.fp8(uint8(v))))
	case isa.OpVCvtF32toF16:
		h := uint32(numeric.HalfBits(math.Float32frombits(m.Reg(inst.Src[0]))))
		sel := isa.SelWord0
		if inst.SDWA != nil && inst.SDWA.DstSel != isa.SelNone {
			sel = inst.SDWA.DstSel
		}
		m.write(inst.Dst[0], 0, insertField(m.Reg(inst.Dst[0]), h, sel))
	case isa.OpVCvtScalePkFP8toF16:
		word := m.Reg(inst.Src[0])
		if opSel(inst, 0) {
			word >>= 16
		}
		scale := math.Float32frombits(m.Reg(inst.Src[1]))
		lo := uint32(numeric.HalfBits(m.fp8(uint8(word)) * scale))
		hi := uint32(numeric.HalfBits(m.fp8(uint8(word>>8)) * scale))
		m.write(inst.Dst[0], 0, hi<<16|lo)
	case isa.OpVCvtScaleFP8toF16:
		byteSel := 0
		if opSel(inst, 0) {
			byteSel |= 1
		}
		if opSel(inst, 1) {
			byteSel |= 2
		}
		scale := math.Float32frombits(m.Reg(inst.Src[1]))
		h := uint32(numeric.HalfBits(m.fp8(uint8(m.Reg(inst.Src[0])>>(8*byteSel))) * scale))
		sel := isa.SelWord0
		if opSel(inst, 2) {
			sel = isa.SelWord1
		}
		m.write(inst.Dst[0], 0, insertField(m.Reg(inst.Dst[0]), h, sel))
	case isa.OpSMovB32:
		m.write(inst.Dst[0], 0, m.Reg(inst.Src[0]))
	case isa.OpSWaitCnt:
	case isa.OpAssertEq:
		got, want := m.Reg(inst.Src[0]), m.Reg(inst.Src[1])
		if got != want {
			msg := fmt.Sprintf("assert_eq %s: got %#08x, want %#08x", inst.Src[0], got, want)
			m.Failures = append(m.Failures, msg)
			if m.opts.Reporter == nil {
				return fmt.Errorf("%w: %s", ErrAssertion, msg)
			}
			m.opts.Reporter.Errorf("%s", msg)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, inst.Op)
	}
	return nil
}

func opSel(inst *isa.Instruction, i int) bool {
	return inst.VOP3P != nil && inst.VOP3P.OpSel[i] != 0
}

func (m *Machine) fp8(b uint8) float32 {
	return numeric.Decode8bitFloat(m.opts.Float8, b)
}

func (m *Machine) load(addr, n int) ([]byte, error) {
	if addr < 0 || addr+n > len(m.LDS) {
		return nil, fmt.Errorf("%w: %d bytes at %d, LDS is %d bytes", ErrLDSBounds, n, addr, len(m.LDS))
	}
	return m.LDS[addr : addr+n], nil
}

func (m *Machine) dsRead(inst *isa.Instruction) error {
	if inst.Op == isa.OpDSReadB64TrB16 {
		return fmt.Errorf("%w: %s needs cross-lane state", ErrUnsupported, inst.Op)
	}
	dst := inst.Dst[0]
	base := int(m.Reg(inst.Src[0]))
	size := inst.Op.ReadBytes()
	offsets := inst.DS.Offsets()

	for oi, off := range offsets {
		b, err := m.load(base+off, size)
		if err != nil {
			return fmt.Errorf("%s: %w", inst.Op, err)
		}
		switch {
		case size >= 4:
			perRead := size / 4
			for r := range perRead {
				m.write(dst, oi*perRead+r, binary.LittleEndian.Uint32(b[4*r:]))
			}
		default:
			var v uint32
			if size == 1 {
				v = uint32(b[0])
			} else {
				v = uint32(binary.LittleEndian.Uint16(b))
			}
			if inst.Op.IsD16Hi() {
				low := uint32(0)
				if m.opts.Preserve16 {
					low = m.Reg(dst) & 0xFFFF
				}
				v = v<<16 | low
			}
			m.write(dst, 0, v)
		}
	}
	return nil
}

// perm implements v_perm_b32: selector bytes 0-3 pick bytes of src1, 4-7
// bytes of src0, 0x0c yields zero and 0x0d and above yield 0xff.
func perm(src0, src1, sel uint32) uint32 {
	combined := uint64(src0)<<32 | uint64(src1)
	var out uint32
	for i := range 4 {
		s := (sel >> (8 * i)) & 0xFF
		var b uint32
		switch {
		case s < 8:
			b = uint32(combined>>(8*s)) & 0xFF
		case s < 12:
			// Sign replication of bytes 1, 3, 5, 7.
			if combined>>(16*(s-8)+15)&1 != 0 {
				b = 0xFF
			}
		case s == 12:
			b = 0
		default:
			b = 0xFF
		}
		out |= b << (8 * i)
	}
	return out
}

func selectField(v uint32, sel isa.SelectBit) uint32 {
	shift, mask := sel.Field()
	return (v >> shift) & mask
}

// insertField writes v into the sel field of dst, preserving the other bits.
func insertField(dst, v uint32, sel isa.SelectBit) uint32 {
	shift, mask := sel.Field()
	return dst&^(mask<<shift) | (v&mask)<<shift
}
