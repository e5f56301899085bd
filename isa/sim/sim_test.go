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

package sim

import (
	"fmt"
	"testing"

	"github.com/ajroetker/lrgen/isa"
	"github.com/ajroetker/lrgen/numeric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addr = isa.VGPR("LocalReadAddrA", 0, 1)
	v0   = isa.VGPR("V", 0, 1)
	v1   = isa.VGPR("V", 1, 1)
)

func ramp(n int) []byte {
	lds := make([]byte, n)
	for i := range lds {
		lds[i] = byte(i)
	}
	return lds
}

func TestDSReads(t *testing.T) {
	tests := []struct {
		name       string
		inst       *isa.Instruction
		preserve16 bool
		preset     uint32
		want       []uint32
	}{
		{"u8", isa.DSRead(isa.OpDSReadU8, v0, addr, isa.DS1(5), ""), false, 0xFFFFFFFF, []uint32{0x05}},
		{"u16", isa.DSRead(isa.OpDSReadU16, v0, addr, isa.DS1(4), ""), false, 0xFFFFFFFF, []uint32{0x0504}},
		{"u16 d16_hi clears low", isa.DSRead(isa.OpDSReadU16D16Hi, v0, addr, isa.DS1(4), ""), false, 0x1234, []uint32{0x05040000}},
		{"u16 d16_hi preserves low", isa.DSRead(isa.OpDSReadU16D16Hi, v0, addr, isa.DS1(4), ""), true, 0xAAAA1234, []uint32{0x05041234}},
		{"u8 d16_hi", isa.DSRead(isa.OpDSReadU8D16Hi, v0, addr, isa.DS1(9), ""), true, 0x0077, []uint32{0x00090077}},
		{"b32", isa.DSRead(isa.OpDSReadB32, v0, addr, isa.DS1(8), ""), false, 0, []uint32{0x0b0a0908}},
		{"b64", isa.DSRead(isa.OpDSReadB64, isa.VGPR("V", 0, 2), addr, isa.DS1(0), ""), false, 0, []uint32{0x03020100, 0x07060504}},
		{"read2 b32", isa.DSRead(isa.OpDSRead2B32, isa.VGPR("V", 0, 2), addr, isa.DS2(0, 16), ""), false, 0, []uint32{0x03020100, 0x13121110}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(ramp(64), Options{Preserve16: tt.preserve16})
			m.Set(v0, tt.preset)
			require.NoError(t, m.Exec(tt.inst))
			assert.Equal(t, tt.want, m.Regs(tt.inst.Dst[0]))
		})
	}
}

func TestDSReadAddressRegister(t *testing.T) {
	m := New(ramp(128), Options{})
	m.Set(addr.Plus(1), 64)
	require.NoError(t, m.Exec(isa.DSRead(isa.OpDSReadB32, v0, addr.Plus(1), isa.DS1(4), "")))
	assert.Equal(t, uint32(0x47464544), m.Reg(v0))

	err := m.Exec(isa.DSRead(isa.OpDSReadB32, v0, addr, isa.DS1(126), ""))
	assert.ErrorIs(t, err, ErrLDSBounds)

	err = m.Exec(isa.DSRead(isa.OpDSReadB64TrB16, isa.VGPR("V", 0, 2), addr, isa.DS1(0), ""))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPerm(t *testing.T) {
	tests := []struct {
		src0, src1, sel, want uint32
	}{
		{0x77665544, 0x33221100, 0x05040100, 0x55441100},
		{0x77665544, 0x33221100, 0x07060302, 0x77663322},
		{0x77665544, 0x33221100, 0x0c0c0400, 0x00004400},
		{0x77665544, 0x33221100, 0x0c0c0501, 0x00005511},
		{0x00000000, 0x00008000, 0x0d0c0908, 0xFF0000FF},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%08x", tt.sel), func(t *testing.T) {
			assert.Equal(t, tt.want, perm(tt.src0, tt.src1, tt.sel))
		})
	}
}

func TestValuOps(t *testing.T) {
	m := New(nil, Options{})
	m.Set(v0, 0x1234)
	m.Set(v1, 0xABCD)
	sel := isa.SGPR("PackKForV0", 0)

	require.NoError(t, m.Exec(isa.VLShiftLeftOrB32(isa.VGPR("R", 0, 1), v1, 16, v0, "")))
	assert.Equal(t, uint32(0xABCD1234), m.Reg(isa.VGPR("R", 0, 1)))

	require.NoError(t, m.Exec(isa.VLShiftRightB32(isa.VGPR("R", 1, 1), 8, isa.VGPR("R", 0, 1), "")))
	assert.Equal(t, uint32(0x00ABCD12), m.Reg(isa.VGPR("R", 1, 1)))

	require.NoError(t, m.Exec(isa.VOrB32(isa.VGPR("R", 2, 1), v0, v1, "")))
	assert.Equal(t, uint32(0xBBFD), m.Reg(isa.VGPR("R", 2, 1)))

	require.NoError(t, m.Exec(isa.SMovB32(sel, isa.Imm(0x05040100), "")))
	require.NoError(t, m.Exec(isa.VPermB32(isa.VGPR("R", 3, 1), v1, v0, sel, "")))
	assert.Equal(t, uint32(0xABCD1234), m.Reg(isa.VGPR("R", 3, 1)))

	dst := isa.VGPR("R", 4, 1)
	m.Set(dst, 0x11112222)
	require.NoError(t, m.Exec(isa.VMovB32(dst, isa.VGPR("R", 0, 1), &isa.SDWAModifiers{DstSel: isa.SelWord0, Src0Sel: isa.SelWord1}, "")))
	assert.Equal(t, uint32(0x1111ABCD), m.Reg(dst))

	require.NoError(t, m.Exec(isa.VMovB32(dst, v0, nil, "")))
	assert.Equal(t, uint32(0x1234), m.Reg(dst))

	require.NoError(t, m.Exec(isa.SWaitCnt(0, -1, -1, "")))
}

func TestConverts(t *testing.T) {
	fp8One := uint32(numeric.FP8One)
	fp8Two := uint32(0x40)
	halfOne := uint32(numeric.HalfBits(1))
	halfTwo := uint32(numeric.HalfBits(2))
	src := isa.VGPR("S", 0, 1)
	dst := isa.VGPR("D", 0, 1)
	tmp := isa.VGPR("CvtTemp", 0, 2)

	t.Run("scaled packed", func(t *testing.T) {
		m := New(nil, Options{})
		m.Set(src, fp8Two<<24|fp8One<<16|fp8One<<8|fp8Two)
		require.NoError(t, m.Exec(isa.VCvtScalePkFP8toF16(dst, src, 0x3f800000, &isa.VOP3PModifiers{}, "")))
		assert.Equal(t, halfOne<<16|halfTwo, m.Reg(dst))
		require.NoError(t, m.Exec(isa.VCvtScalePkFP8toF16(dst, src, 0x3f800000, &isa.VOP3PModifiers{OpSel: [4]int{1, 0, 0, 0}}, "")))
		assert.Equal(t, halfTwo<<16|halfOne, m.Reg(dst))
	})

	t.Run("scaled single into high half", func(t *testing.T) {
		m := New(nil, Options{})
		m.Set(src, fp8Two)
		m.Set(dst, halfOne)
		require.NoError(t, m.Exec(isa.VCvtScaleFP8toF16(dst, src, 0x3f800000, &isa.VOP3PModifiers{OpSel: [4]int{0, 0, 1, 0}}, "")))
		assert.Equal(t, halfTwo<<16|halfOne, m.Reg(dst))
	})

	t.Run("via f32", func(t *testing.T) {
		m := New(nil, Options{})
		m.Set(src, fp8One<<8|fp8Two)
		require.NoError(t, m.Exec(isa.VCvtPkFP8toF32(tmp, src, &isa.SDWAModifiers{Src0Sel: isa.SelWord0}, "")))
		assert.Equal(t, []uint32{0x40000000, 0x3f800000}, m.Regs(tmp))
		require.NoError(t, m.Exec(isa.VCvtF32toF16(dst, tmp.Reg(0), &isa.SDWAModifiers{DstSel: isa.SelWord0}, "")))
		require.NoError(t, m.Exec(isa.VCvtF32toF16(dst, tmp.Reg(1), &isa.SDWAModifiers{DstSel: isa.SelWord1}, "")))
		assert.Equal(t, halfOne<<16|halfTwo, m.Reg(dst))

		require.NoError(t, m.Exec(isa.VCvtFP8toF32(dst, src, &isa.SDWAModifiers{Src0Sel: isa.SelByte1}, "")))
		assert.Equal(t, uint32(0x3f800000), m.Reg(dst))
	})

	t.Run("bf8", func(t *testing.T) {
		m := New(nil, Options{Float8: numeric.BF8})
		m.Set(src, uint32(numeric.BF8One))
		require.NoError(t, m.Exec(isa.VCvtFP8toF32(dst, src, &isa.SDWAModifiers{Src0Sel: isa.SelByte0}, "")))
		assert.Equal(t, uint32(0x3f800000), m.Reg(dst))
	})
}

type recorder struct{ msgs []string }

func (r *recorder) Errorf(format string, args ...any) {
	r.msgs = append(r.msgs, fmt.Sprintf(format, args...))
}

func TestAssert(t *testing.T) {
	m := New(nil, Options{})
	m.Set(v0, 0x3f800000)
	require.NoError(t, m.Exec(isa.AssertEq(v0, isa.ImmFloat(1), "")))

	err := m.Exec(isa.AssertEq(v0, isa.Imm(1), ""))
	assert.ErrorIs(t, err, ErrAssertion)
	assert.Len(t, m.Failures, 1)

	rec := &recorder{}
	m = New(nil, Options{Reporter: rec})
	require.NoError(t, m.Exec(isa.AssertEq(v0, isa.Imm(1), "")))
	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], "v[vgprV+0]")
}

func TestRunModule(t *testing.T) {
	mod := isa.NewModule("m")
	mod.AddModule("read").Add(
		isa.DSRead(isa.OpDSReadU16, v0, addr, isa.DS1(0), ""),
		isa.DSRead(isa.OpDSReadU16, v1, addr, isa.DS1(2), ""),
	)
	mod.AddModule("pack").Add(isa.VLShiftLeftOrB32(v0, v1, 16, v0, ""))

	m := New(ramp(8), Options{})
	require.NoError(t, m.Run(mod))
	assert.Equal(t, uint32(0x03020100), m.Reg(v0))
	assert.Equal(t, 3, m.Executed)

	bad := isa.NewModule("bad")
	bad.Add(&isa.Instruction{Op: isa.OpInvalid})
	assert.ErrorIs(t, New(nil, Options{}).Run(bad), ErrUnsupported)
}
