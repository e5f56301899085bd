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

package isa

import "fmt"

// OpKind categorizes opcodes for analysis passes and tests.
type OpKind int

const (
	// OpKindLDSRead is a scratchpad (DS) read.
	OpKindLDSRead OpKind = iota

	// OpKindPack rearranges bits between VGPRs (perm, shifts, or, mov).
	OpKindPack

	// OpKindConvert changes numeric format.
	OpKindConvert

	// OpKindScalar is a scalar ALU op.
	OpKindScalar

	// OpKindWait waits on outstanding memory counters.
	OpKindWait

	// OpKindAssert is a debug check expanded by the kernel writer.
	OpKindAssert
)

// String returns a human-readable name for the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpKindLDSRead:
		return "LDSRead"
	case OpKindPack:
		return "Pack"
	case OpKindConvert:
		return "Convert"
	case OpKindScalar:
		return "Scalar"
	case OpKindWait:
		return "Wait"
	case OpKindAssert:
		return "Assert"
	default:
		return fmt.Sprintf("OpKind(%d)", k)
	}
}

// Opcode identifies a concrete instruction.
type Opcode int

const (
	OpInvalid Opcode = iota

	// DS reads. The _D16Hi forms write the upper 16 bits of the destination.
	OpDSReadU8
	OpDSReadU8D16Hi
	OpDSReadU16
	OpDSReadU16D16Hi
	OpDSReadB32
	OpDSReadB64
	OpDSReadB128
	OpDSRead2B32
	OpDSRead2B64
	OpDSReadB64TrB16

	// VALU bit manipulation.
	OpVPermB32
	OpVLShiftLeftOrB32
	OpVLShiftRightB32
	OpVOrB32
	OpVMovB32

	// Conversions.
	OpVCvtPkFP8toF32
	OpVCvtFP8toF32
	OpVCvtF32toF16
	OpVCvtScaleFP8toF16
	OpVCvtScalePkFP8toF16

	// Scalar and control.
	OpSMovB32
	OpSWaitCnt
	OpAssertEq
)

type opInfo struct {
	mnemonic string
	kind     OpKind
	// bytes is the per-lane read size for DS reads.
	bytes int
}

var opTable = map[Opcode]opInfo{
	OpDSReadU8:            {"ds_read_u8", OpKindLDSRead, 1},
	OpDSReadU8D16Hi:       {"ds_read_u8_d16_hi", OpKindLDSRead, 1},
	OpDSReadU16:           {"ds_read_u16", OpKindLDSRead, 2},
	OpDSReadU16D16Hi:      {"ds_read_u16_d16_hi", OpKindLDSRead, 2},
	OpDSReadB32:           {"ds_read_b32", OpKindLDSRead, 4},
	OpDSReadB64:           {"ds_read_b64", OpKindLDSRead, 8},
	OpDSReadB128:          {"ds_read_b128", OpKindLDSRead, 16},
	OpDSRead2B32:          {"ds_read2_b32", OpKindLDSRead, 4},
	OpDSRead2B64:          {"ds_read2_b64", OpKindLDSRead, 8},
	OpDSReadB64TrB16:      {"ds_read_b64_tr_b16", OpKindLDSRead, 8},
	OpVPermB32:            {"v_perm_b32", OpKindPack, 0},
	OpVLShiftLeftOrB32:    {"v_lshl_or_b32", OpKindPack, 0},
	OpVLShiftRightB32:     {"v_lshrrev_b32", OpKindPack, 0},
	OpVOrB32:              {"v_or_b32", OpKindPack, 0},
	OpVMovB32:             {"v_mov_b32", OpKindPack, 0},
	OpVCvtPkFP8toF32:      {"v_cvt_pk_f32_fp8", OpKindConvert, 0},
	OpVCvtFP8toF32:        {"v_cvt_f32_fp8", OpKindConvert, 0},
	OpVCvtF32toF16:        {"v_cvt_f16_f32", OpKindConvert, 0},
	OpVCvtScaleFP8toF16:   {"v_cvt_scalef32_f16_fp8", OpKindConvert, 0},
	OpVCvtScalePkFP8toF16: {"v_cvt_scalef32_pk_f16_fp8", OpKindConvert, 0},
	OpSMovB32:             {"s_mov_b32", OpKindScalar, 0},
	OpSWaitCnt:            {"s_waitcnt", OpKindWait, 0},
	OpAssertEq:            {"assert_eq", OpKindAssert, 0},
}

// String returns the assembler mnemonic.
func (op Opcode) String() string {
	if info, ok := opTable[op]; ok {
		return info.mnemonic
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Kind classifies the opcode.
func (op Opcode) Kind() OpKind {
	return opTable[op].kind
}

// ReadBytes returns the bytes each lane reads per address for DS reads, and
// 0 for everything else. Two-address reads return the size of one address.
func (op Opcode) ReadBytes() int {
	return opTable[op].bytes
}

// IsD16Hi reports whether a DS read targets the upper half of its
// destination register.
func (op Opcode) IsD16Hi() bool {
	return op == OpDSReadU8D16Hi || op == OpDSReadU16D16Hi
}

// NumAddresses is the number of LDS addresses a DS read takes.
func (op Opcode) NumAddresses() int {
	switch op {
	case OpDSRead2B32, OpDSRead2B64:
		return 2
	}
	if op.Kind() == OpKindLDSRead {
		return 1
	}
	return 0
}
