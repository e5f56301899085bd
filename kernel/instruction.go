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

package kernel

import (
	"fmt"

	"github.com/ajroetker/lrgen/isa"
)

// ReadInstruction describes the DS read chosen for an operand: how many
// addresses it takes, how wide each per-lane read is, and which opcode
// implements the low-half and high-half forms.
type ReadInstruction struct {
	Name       string
	NumOffsets int

	// Bytes read per lane per address: 1, 2, 4, 8 or 16. The block width
	// in registers is Bytes/4.
	Bytes int

	Low  isa.Opcode
	High isa.Opcode
}

// Read instruction catalogue.
var (
	DSReadU8       = ReadInstruction{"ds_read_u8", 1, 1, isa.OpDSReadU8, isa.OpDSReadU8D16Hi}
	DSReadU16      = ReadInstruction{"ds_read_u16", 1, 2, isa.OpDSReadU16, isa.OpDSReadU16D16Hi}
	DSReadB32      = ReadInstruction{"ds_read_b32", 1, 4, isa.OpDSReadB32, isa.OpDSReadB32}
	DSReadB64      = ReadInstruction{"ds_read_b64", 1, 8, isa.OpDSReadB64, isa.OpDSReadB64}
	DSReadB128     = ReadInstruction{"ds_read_b128", 1, 16, isa.OpDSReadB128, isa.OpDSReadB128}
	DSRead2B32     = ReadInstruction{"ds_read2_b32", 2, 4, isa.OpDSRead2B32, isa.OpDSRead2B32}
	DSRead2B64     = ReadInstruction{"ds_read2_b64", 2, 8, isa.OpDSRead2B64, isa.OpDSRead2B64}
	DSReadB64TrB16 = ReadInstruction{"ds_read_b64_tr_b16", 1, 8, isa.OpDSReadB64TrB16, isa.OpDSReadB64TrB16}
)

var readInstructions = []ReadInstruction{
	DSReadU8, DSReadU16, DSReadB32, DSReadB64, DSReadB128, DSRead2B32, DSRead2B64, DSReadB64TrB16,
}

// ReadInstructionByName looks up a catalogue entry.
func ReadInstructionByName(name string) (ReadInstruction, error) {
	for _, ri := range readInstructions {
		if ri.Name == name {
			return ri, nil
		}
	}
	return ReadInstruction{}, fmt.Errorf("unknown read instruction %q", name)
}

// ReadInstructionFor picks the catalogue entry that reads bytes per address
// with numOffsets addresses.
func ReadInstructionFor(bytes, numOffsets int, transpose bool) (ReadInstruction, error) {
	if transpose {
		if bytes == 8 && numOffsets == 1 {
			return DSReadB64TrB16, nil
		}
		return ReadInstruction{}, fmt.Errorf("no transpose read of %d bytes", bytes)
	}
	for _, ri := range readInstructions {
		if ri.Bytes == bytes && ri.NumOffsets == numOffsets && ri.Low != isa.OpDSReadB64TrB16 {
			return ri, nil
		}
	}
	return ReadInstruction{}, fmt.Errorf("no read of %d bytes with %d offsets", bytes, numOffsets)
}

// Valid reports whether r is a usable descriptor.
func (r ReadInstruction) Valid() bool {
	return r.Low != isa.OpInvalid && r.Bytes > 0 && (r.NumOffsets == 1 || r.NumOffsets == 2)
}

// BlockWidth returns the per-address read size in 32-bit registers.
func (r ReadInstruction) BlockWidth() float64 {
	return float64(r.Bytes) / 4
}

// NumVgpr is the number of registers one address fills, rounded up.
func (r ReadInstruction) NumVgpr() int {
	return (r.Bytes + 3) / 4
}

// Inst returns the opcode variant. high selects the form that writes the
// upper 16 bits of the destination; descriptors without such a form ignore it.
func (r ReadInstruction) Inst(high bool) isa.Opcode {
	if high {
		return r.High
	}
	return r.Low
}

// HasHighVariant reports whether Inst(true) differs from Inst(false).
func (r ReadInstruction) HasHighVariant() bool {
	return r.High != r.Low
}

// MarshalText implements encoding.TextMarshaler.
func (r ReadInstruction) MarshalText() ([]byte, error) {
	return []byte(r.Name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *ReadInstruction) UnmarshalText(text []byte) error {
	ri, err := ReadInstructionByName(string(text))
	if err != nil {
		return err
	}
	*r = ri
	return nil
}
