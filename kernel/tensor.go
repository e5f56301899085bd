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

// Kind identifies which operand a tensor descriptor describes.
type Kind int

const (
	KindA Kind = iota
	KindB
	KindMetadata
)

// Kinds lists every operand kind in generation order.
var Kinds = []Kind{KindA, KindB, KindMetadata}

// String returns the tensor character used in register and module names.
func (k Kind) String() string {
	switch k {
	case KindA:
		return "A"
	case KindB:
		return "B"
	case KindMetadata:
		return "Metadata"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps "A", "B", "Metadata" (or "M") to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "A", "a":
		return KindA, nil
	case "B", "b":
		return KindB, nil
	case "Metadata", "metadata", "M", "m":
		return KindMetadata, nil
	}
	return 0, fmt.Errorf("unknown operand %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Tensor describes one operand's LDS tile as resolved by the tile layout
// stage.
type Tensor struct {
	Kind Kind `yaml:"kind"`

	// Tile01 is 0 when the operand's free dimension is tile 0 (A) and 1 for
	// tile 1 (B).
	Tile01 int `yaml:"tile01"`

	// BPE is the compute width in bytes; BPEDS the LDS storage width.
	BPE   int `yaml:"bpe"`
	BPEDS int `yaml:"bpeDS"`

	// LocalReadOffset is this thread's base offset into the tile, in
	// elements.
	LocalReadOffset int `yaml:"localReadOffset"`

	// SwapByteOffset selects the double-buffer half, in bytes.
	SwapByteOffset int `yaml:"swapByteOffset"`

	Instruction ReadInstruction `yaml:"instruction"`

	// EnableLDSTr selects the transpose-capable read path.
	EnableLDSTr bool `yaml:"enableLDSTr"`
}

func (t Tensor) IsA() bool { return t.Kind == KindA }
func (t Tensor) IsB() bool { return t.Kind == KindB }
func (t Tensor) IsM() bool { return t.Kind == KindMetadata }

// Char returns the tensor character ("A", "B", "Metadata").
func (t Tensor) Char() string { return t.Kind.String() }

// AddressPool is the symbol of the LDS address registers of this operand.
func (t Tensor) AddressPool() string { return "LocalReadAddr" + t.Char() }

// AddressReg returns base-address register slot of this operand.
func (t Tensor) AddressReg(slot int) isa.Operand {
	return isa.VGPR(t.AddressPool(), slot, 1)
}
