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
	"github.com/ajroetker/lrgen/isa"
	"github.com/ajroetker/lrgen/kernel"
)

// dsModifiers builds the one- or two-address DS modifier of ri.
func dsModifiers(ri kernel.ReadInstruction, offsets []int) *isa.DSModifiers {
	if ri.NumOffsets == 2 {
		return isa.DS2(offsets[0], offsets[1])
	}
	return isa.DS1(offsets[0])
}

// selectRead emits one read of ri into dst from base address slot of t.
// high picks the variant writing the upper half of a sub-dword destination.
func selectRead(ri kernel.ReadInstruction, t kernel.Tensor, dst isa.Operand, slot int, offsets []int, high bool, comment string) *isa.Instruction {
	return isa.DSRead(ri.Inst(high), dst, t.AddressReg(slot), dsModifiers(ri, offsets), comment)
}

// highVariant reports whether a read needs the upper-half form. Targets
// whose upper-half forms clobber the low half always read low and pack.
func highVariant(caps kernel.Caps, highBitsForHalf, isHigh16Bits bool) bool {
	if caps.DSLow16NotPreserve {
		return false
	}
	return highBitsForHalf || isHigh16Bits
}
