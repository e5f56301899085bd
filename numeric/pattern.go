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

package numeric

import "math"

// One returns the encoding of 1.0 (or integer 1) in the element format d,
// zero-extended to 32 bits. It returns false for formats that have no
// single-element encoding below 32 bits.
func One(d DataType) (uint32, bool) {
	switch d {
	case Half:
		return uint32(HalfBits(1)), true
	case BFloat16:
		return uint32(BFloat16Bits(1)), true
	case Int8:
		return 1, true
	case FP8:
		return uint32(FP8One), true
	case BF8:
		return uint32(BF8One), true
	case Single, XFloat32:
		return math.Float32bits(1), true
	case Int32:
		return 1, true
	}
	return 0, false
}

// OnesPattern is the value of a 32-bit register whose every element slot
// holds 1 in format d: 0x3c003c00 for half, 0x3f803f80 for bf16,
// 0x01010101 for int8 and int8x4, 0x3f800000 for single.
func OnesPattern(d DataType) uint32 {
	switch d {
	case Int8x4:
		return 0x01010101
	}
	one, ok := One(d)
	if !ok {
		return 0
	}
	switch d.NumBytes() {
	case 1:
		return one * 0x01010101
	case 2:
		return one<<16 | one
	}
	return one
}

// OnesHalfword returns a 16-bit-format 1 placed in the high or low half of
// an otherwise zero register.
func OnesHalfword(d DataType, high bool) uint32 {
	one, _ := One(d)
	if high {
		return one << 16
	}
	return one
}
