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

// FP8ToFloat32 decodes an E4M3 (OCP "FN" variant) 8-bit float.
//
// Format: Sign (1 bit) | Exponent (4 bits, bias 7) | Mantissa (3 bits)
//
// There are no infinities; S.1111.111 is NaN.
func FP8ToFloat32(b uint8) float32 {
	sign := float32(1)
	if b&0x80 != 0 {
		sign = -1
	}
	exp := int(b>>3) & 0xF
	mant := float32(b & 0x7)

	switch {
	case exp == 0xF && b&0x7 == 0x7:
		return float32(math.NaN())
	case exp == 0:
		// Subnormal: m/8 * 2^-6
		return sign * mant / 8 * float32(math.Ldexp(1, -6))
	}
	return sign * (1 + mant/8) * float32(math.Ldexp(1, exp-7))
}

// BF8ToFloat32 decodes an E5M2 8-bit float. E5M2 is the upper byte of an
// IEEE half, so decoding goes through the half decoder.
func BF8ToFloat32(b uint8) float32 {
	return HalfToFloat32(uint16(b) << 8)
}

// Decode8bitFloat decodes b according to d, which must be FP8 or BF8.
func Decode8bitFloat(d DataType, b uint8) float32 {
	if d == BF8 {
		return BF8ToFloat32(b)
	}
	return FP8ToFloat32(b)
}

// FP8One and BF8One are the encodings of 1.0.
const (
	FP8One uint8 = 0x38
	BF8One uint8 = 0x3C
)
