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

import (
	"math"

	"github.com/x448/float16"
)

// BFloat16Bits returns the bfloat16 encoding of f, the upper half of its
// float32 encoding rounded to nearest even. NaNs stay quiet NaNs.
func BFloat16Bits(f float32) uint16 {
	u := math.Float32bits(f)
	if math.IsNaN(float64(f)) {
		return uint16(u>>16) | 0x40
	}
	return uint16((u + 0x7fff + (u>>16)&1) >> 16)
}

// HalfBits returns the IEEE binary16 encoding of f (round-to-nearest-even).
func HalfBits(f float32) uint16 {
	return float16.Fromfloat32(f).Bits()
}

// HalfToFloat32 decodes an IEEE binary16 encoding.
func HalfToFloat32(h uint16) float32 {
	return float16.Frombits(h).Float32()
}
