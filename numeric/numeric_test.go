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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in      string
		want    DataType
		wantErr bool
	}{
		{"half", Half, false},
		{"F16", Half, false},
		{"bf16", BFloat16, false},
		{"single", Single, false},
		{"int8", Int8, false},
		{"int8x4", Int8x4, false},
		{"fp8", FP8, false},
		{"e5m2", BF8, false},
		{"quad", Invalid, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDataType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumBytes(t *testing.T) {
	tests := []struct {
		d    DataType
		want int
	}{
		{Half, 2}, {BFloat16, 2}, {Single, 4}, {Double, 8},
		{Int8, 1}, {Int8x4, 4}, {FP8, 1}, {BF8, 1}, {Invalid, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.d.NumBytes(), tt.d.String())
	}
}

func TestTextRoundTrip(t *testing.T) {
	for d := range dataTypeNames {
		text, err := d.MarshalText()
		require.NoError(t, err)
		var back DataType
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, d, back)
	}
	_, err := Invalid.MarshalText()
	assert.Error(t, err)
}

func TestOnesPattern(t *testing.T) {
	tests := []struct {
		d    DataType
		want uint32
	}{
		{Half, 0x3c003c00},
		{BFloat16, 0x3f803f80},
		{Int8, 0x01010101},
		{Int8x4, 0x01010101},
		{Single, 0x3f800000},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, OnesPattern(tt.d))
		})
	}
	assert.Equal(t, uint32(0x3c000000), OnesHalfword(Half, true))
	assert.Equal(t, uint32(0x00003f80), OnesHalfword(BFloat16, false))
}

func TestBFloat16Bits(t *testing.T) {
	assert.Equal(t, uint16(0x3f80), BFloat16Bits(1))
	assert.Equal(t, uint16(0xc000), BFloat16Bits(-2))
	// 1 + 2^-8 is exactly halfway between two bf16 values; ties go to even.
	assert.Equal(t, uint16(0x3f80), BFloat16Bits(1+1.0/256))
	assert.Equal(t, uint16(0x3f82), BFloat16Bits(1+3.0/256))
	nan := BFloat16Bits(float32(math.NaN()))
	assert.Equal(t, uint16(0x7f80), nan&0x7f80)
	assert.NotZero(t, nan&0x7f)
}

func TestFP8Decode(t *testing.T) {
	assert.Equal(t, float32(1), FP8ToFloat32(FP8One))
	assert.Equal(t, float32(-1), FP8ToFloat32(FP8One|0x80))
	assert.Equal(t, float32(448), FP8ToFloat32(0x7E))
	assert.Equal(t, float32(1.0/512), FP8ToFloat32(0x01))
	assert.True(t, math.IsNaN(float64(FP8ToFloat32(0x7F))))

	assert.Equal(t, float32(1), BF8ToFloat32(BF8One))
	assert.Equal(t, float32(57344), BF8ToFloat32(0x7B))
	assert.True(t, math.IsInf(float64(BF8ToFloat32(0x7C)), 1))
}

func TestHalfBits(t *testing.T) {
	assert.Equal(t, uint16(0x3c00), HalfBits(1))
	assert.Equal(t, uint16(0xc000), HalfBits(-2))
	assert.Equal(t, float32(0.5), HalfToFloat32(0x3800))
}
