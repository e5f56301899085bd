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

// Package numeric describes the element formats a GEMM kernel can stage
// through LDS and the bit-level conversions between them.
package numeric

import (
	"fmt"
	"strings"
)

// DataType identifies the numeric format of an operand element.
type DataType int

const (
	// Invalid is the zero value and never valid in a kernel configuration.
	Invalid DataType = iota
	Half
	BFloat16
	Single
	Double
	XFloat32
	Int8
	Int8x4
	Int32
	// FP8 is the E4M3 8-bit float.
	FP8
	// BF8 is the E5M2 8-bit float.
	BF8
)

var dataTypeNames = map[DataType]string{
	Half:     "half",
	BFloat16: "bf16",
	Single:   "single",
	Double:   "double",
	XFloat32: "xf32",
	Int8:     "int8",
	Int8x4:   "int8x4",
	Int32:    "int32",
	FP8:      "fp8",
	BF8:      "bf8",
}

// String returns the configuration name of the type.
func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// ParseDataType maps a configuration name (case-insensitive) to a DataType.
// A few common aliases are accepted ("f16", "fp16", "float", "f32", "i8", ...).
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "half", "f16", "fp16", "h":
		return Half, nil
	case "bf16", "bfloat16", "b":
		return BFloat16, nil
	case "single", "float", "f32", "fp32", "s":
		return Single, nil
	case "double", "f64", "fp64", "d":
		return Double, nil
	case "xf32", "xfloat32", "x":
		return XFloat32, nil
	case "int8", "i8":
		return Int8, nil
	case "int8x4", "4xi8":
		return Int8x4, nil
	case "int32", "i32":
		return Int32, nil
	case "fp8", "f8", "e4m3":
		return FP8, nil
	case "bf8", "b8", "e5m2":
		return BF8, nil
	}
	return Invalid, fmt.Errorf("unknown data type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d DataType) MarshalText() ([]byte, error) {
	if _, ok := dataTypeNames[d]; !ok {
		return nil, fmt.Errorf("cannot marshal %v", d)
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NumBytes returns the storage size of one element.
func (d DataType) NumBytes() int {
	switch d {
	case Int8, FP8, BF8:
		return 1
	case Half, BFloat16:
		return 2
	case Single, XFloat32, Int8x4, Int32:
		return 4
	case Double:
		return 8
	}
	return 0
}

func (d DataType) IsHalf() bool     { return d == Half }
func (d DataType) IsBFloat16() bool { return d == BFloat16 }
func (d DataType) IsSingle() bool   { return d == Single }
func (d DataType) IsInt8() bool     { return d == Int8 }
func (d DataType) IsInt8x4() bool   { return d == Int8x4 }

// Is8bitFloat reports whether d is one of the 8-bit float formats.
func (d DataType) Is8bitFloat() bool { return d == FP8 || d == BF8 }

// Valid reports whether d names a known format.
func (d DataType) Valid() bool {
	_, ok := dataTypeNames[d]
	return ok
}
