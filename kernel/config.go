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

// Package kernel holds the resolved kernel configuration and the per-operand
// tensor descriptors the local-read generator consumes. Values are produced
// upstream (solution resolution) and treated as immutable here.
package kernel

import "github.com/ajroetker/lrgen/numeric"

// MatrixInst is the geometry of one matrix instruction.
type MatrixInst struct {
	M  int `yaml:"m"`
	N  int `yaml:"n"`
	K  int `yaml:"k"`
	BM int `yaml:"bm"`
	BN int `yaml:"bn"`
}

// Caps are the hardware and assembler capability flags the generator
// branches on. It is a value object: compare and copy freely.
type Caps struct {
	// HasEccHalf: 16-bit DS reads do not preserve the other half of the
	// destination, so sub-dword data must be packed explicitly.
	HasEccHalf bool `yaml:"hasEccHalf"`

	// DSLow16NotPreserve: the d16_hi read forms clobber the low half, so
	// high-half data is read low and shifted into place instead.
	DSLow16NotPreserve bool `yaml:"dsLow16NotPreserve"`

	// SeparateVscnt: stores are tracked by a separate vscnt counter.
	SeparateVscnt bool `yaml:"separateVscnt"`

	// HasWMMAV1 marks first-generation WMMA targets, which share the
	// non-ECC packing rules.
	HasWMMAV1 bool `yaml:"hasWMMAV1"`

	// HasCvtF16FP8 provides the one-instruction scaled fp8->f16 converts.
	HasCvtF16FP8 bool `yaml:"hasCvtF16FP8"`
}

// EccPack reports whether reads below 32 bits need explicit packing.
func (c Caps) EccPack() bool {
	return c.HasEccHalf || !c.HasWMMAV1
}

// OperandConfig groups the options that exist once per operand
// (the "...A", "...B", "...Metadata" options of a solution).
type OperandConfig struct {
	DepthU             int  `yaml:"depthU"`
	MacroTile          int  `yaml:"macroTile"`
	LdsPad             int  `yaml:"ldsPad"`
	LdsBlockSizePerPad int  `yaml:"ldsBlockSizePerPad"`
	UnrollMajorLDS     bool `yaml:"unrollMajorLDS"`
	MIInputPerThread   int  `yaml:"miInputPerThread"`
	VectorWidth        int  `yaml:"vectorWidth"`

	// LRVWTile is how many tile positions one read covers (1, 2, 4 or 8).
	LRVWTile int `yaml:"lrvwTile"`

	DirectToLds           bool `yaml:"directToLds"`
	GlobalReadVectorWidth int  `yaml:"globalReadVectorWidth"`
	DirectToVgpr          bool `yaml:"directToVgpr"`

	// CheckValue enables the debug value assertions after each read.
	CheckValue bool `yaml:"checkValue"`
}

// Config is a fully resolved kernel configuration.
type Config struct {
	DataType  numeric.DataType `yaml:"dataType"`
	DataTypeB numeric.DataType `yaml:"dataTypeB"`

	// Sparse is 0 for dense problems, 1 when A is the structured-sparse
	// track and 2 when B is.
	Sparse int `yaml:"sparse"`

	EnableMatrixInstruction bool `yaml:"enableMatrixInstruction"`
	UseDotInstruction       bool `yaml:"useDotInstruction"`
	MFMABF16_1K             bool `yaml:"mfmaBF16_1K"`
	ConvertAfterDS          bool `yaml:"convertAfterDS"`

	MatrixInst       MatrixInst `yaml:"matrixInst"`
	MIWaveGroup      [2]int     `yaml:"miWaveGroup"`
	MIWaveTile       [2]int     `yaml:"miWaveTile"`
	MIInputPerThread int        `yaml:"miInputPerThread"`

	LocalReadVectorWidth int `yaml:"localReadVectorWidth"`

	// VALU strategy geometry.
	ThreadTile  [2]int `yaml:"threadTile"`
	SubGroup    [2]int `yaml:"subGroup"`
	LRVWUnrollA int    `yaml:"lrvwUnrollA"`

	InTailLoop bool `yaml:"inTailLoop"`

	UseF32XEmulation       bool `yaml:"useF32XEmulation"`
	EnableF32XEmulationLds bool `yaml:"enableF32XEmulationLds"`

	A        OperandConfig `yaml:"a"`
	B        OperandConfig `yaml:"b"`
	Metadata OperandConfig `yaml:"metadata"`

	Caps Caps `yaml:"caps"`
}

// Operand returns the per-operand options for k.
func (c *Config) Operand(k Kind) *OperandConfig {
	switch k {
	case KindA:
		return &c.A
	case KindB:
		return &c.B
	default:
		return &c.Metadata
	}
}

// WaveGroupShape returns the extent of one wave group along the tile
// dimension of each operand: M*BM*WG0*VWA for tile 0 and N*BN*WG1*VWB for
// tile 1.
func (c *Config) WaveGroupShape() [2]int {
	return [2]int{
		c.MatrixInst.M * c.MatrixInst.BM * c.MIWaveGroup[0] * c.A.VectorWidth,
		c.MatrixInst.N * c.MatrixInst.BN * c.MIWaveGroup[1] * c.B.VectorWidth,
	}
}

// applyDefaults fills options that are optional in configuration files.
func (c *Config) applyDefaults() {
	if c.DataTypeB == numeric.Invalid {
		c.DataTypeB = c.DataType
	}
	if c.MatrixInst.BM == 0 {
		c.MatrixInst.BM = 1
	}
	if c.MatrixInst.BN == 0 {
		c.MatrixInst.BN = 1
	}
	for _, k := range Kinds {
		op := c.Operand(k)
		if op.LRVWTile == 0 {
			op.LRVWTile = 1
		}
		if op.VectorWidth == 0 {
			op.VectorWidth = 1
		}
		if op.MIInputPerThread == 0 {
			op.MIInputPerThread = c.MIInputPerThread
		}
	}
}
