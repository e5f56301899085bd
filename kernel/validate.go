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
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid kernel configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the configuration for values the generators cannot
// handle. All violations are reported together.
func (c *Config) Validate() error {
	var errs []error
	if !c.DataType.Valid() {
		errs = append(errs, invalid("dataType is not set"))
	}
	if c.Sparse < 0 || c.Sparse > 2 {
		errs = append(errs, invalid("sparse must be 0, 1 or 2, got %d", c.Sparse))
	}
	if c.EnableMatrixInstruction {
		mi := c.MatrixInst
		if mi.M <= 0 || mi.N <= 0 || mi.K <= 0 {
			errs = append(errs, invalid("matrixInst M/N/K must be positive, got %dx%dx%d", mi.M, mi.N, mi.K))
		}
		if c.MIInputPerThread <= 0 {
			errs = append(errs, invalid("miInputPerThread must be positive"))
		}
		for i, wg := range c.MIWaveGroup {
			if wg <= 0 {
				errs = append(errs, invalid("miWaveGroup[%d] must be positive", i))
			}
		}
	} else {
		for i := range 2 {
			if c.ThreadTile[i] <= 0 {
				errs = append(errs, invalid("threadTile[%d] must be positive", i))
			}
		}
		if c.UseDotInstruction && c.LRVWUnrollA <= 0 {
			errs = append(errs, invalid("lrvwUnrollA must be positive with useDotInstruction"))
		}
	}
	for _, k := range Kinds {
		op := c.Operand(k)
		if !slices.Contains([]int{1, 2, 4, 8}, op.LRVWTile) {
			errs = append(errs, invalid("%s: lrvwTile must be 1, 2, 4 or 8, got %d", k, op.LRVWTile))
		}
		if op.VectorWidth <= 0 {
			errs = append(errs, invalid("%s: vectorWidth must be positive", k))
		}
		if op.LdsPad < 0 || op.LdsBlockSizePerPad < 0 {
			errs = append(errs, invalid("%s: LDS padding must not be negative", k))
		}
	}
	return errors.Join(errs...)
}

// ValidateTensor checks t against c. Kinds without a configured operand
// (metadata of a dense problem) are rejected.
func (c *Config) ValidateTensor(t Tensor) error {
	var errs []error
	if t.IsM() && c.Sparse == 0 {
		errs = append(errs, invalid("metadata operand requires a sparse problem"))
	}
	if t.Tile01 != 0 && t.Tile01 != 1 {
		errs = append(errs, invalid("%s: tile01 must be 0 or 1, got %d", t.Kind, t.Tile01))
	}
	if t.BPE <= 0 || t.BPEDS <= 0 {
		errs = append(errs, invalid("%s: bpe and bpeDS must be positive", t.Kind))
	}
	if !t.Instruction.Valid() {
		errs = append(errs, invalid("%s: no read instruction", t.Kind))
	} else if c.EnableMatrixInstruction && t.Instruction.NumOffsets != 1 {
		errs = append(errs, invalid("%s: %s: matrix-instruction reads take a single offset", t.Kind, t.Instruction.Name))
	}
	if t.EnableLDSTr && t.Instruction.Valid() && t.Instruction.Low != DSReadB64TrB16.Low {
		errs = append(errs, invalid("%s: enableLDSTr requires %s", t.Kind, DSReadB64TrB16.Name))
	}
	if t.LocalReadOffset < 0 || t.SwapByteOffset < 0 {
		errs = append(errs, invalid("%s: offsets must not be negative", t.Kind))
	}
	if c.EnableMatrixInstruction && t.BPEDS > 0 && t.Instruction.Valid() && (t.Tile01 == 0 || t.Tile01 == 1) {
		op := c.Operand(t.Kind)
		tileBytes := t.Instruction.Bytes
		if op.UnrollMajorLDS {
			tileBytes = t.BPEDS
		}
		if (op.VectorWidth*t.BPEDS)%tileBytes != 0 && !t.EnableLDSTr {
			errs = append(errs, invalid("%s: vectorWidth %d is not a multiple of the read width", t.Kind, op.VectorWidth))
		}
		if op.VectorWidth > 0 && c.MIWaveTile[t.Tile01]%op.VectorWidth != 0 {
			errs = append(errs, invalid("%s: miWaveTile[%d]=%d is not a multiple of vectorWidth %d",
				t.Kind, t.Tile01, c.MIWaveTile[t.Tile01], op.VectorWidth))
		}
	}
	return errors.Join(errs...)
}
