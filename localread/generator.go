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

// Package localread generates the instruction sequences that move one
// operand tile from LDS into the registers consumed by the compute
// instructions of a GPU matrix-multiply kernel.
//
// Generation produces two sequences per call: the reads, and a pack
// sequence that rearranges the loaded bits into the layout the compute
// instructions expect (merging sub-dword values, converting formats and
// permuting tile-major data into K order). The kernel writer places the
// pack sequence after the wait that retires the reads.
//
// Registers are symbolic. Compute registers live in pools named
// Valu<tc>_X<buffer>_I<iui>, with staging pools suffixed _D<k>; see
// ValuPool and StagePool.
package localread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/lrgen/isa"
	"github.com/ajroetker/lrgen/kernel"
)

var (
	// ErrUnsupported is returned for valid configurations the generator has
	// no read or packing scheme for.
	ErrUnsupported = errors.New("unsupported local read configuration")

	// ErrOffsetRange is returned when an offset does not fit the DS offset
	// field of any base address register.
	ErrOffsetRange = errors.New("LDS offset out of range")
)

// Result holds the two sequences of one generation call.
type Result struct {
	Read *isa.Module
	Pack *isa.Module
}

// Generator emits the local reads of one operand. bufferIdx selects the
// compute register buffer, iui the inner unroll index and epsi the
// expanded pointer-swap index, which no current strategy uses.
//
// Generate may be called concurrently for different operands sharing a
// Session.
type Generator interface {
	Generate(s *Session, bufferIdx, iui, epsi int, t kernel.Tensor) (Result, error)
}

type strategy interface {
	generate(s *Session, bufferIdx, iui int, t kernel.Tensor) (Result, error)
}

type generator struct {
	cfg  *kernel.Config
	impl strategy
	name string
}

// New validates cfg and returns the generator for its compute strategy.
// The configuration is copied; later changes to cfg are not seen.
func New(cfg *kernel.Config) (Generator, error) {
	c := *cfg
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	g := &generator{cfg: &c}
	if c.EnableMatrixInstruction {
		g.impl, g.name = &mfmaGenerator{cfg: &c}, "mfma"
	} else {
		g.impl, g.name = &valuGenerator{cfg: &c}, "valu"
	}
	return g, nil
}

func (g *generator) Generate(s *Session, bufferIdx, iui, epsi int, t kernel.Tensor) (Result, error) {
	if err := g.cfg.ValidateTensor(t); err != nil {
		return Result{}, err
	}
	s.count(t.Kind)
	res, err := g.impl.generate(s, bufferIdx, iui, t)
	if err != nil {
		return Result{}, fmt.Errorf("local read %s: %w", t.Kind, err)
	}
	s.Logger.Debug("generated local reads",
		slog.String("strategy", g.name),
		slog.String("operand", t.Char()),
		slog.String("instruction", t.Instruction.Name),
		slog.Int("buffer", bufferIdx),
		slog.Int("iui", iui),
		slog.Int("reads", res.Read.CountKind(isa.OpKindLDSRead)),
		slog.Int("pack", res.Pack.Count()))
	return res, nil
}

// GenerateOperands generates the reads of several operands in parallel and
// returns their results in input order. The first error cancels the
// remaining work.
func GenerateOperands(ctx context.Context, g Generator, s *Session, bufferIdx, iui, epsi int, tensors ...kernel.Tensor) ([]Result, error) {
	results := make([]Result, len(tensors))
	eg, ctx := errgroup.WithContext(ctx)
	for i, t := range tensors {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := g.Generate(s, bufferIdx, iui, epsi, t)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Modules flattens results into their read and pack sequences, in order.
func Modules(results []Result) (reads, packs []*isa.Module) {
	reads = lo.Map(results, func(r Result, _ int) *isa.Module { return r.Read })
	packs = lo.Map(results, func(r Result, _ int) *isa.Module { return r.Pack })
	return reads, packs
}
