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

package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/lrgen/isa"
	"github.com/ajroetker/lrgen/isa/sim"
	"github.com/ajroetker/lrgen/kernel"
	"github.com/ajroetker/lrgen/localread"
	"github.com/ajroetker/lrgen/numeric"
)

// addressSpacing is the distance between consecutive base address slots.
const addressSpacing = 1 << 16

func newCheckCmd(opts *options) *cobra.Command {
	var ones bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Generate each operand and run it on the simulator",
		Long: `Generate each operand and run the read and pack sequences on the
simulator over an LDS image sized to the reads.

By default the LDS holds a byte ramp. With --ones every element holds 1, so
the debug checks of kernels built with checkValue must all pass.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := opts.load(cmd)
			if err != nil {
				return err
			}
			results, err := j.generate(cmd, opts)
			if err != nil {
				return err
			}
			logger := opts.logger(cmd)
			for i, res := range results {
				t := j.tensors[i]
				rep, err := simulate(&j.file.Kernel, t, res, ones)
				if err != nil {
					return fmt.Errorf("simulating %s: %w", t.Kind, err)
				}
				logger.Debug("simulated", slog.String("operand", t.Char()), slog.Int("lds", rep.ldsBytes))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d reads (%d bytes), %d pack instructions, %d executed, %d assertion failures\n",
					t.Char(), rep.reads, rep.readBytes, rep.pack, rep.executed, rep.failures)
				if ones && rep.failures > 0 {
					return fmt.Errorf("%s: %d debug checks failed", t.Kind, rep.failures)
				}
			}
			return nil
		},
	}
	opts.addKernelFlags(cmd)
	cmd.Flags().BoolVar(&ones, "ones", false, "fill LDS with ones instead of a byte ramp")
	return cmd
}

type report struct {
	reads, readBytes int
	pack             int
	executed         int
	failures         int
	ldsBytes         int
}

// quietReporter collects assertion failures in Machine.Failures only.
type quietReporter struct{}

func (quietReporter) Errorf(string, ...any) {}

func simulate(cfg *kernel.Config, t kernel.Tensor, res localread.Result, ones bool) (report, error) {
	rs := lo.Filter(res.Read.Flatten(), func(i *isa.Instruction, _ int) bool { return i.Op.Kind() == isa.OpKindLDSRead })
	end := lo.Max(lo.Map(rs, func(i *isa.Instruction, _ int) int {
		return i.Src[0].Index*addressSpacing + slices.Max(i.DS.Offsets()) + i.Op.ReadBytes()
	}))
	size := (end + 3) &^ 3

	lds := make([]byte, size)
	if ones {
		pattern := numeric.OnesPattern(cfg.DataType)
		for o := 0; o < size; o += 4 {
			binary.LittleEndian.PutUint32(lds[o:], pattern)
		}
	} else {
		for o := range lds {
			lds[o] = byte(o)
		}
	}

	m := sim.New(lds, sim.Options{
		Preserve16: !cfg.Caps.HasEccHalf && !cfg.Caps.DSLow16NotPreserve,
		Reporter:   quietReporter{},
	})
	for slot := range size/addressSpacing + 1 {
		m.Set(t.AddressReg(slot), uint32(slot*addressSpacing))
	}
	maskBytes := min(cfg.DataType.NumBytes(), 2)
	for v := range 4 {
		mask := localread.PackMask(v, maskBytes)
		m.Set(isa.SGPR(fmt.Sprintf("PackKForV%d", v), 0), mask)
		m.Set(isa.SGPR(fmt.Sprintf("PackKForMV%d", v), 0), mask)
	}

	if err := m.Run(res.Read); err != nil {
		return report{}, err
	}
	if err := m.Run(res.Pack); err != nil {
		return report{}, err
	}
	return report{
		reads:     len(rs),
		readBytes: lo.SumBy(rs, func(i *isa.Instruction) int { return i.Op.ReadBytes() * len(i.DS.Offsets()) }),
		pack:      res.Pack.Count(),
		executed:  m.Executed,
		failures:  len(m.Failures),
		ldsBytes:  size,
	}, nil
}
