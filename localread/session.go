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
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/ajroetker/lrgen/isa"
	"github.com/ajroetker/lrgen/kernel"
	"github.com/ajroetker/lrgen/regpool"
)

// Asserter builds the debug comparison of a register against an expected
// value. The kernel writer usually expands it into a compare and trap.
type Asserter interface {
	AssertEq(reg, expected isa.Operand) isa.Item
}

// AsserterFunc adapts a function to Asserter.
type AsserterFunc func(reg, expected isa.Operand) isa.Item

func (f AsserterFunc) AssertEq(reg, expected isa.Operand) isa.Item { return f(reg, expected) }

// InlineAsserter emits a single assert_eq pseudo instruction.
var InlineAsserter Asserter = AsserterFunc(func(reg, expected isa.Operand) isa.Item {
	return isa.AssertEq(reg, expected, "")
})

// OffsetConverter remaps a byte offset for direct-to-LDS layouts whose
// global loads wrote more than a dword per lane.
type OffsetConverter interface {
	ConvertOffset(cfg *kernel.Config, t kernel.Tensor, offset int) int
}

// OffsetConverterFunc adapts a function to OffsetConverter.
type OffsetConverterFunc func(cfg *kernel.Config, t kernel.Tensor, offset int) int

func (f OffsetConverterFunc) ConvertOffset(cfg *kernel.Config, t kernel.Tensor, offset int) int {
	return f(cfg, t, offset)
}

// IdentityConverter leaves offsets unchanged.
var IdentityConverter OffsetConverter = OffsetConverterFunc(func(_ *kernel.Config, _ kernel.Tensor, offset int) int {
	return offset
})

// Default scratch SGPR range of a session.
const (
	DefaultTmpSgprBase = 0
	DefaultTmpSgprs    = 8
)

// Session is the state shared by the generation calls of one kernel. The
// counters are atomic and the pool is locked, so a session may be shared by
// concurrent calls on different operands.
type Session struct {
	counts [3]atomic.Int64

	Pool      *regpool.Pool
	Logger    *slog.Logger
	Asserter  Asserter
	Converter OffsetConverter
}

// Option configures a Session.
type Option func(*Session)

// WithPool sets the temporary SGPR pool.
func WithPool(p *regpool.Pool) Option { return func(s *Session) { s.Pool = p } }

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.Logger = l } }

// WithAsserter sets the debug assertion builder.
func WithAsserter(a Asserter) Option { return func(s *Session) { s.Asserter = a } }

// WithOffsetConverter sets the direct-to-LDS offset converter.
func WithOffsetConverter(c OffsetConverter) Option { return func(s *Session) { s.Converter = c } }

// NewSession returns a session with a discarding logger, the inline
// asserter and the identity offset converter unless overridden.
func NewSession(opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.Pool == nil {
		s.Pool = regpool.New(DefaultTmpSgprBase, DefaultTmpSgprs)
	}
	if s.Logger == nil {
		s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.Asserter == nil {
		s.Asserter = InlineAsserter
	}
	if s.Converter == nil {
		s.Converter = IdentityConverter
	}
	return s
}

// Count returns how many read sequences were generated for operand k.
func (s *Session) Count(k kernel.Kind) int64 {
	if k < 0 || int(k) >= len(s.counts) {
		return 0
	}
	return s.counts[k].Load()
}

func (s *Session) count(k kernel.Kind) {
	if k >= 0 && int(k) < len(s.counts) {
		s.counts[k].Add(1)
	}
}
