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

// Package regpool hands out scoped temporary scalar registers.
//
// A Pool owns a contiguous range of SGPRs. Acquire returns a Guard for a run
// of consecutive registers; the run is returned to the pool by Release,
// which is safe to call more than once and is meant to be deferred:
//
//	g, err := pool.Acquire(1)
//	if err != nil {
//	    return err
//	}
//	defer g.Release()
//	emit(isa.SMovB32(g.Operand(), isa.Imm(0x3c003c00), ""))
package regpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ajroetker/lrgen/isa"
)

// ErrExhausted is returned when no run of the requested size is free.
var ErrExhausted = errors.New("register pool exhausted")

// Pool is a set of scalar registers [base, base+size). It is safe for
// concurrent use.
type Pool struct {
	mu   sync.Mutex
	base int
	used []bool
}

// New returns a pool of size registers starting at absolute register base.
func New(base, size int) *Pool {
	return &Pool{base: base, used: make([]bool, size)}
}

// Acquire reserves n consecutive registers, first fit.
func (p *Pool) Acquire(n int) (*Guard, error) {
	if n <= 0 {
		return nil, fmt.Errorf("acquire %d registers: count must be positive", n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	run := 0
	for i, u := range p.used {
		if u {
			run = 0
			continue
		}
		run++
		if run == n {
			start := i - n + 1
			for j := start; j <= i; j++ {
				p.used[j] = true
			}
			return &Guard{pool: p, start: start, n: n}, nil
		}
	}
	return nil, fmt.Errorf("acquire %d of %d registers: %w", n, len(p.used), ErrExhausted)
}

// InUse returns the number of registers currently reserved.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, u := range p.used {
		if u {
			n++
		}
	}
	return n
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return len(p.used)
}

func (p *Pool) release(start, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for j := start; j < start+n; j++ {
		p.used[j] = false
	}
}

// Guard is a reservation of consecutive registers.
type Guard struct {
	pool  *Pool
	start int
	n     int
	once  sync.Once
}

// Index returns the absolute number of the first register.
func (g *Guard) Index() int {
	return g.pool.base + g.start
}

// Len returns the number of reserved registers.
func (g *Guard) Len() int {
	return g.n
}

// Operand returns the first reserved register.
func (g *Guard) Operand() isa.Operand {
	return isa.SGPRIndex(g.Index())
}

// Release returns the registers to the pool. Only the first call has an
// effect.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	g.once.Do(func() { g.pool.release(g.start, g.n) })
}
