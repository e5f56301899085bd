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

package regpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	p := New(40, 4)

	a, err := p.Acquire(1)
	require.NoError(t, err)
	assert.Equal(t, 40, a.Index())
	assert.Equal(t, "s40", a.Operand().String())

	b, err := p.Acquire(2)
	require.NoError(t, err)
	assert.Equal(t, 41, b.Index())
	assert.Equal(t, 3, p.InUse())

	a.Release()
	a.Release()
	assert.Equal(t, 2, p.InUse(), "double release frees once")

	c, err := p.Acquire(1)
	require.NoError(t, err)
	assert.Equal(t, 40, c.Index(), "first fit reuses the freed slot")

	_, err = p.Acquire(2)
	assert.ErrorIs(t, err, ErrExhausted)

	b.Release()
	c.Release()
	assert.Zero(t, p.InUse())
}

func TestAcquireInvalid(t *testing.T) {
	p := New(0, 2)
	_, err := p.Acquire(0)
	assert.Error(t, err)
	_, err = p.Acquire(3)
	assert.ErrorIs(t, err, ErrExhausted)

	var g *Guard
	g.Release()
}

func TestConcurrentAcquire(t *testing.T) {
	p := New(0, 8)
	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				g, err := p.Acquire(1)
				if err != nil {
					continue
				}
				assert.Less(t, g.Index(), 8)
				g.Release()
				return
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, p.InUse())
	assert.Equal(t, 8, p.Size())
}
