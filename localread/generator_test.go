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
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/lrgen/kernel"
	"github.com/ajroetker/lrgen/numeric"
	"github.com/ajroetker/lrgen/regpool"
)

func tensorB(ri kernel.ReadInstruction, bpe, bpeDS int) kernel.Tensor {
	return kernel.Tensor{Kind: kernel.KindB, Tile01: 1, BPE: bpe, BPEDS: bpeDS, Instruction: ri}
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := mfmaConfig(numeric.Int8)
	first := generate(t, cfg, tensorA(kernel.DSReadU8, 1, 1))
	second := generate(t, cfg, tensorA(kernel.DSReadU8, 1, 1))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second generation differs (-first +second):\n%s", diff)
	}
}

func TestNewCopiesConfig(t *testing.T) {
	cfg := mfmaConfig(numeric.Half)
	g, err := New(cfg)
	require.NoError(t, err)
	cfg.MIWaveTile = [2]int{8, 8}

	res, err := g.Generate(NewSession(), 0, 0, 0, tensorA(kernel.DSReadU16, 2, 2))
	require.NoError(t, err)
	assert.Len(t, reads(res.Read), 8)
}

func TestNames(t *testing.T) {
	g, err := New(mfmaConfig(numeric.Half))
	require.NoError(t, err)
	res, err := g.Generate(NewSession(), 1, 3, 0, tensorB(kernel.DSReadU16, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, "LocalReadDoB_I3", res.Read.Name)
	assert.Equal(t, "packB_I3", res.Pack.Name)
	assert.Equal(t, ValuPool("B", 1, 3), reads(res.Read)[0].Dst[0].Pool)
	assert.Equal(t, "ValuB_X1_I3", ValuPool("B", 1, 3))
	assert.Equal(t, "ValuB_X1_I3_D2", StagePool("B", 1, 3, 2))
}

func TestGenerateOperands(t *testing.T) {
	cfg := mfmaConfig(numeric.Half)
	g, err := New(cfg)
	require.NoError(t, err)
	tensors := []kernel.Tensor{tensorA(kernel.DSReadU16, 2, 2), tensorB(kernel.DSReadU16, 2, 2)}

	s := NewSession()
	got, err := GenerateOperands(context.Background(), g, s, 0, 0, 0, tensors...)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i, tensor := range tensors {
		want, err := g.Generate(NewSession(), 0, 0, 0, tensor)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got[i]); diff != "" {
			t.Errorf("operand %s differs from sequential generation (-want +got):\n%s", tensor.Kind, diff)
		}
	}
	assert.Equal(t, int64(1), s.Count(kernel.KindA))
	assert.Equal(t, int64(1), s.Count(kernel.KindB))
	assert.Zero(t, s.Count(kernel.KindMetadata))
	assert.Zero(t, s.Pool.InUse())

	readMods, packMods := Modules(got)
	require.Len(t, readMods, 2)
	require.Len(t, packMods, 2)
	assert.Equal(t, "LocalReadDoB_I0", readMods[1].Name)
	assert.Equal(t, "packA_I0", packMods[0].Name)
}

func TestGenerateOperandsCancelled(t *testing.T) {
	g, err := New(mfmaConfig(numeric.Half))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSession()
	_, err = GenerateOperands(ctx, g, s, 0, 0, 0, tensorA(kernel.DSReadU16, 2, 2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Count(kernel.KindA))
}

func TestSessionCount(t *testing.T) {
	g, err := New(mfmaConfig(numeric.Half))
	require.NoError(t, err)
	s := NewSession()
	for range 2 {
		_, err := g.Generate(s, 0, 0, 0, tensorA(kernel.DSReadU16, 2, 2))
		require.NoError(t, err)
	}
	_, err = g.Generate(s, 0, 0, 0, tensorB(kernel.DSReadU16, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Count(kernel.KindA))
	assert.Equal(t, int64(1), s.Count(kernel.KindB))
	assert.Zero(t, s.Count(kernel.Kind(7)))
}

func TestGenerateErrors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		cfg := mfmaConfig(numeric.Half)
		cfg.A.LRVWTile = 3
		_, err := New(cfg)
		assert.ErrorIs(t, err, kernel.ErrInvalidConfig)
	})

	t.Run("two offsets with matrix instructions", func(t *testing.T) {
		g, err := New(mfmaConfig(numeric.Half))
		require.NoError(t, err)
		s := NewSession()
		_, err = g.Generate(s, 0, 0, 0, tensorA(kernel.DSRead2B32, 2, 2))
		assert.ErrorIs(t, err, kernel.ErrInvalidConfig)
		assert.Zero(t, s.Count(kernel.KindA))
	})

	t.Run("metadata split of eight inputs", func(t *testing.T) {
		cfg := mfmaConfig(numeric.Half)
		cfg.Sparse = 1
		cfg.MIWaveTile = [2]int{8, 2}
		cfg.Metadata = kernel.OperandConfig{DepthU: 32, MacroTile: 64, LRVWTile: 2, VectorWidth: 8, MIInputPerThread: 8}
		g, err := New(cfg)
		require.NoError(t, err)
		tensor := kernel.Tensor{Kind: kernel.KindMetadata, BPE: 1, BPEDS: 1, Instruction: kernel.DSReadB64}
		_, err = g.Generate(NewSession(), 0, 0, 0, tensor)
		assert.ErrorIs(t, err, ErrUnsupported)
		assert.ErrorContains(t, err, "local read Metadata")
	})

	t.Run("exhausted scratch registers", func(t *testing.T) {
		cfg := mfmaConfig(numeric.Half)
		cfg.A.CheckValue = true
		g, err := New(cfg)
		require.NoError(t, err)
		_, err = g.Generate(NewSession(WithPool(regpool.New(0, 0))), 0, 0, 0, tensorA(kernel.DSReadU16, 2, 2))
		assert.ErrorIs(t, err, regpool.ErrExhausted)
	})

	t.Run("offset out of range", func(t *testing.T) {
		g, err := New(mfmaConfig(numeric.Half))
		require.NoError(t, err)
		tensor := tensorA(kernel.DSReadU16, 2, 2)
		tensor.LocalReadOffset = 100000
		_, err = g.Generate(NewSession(), 0, 0, 0, tensor)
		assert.ErrorIs(t, err, ErrOffsetRange)
	})
}

func TestGenerateLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	g, err := New(mfmaConfig(numeric.Half))
	require.NoError(t, err)
	_, err = g.Generate(NewSession(WithLogger(logger)), 0, 0, 0, tensorA(kernel.DSReadU16, 2, 2))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="generated local reads"`)
	assert.Contains(t, out, "strategy=mfma")
	assert.Contains(t, out, "operand=A")
	assert.Contains(t, out, "reads=8")
	assert.Contains(t, out, "pack=4")
}
