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
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/ajroetker/lrgen/isa"
	"github.com/ajroetker/lrgen/kernel"
)

// Each testdata archive holds a kernel.yaml and a want file listing, per
// operand, the expected number of reads and pack instructions.
func TestFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			require.NoError(t, err)
			files := make(map[string][]byte)
			for _, f := range ar.Files {
				files[f.Name] = f.Data
			}
			require.Contains(t, files, "kernel.yaml")
			require.Contains(t, files, "want")

			kf, err := kernel.Parse(files["kernel.yaml"])
			require.NoError(t, err)
			g, err := New(&kf.Kernel)
			require.NoError(t, err)
			s := NewSession()

			for _, line := range strings.Split(strings.TrimSpace(string(files["want"])), "\n") {
				var name string
				var wantReads, wantPack int
				_, err := fmt.Sscanf(line, "%s reads=%d pack=%d", &name, &wantReads, &wantPack)
				require.NoError(t, err, "want line %q", line)
				kind, err := kernel.ParseKind(name)
				require.NoError(t, err)
				tensor, ok := kf.Tensor(kind)
				require.True(t, ok, "no tensor for %s", name)

				res, err := g.Generate(s, 0, 0, 0, tensor)
				require.NoError(t, err)
				assert.Equal(t, wantReads, res.Read.CountKind(isa.OpKindLDSRead), "%s reads", name)
				assert.Equal(t, wantPack, res.Pack.Count(), "%s pack", name)
			}
			assert.Zero(t, s.Pool.InUse())
		})
	}
}
