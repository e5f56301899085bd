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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const halfKernel = `
kernel:
  dataType: half
  enableMatrixInstruction: true
  matrixInst: {m: 16, n: 16, k: 16}
  miWaveGroup: [2, 2]
  miWaveTile: [2, 2]
  miInputPerThread: 4
  localReadVectorWidth: 4
  a: {depthU: 32, macroTile: 64, checkValue: true}
  b: {depthU: 32, macroTile: 64}
  caps: {hasEccHalf: true}
tensors:
  - {kind: A, tile01: 0, bpe: 2, bpeDS: 2, instruction: ds_read_u16}
  - {kind: B, tile01: 1, bpe: 2, bpeDS: 2, instruction: ds_read_u16}
`

func writeKernel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kernel.yaml")
	if err := os.WriteFile(path, []byte(halfKernel), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGen(t *testing.T) {
	path := writeKernel(t)
	out, err := run(t, "gen", "-c", path, "-t", "B", "-i", "1")
	if err != nil {
		t.Fatalf("gen: %v", err)
	}
	for _, want := range []string{"/* LocalReadDoB_I1 */", "/* packB_I1 */", "ds_read_u16", "L -> Reg"} {
		if !strings.Contains(out, want) {
			t.Errorf("gen output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "LocalReadDoA") {
		t.Errorf("gen -t B printed operand A")
	}
}

func TestGenOrder(t *testing.T) {
	out, err := run(t, "gen", "-c", writeKernel(t))
	if err != nil {
		t.Fatalf("gen: %v", err)
	}
	last := -1
	for _, name := range []string{"LocalReadDoA_I0", "packA_I0", "LocalReadDoB_I0", "packB_I0"} {
		at := strings.Index(out, "/* "+name+" */")
		if at <= last {
			t.Fatalf("%s out of order in:\n%s", name, out)
		}
		last = at
	}
}

func TestCheck(t *testing.T) {
	path := writeKernel(t)
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "ramp",
			args: []string{"check", "-c", path, "-t", "B"},
			want: []string{"B: 8 reads (16 bytes), 4 pack instructions, 12 executed, 0 assertion failures"},
		},
		{
			name: "ones",
			args: []string{"check", "-c", path, "--ones"},
			want: []string{
				"A: 8 reads (16 bytes), 4 pack instructions, 36 executed, 0 assertion failures",
				"B: 8 reads (16 bytes), 4 pack instructions, 12 executed, 0 assertion failures",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("check output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestCheckFailsOnRampWithDebugChecks(t *testing.T) {
	path := writeKernel(t)
	out, err := run(t, "check", "-c", path, "-t", "A")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "A: 8 reads") || strings.Contains(out, " 0 assertion failures") {
		t.Errorf("expected failed debug checks on a ramp:\n%s", out)
	}
}

func TestErrors(t *testing.T) {
	path := writeKernel(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing config", []string{"gen"}, "config"},
		{"unknown operand", []string{"gen", "-c", path, "-t", "C"}, "unknown operand"},
		{"absent operand", []string{"gen", "-c", path, "-t", "Metadata"}, "no Metadata tensor"},
		{"missing file", []string{"check", "-c", filepath.Join(t.TempDir(), "none.yaml")}, "reading kernel file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "lrgen dev\n" {
		t.Errorf("version = %q", out)
	}
}
