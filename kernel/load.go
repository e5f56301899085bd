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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a kernel: the resolved configuration plus
// the tensor descriptors of its operands.
type File struct {
	Kernel  Config   `yaml:"kernel"`
	Tensors []Tensor `yaml:"tensors"`
}

// Tensor returns the descriptor of operand k.
func (f *File) Tensor(k Kind) (Tensor, bool) {
	for _, t := range f.Tensors {
		if t.Kind == k {
			return t, true
		}
	}
	return Tensor{}, false
}

// Load reads and validates a kernel file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading kernel file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a kernel file, applies defaults and validates the result.
// Unknown keys are an error.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding kernel file: %w", err)
	}
	f.Kernel.applyDefaults()
	if err := f.Kernel.Validate(); err != nil {
		return nil, err
	}
	var errs []error
	for _, t := range f.Tensors {
		errs = append(errs, f.Kernel.ValidateTensor(t))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &f, nil
}

// Marshal encodes f as YAML.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Normalize applies the loader defaults to a configuration built in code.
func (c *Config) Normalize() {
	c.applyDefaults()
}
