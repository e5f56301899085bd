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

package isa

import (
	"strings"

	"github.com/samber/lo"
)

// Item is an element of a Module: an *Instruction or a nested *Module.
type Item interface {
	isItem()
}

// Module is an ordered, named instruction sequence. Modules nest; the
// nesting is only structure and does not change execution order, which is
// the depth-first order of Flatten.
type Module struct {
	Name  string
	Items []Item
}

func (*Module) isItem() {}

// NewModule returns an empty named module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// Add appends an instruction or module.
func (m *Module) Add(items ...Item) {
	m.Items = append(m.Items, items...)
}

// AddModule appends and returns a new child module.
func (m *Module) AddModule(name string) *Module {
	child := NewModule(name)
	m.Items = append(m.Items, child)
	return child
}

// Flatten returns every instruction in execution order.
func (m *Module) Flatten() []*Instruction {
	var out []*Instruction
	m.walk(func(i *Instruction) { out = append(out, i) })
	return out
}

func (m *Module) walk(fn func(*Instruction)) {
	for _, it := range m.Items {
		switch v := it.(type) {
		case *Instruction:
			fn(v)
		case *Module:
			v.walk(fn)
		}
	}
}

// Count returns the number of instructions, nested modules included.
func (m *Module) Count() int {
	n := 0
	m.walk(func(*Instruction) { n++ })
	return n
}

// CountOp returns how many instructions use op.
func (m *Module) CountOp(op Opcode) int {
	return lo.CountBy(m.Flatten(), func(i *Instruction) bool { return i.Op == op })
}

// CountKind returns how many instructions fall in kind.
func (m *Module) CountKind(kind OpKind) int {
	return lo.CountBy(m.Flatten(), func(i *Instruction) bool { return i.Op.Kind() == kind })
}

// Modules returns the direct child modules.
func (m *Module) Modules() []*Module {
	return lo.FilterMap(m.Items, func(it Item, _ int) (*Module, bool) {
		mod, ok := it.(*Module)
		return mod, ok
	})
}

// Empty reports whether the module holds no instructions at any depth.
func (m *Module) Empty() bool {
	return m.Count() == 0
}

// Equal compares two modules structurally, names included.
func (m *Module) Equal(o *Module) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Name != o.Name || len(m.Items) != len(o.Items) {
		return false
	}
	for k := range m.Items {
		switch a := m.Items[k].(type) {
		case *Instruction:
			b, ok := o.Items[k].(*Instruction)
			if !ok || !a.Equal(b) {
				return false
			}
		case *Module:
			b, ok := o.Items[k].(*Module)
			if !ok || !a.Equal(b) {
				return false
			}
		}
	}
	return true
}

// String renders the module as assembly text. Module names become
// comments; empty child modules are still listed so the structure is
// visible in the output.
func (m *Module) String() string {
	var sb strings.Builder
	m.write(&sb)
	return sb.String()
}

func (m *Module) write(sb *strings.Builder) {
	if m.Name != "" {
		sb.WriteString("/* ")
		sb.WriteString(m.Name)
		sb.WriteString(" */\n")
	}
	for _, it := range m.Items {
		switch v := it.(type) {
		case *Instruction:
			sb.WriteString(v.String())
			sb.WriteString("\n")
		case *Module:
			v.write(sb)
		}
	}
}
