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

// Command lrgen prints the LDS read and pack sequences of a kernel
// configuration and runs them on the simulator.
//
// Usage:
//
//	lrgen gen -c kernel.yaml -t A -b 0 -i 0
//	lrgen check -c kernel.yaml --ones
//	lrgen version
//
// The kernel file is the YAML form of kernel.File: a "kernel" mapping with
// the resolved configuration and a "tensors" list with one descriptor per
// operand.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajroetker/lrgen/kernel"
	"github.com/ajroetker/lrgen/localread"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the flags shared by the subcommands.
type options struct {
	verbose bool
	config  string
	tensors []string
	buffer  int
	iui     int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "lrgen",
		Short:         "Generate GPU local-read instruction sequences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log generation details to stderr")
	root.AddCommand(newGenCmd(opts), newCheckCmd(opts), newVersionCmd())
	return root
}

// addKernelFlags registers the kernel selection flags of gen and check.
func (o *options) addKernelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.config, "config", "c", "", "kernel YAML file (required)")
	cmd.Flags().StringSliceVarP(&o.tensors, "tensor", "t", nil, "operands to generate (A, B, Metadata); default all")
	cmd.Flags().IntVarP(&o.buffer, "buffer", "b", 0, "compute register buffer index")
	cmd.Flags().IntVarP(&o.iui, "iui", "i", 0, "inner unroll index")
	_ = cmd.MarkFlagRequired("config")
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// job is a loaded kernel with the operands selected on the command line.
type job struct {
	file    *kernel.File
	tensors []kernel.Tensor
	gen     localread.Generator
	session *localread.Session
}

func (o *options) load(cmd *cobra.Command) (*job, error) {
	f, err := kernel.Load(o.config)
	if err != nil {
		return nil, err
	}
	tensors := f.Tensors
	if len(o.tensors) > 0 {
		tensors = nil
		for _, name := range o.tensors {
			k, err := kernel.ParseKind(name)
			if err != nil {
				return nil, err
			}
			t, ok := f.Tensor(k)
			if !ok {
				return nil, fmt.Errorf("%s has no %s tensor", o.config, k)
			}
			tensors = append(tensors, t)
		}
	}
	if len(tensors) == 0 {
		return nil, fmt.Errorf("%s lists no tensors", o.config)
	}
	g, err := localread.New(&f.Kernel)
	if err != nil {
		return nil, err
	}
	logger := o.logger(cmd)
	logger.Debug("loaded kernel", slog.String("path", o.config), slog.Int("tensors", len(tensors)))
	return &job{
		file:    f,
		tensors: tensors,
		gen:     g,
		session: localread.NewSession(localread.WithLogger(logger)),
	}, nil
}

func (j *job) generate(cmd *cobra.Command, o *options) ([]localread.Result, error) {
	return localread.GenerateOperands(cmd.Context(), j.gen, j.session, o.buffer, o.iui, 0, j.tensors...)
}

func newGenCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Print the read and pack sequences of each operand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := opts.load(cmd)
			if err != nil {
				return err
			}
			results, err := j.generate(cmd, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			reads, packs := localread.Modules(results)
			for i := range reads {
				fmt.Fprint(out, reads[i].String())
				fmt.Fprint(out, packs[i].String())
			}
			return nil
		},
	}
	opts.addKernelFlags(cmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lrgen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lrgen %s\n", version)
		},
	}
}
