package main

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/spf13/cobra"

	"github.com/rogpeppe/patterntree"
	"github.com/rogpeppe/patterntree/gosrc"
	"github.com/rogpeppe/patterntree/internal/cueinput"
	"github.com/rogpeppe/patterntree/universe"
)

type rootFlags struct {
	verbose bool
	path    string
}

// compiled holds everything derived from one input.
type compiled struct {
	ctx      *cue.Context
	universe *universe.Universe
	tree     *patterntree.Tree
}

func (f *rootFlags) compile(args []string) (*compiled, error) {
	ctx := cuecontext.New()
	v, err := cueinput.Load(ctx, args, f.path)
	if err != nil {
		return nil, cueError(err)
	}
	in, err := cueinput.Decode(v)
	if err != nil {
		return nil, cueError(err)
	}
	u := in.Universe()
	t, err := in.Tree(u)
	if err != nil {
		return nil, err
	}
	return &compiled{
		ctx:      ctx,
		universe: u,
		tree:     t,
	}, nil
}

// trace starts trace logging if requested and
// returns a function that stops it.
func (f *rootFlags) trace(cmd *cobra.Command) func() {
	if !f.verbose {
		return func() {}
	}
	patterntree.LogTo(cmd.ErrOrStderr())
	return func() {
		patterntree.LogTo(nil)
	}
}

// cueError returns err with any CUE error positions spelled
// out in its message. The original error remains reachable
// through errors.Unwrap.
func cueError(err error) error {
	return &detailedError{
		err: err,
	}
}

type detailedError struct {
	err error
}

func (e *detailedError) Error() string {
	return errors.Details(e.err, nil)
}

func (e *detailedError) Unwrap() error {
	return e.err
}

func newEmitCmd(flags *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "emit <cue-files-or-package>...",
		Short: "print the program emitted for the input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer flags.trace(cmd)()
			c, err := flags.compile(args)
			if err != nil {
				return err
			}
			p := c.tree.Emit()
			switch format {
			case "text":
				fmt.Fprint(cmd.OutOrStdout(), p)
			case "cue":
				data, err := cueinput.EncodeProgram(c.ctx, p)
				if err != nil {
					return err
				}
				cmd.OutOrStdout().Write(data)
			default:
				return fmt.Errorf("unknown output format %q", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format (text or cue)")
	return cmd
}

func newTreeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <cue-files-or-package>...",
		Short: "print the decision tree built for the input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer flags.trace(cmd)()
			c, err := flags.compile(args)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), c.tree)
			return nil
		},
	}
}

func newDiagramCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diagram <cue-files-or-package>...",
		Short: "print a mermaid flowchart of the decision tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer flags.trace(cmd)()
			c, err := flags.compile(args)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), patterntree.Mermaid(c.tree))
			return nil
		},
	}
}

func newGosrcCmd(flags *rootFlags) *cobra.Command {
	var cfg gosrc.Config
	cmd := &cobra.Command{
		Use:   "gosrc <cue-files-or-package>...",
		Short: "print Go source implementing the emitted program",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer flags.trace(cmd)()
			c, err := flags.compile(args)
			if err != nil {
				return err
			}
			src, err := gosrc.Generate(c.tree.Emit(), c.universe, cfg)
			if err != nil {
				return err
			}
			cmd.OutOrStdout().Write(src)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Package, "package", "main", "package name of the generated file")
	cmd.Flags().StringVar(&cfg.Func, "func", "match", "name of the generated dispatch function")
	return cmd
}
