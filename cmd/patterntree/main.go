// The patterntree command compiles the cases described by a CUE
// input into a decision tree and prints the tree, its diagram,
// the emitted program or Go source implementing it.
//
// Usage:
//
//	patterntree emit [-o text|cue] <cue-files-or-package>...
//	patterntree tree <cue-files-or-package>...
//	patterntree diagram <cue-files-or-package>...
//	patterntree gosrc [--package name] [--func name] <cue-files-or-package>...
//
// See package internal/cueinput for the input format.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:          "patterntree [subcommand]",
		Short:        "compile structural patterns into a decision tree",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "trace tree construction and emission to stderr")
	root.PersistentFlags().StringVarP(&flags.path, "path", "p", "", "CUE path of the input within the instance")
	root.AddCommand(
		newEmitCmd(&flags),
		newTreeCmd(&flags),
		newDiagramCmd(&flags),
		newGosrcCmd(&flags),
	)
	return root
}
