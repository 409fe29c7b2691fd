// Command podscript generates podcast marketing content (episode titles, a
// description and a blog post) from an audio file or a text manuscript.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/podscript-ai/podscript/pkg/logging"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		logging.NewLogger(context.Background()).Errorf("%v", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "podscript",
		Short:         "Generate podcast titles, descriptions and blog posts from episodes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newHistoryCmd())
	return root
}
