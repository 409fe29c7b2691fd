package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/podscript-ai/podscript/pkg/model"
)

func newHistoryCmd() *cobra.Command {
	var (
		show       string
		exportFlag bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or export saved generation history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := buildPipeline(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if show == "" {
				shows, err := p.store.Shows()
				if err != nil {
					return err
				}
				if len(shows) == 0 {
					fmt.Fprintln(out, "no history yet")
					return nil
				}
				for _, name := range shows {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			if exportFlag {
				return p.store.Export(os.Stdout, show)
			}

			for _, artifactType := range model.AllArtifactTypes() {
				entries, err := p.store.Recent(show, artifactType, 0)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					fmt.Fprintf(out, "[%s] %s\n%s\n\n",
						entry.Type, entry.InsertedAt.Format("2006-01-02 15:04"), entry.Payload)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "show to inspect (default: list all shows)")
	cmd.Flags().BoolVar(&exportFlag, "export", false, "dump the show's history as JSON")
	return cmd
}
