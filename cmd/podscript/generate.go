package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/podscript-ai/podscript/pkg/content"
	"github.com/podscript-ai/podscript/pkg/model"
)

func newGenerateCmd() *cobra.Command {
	var (
		show       string
		audioPath  string
		textPath   string
		language   string
		typeNames  []string
		commitFlag bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate content from an audio file or manuscript",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := buildPipeline(cmd.Context())
			if err != nil {
				return err
			}

			types := make([]model.ArtifactType, 0, len(typeNames))
			for _, name := range typeNames {
				artifactType, ok := model.ParseArtifactType(name)
				if !ok {
					return fmt.Errorf("unknown artifact type %q", name)
				}
				types = append(types, artifactType)
			}

			result, err := p.orch.Process(cmd.Context(), content.Input{
				Show:           show,
				AudioPath:      audioPath,
				ManuscriptPath: textPath,
				Language:       language,
				Types:          types,
			})
			if err != nil {
				return fmt.Errorf("%s", model.UserMessage(err))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source: %s  language: %s  characters: %d\n\n",
				result.Transcript.Source, result.Transcript.Language, len([]rune(result.Transcript.Text)))

			failed := 0
			for _, outcome := range result.Outcomes {
				fmt.Fprintf(out, "== %s ==\n", outcome.Type)
				if outcome.Err != nil {
					failed++
					fmt.Fprintf(out, "failed: %s\n\n", model.UserMessage(outcome.Err))
					continue
				}
				if outcome.Type == model.ArtifactTitles {
					for i, title := range outcome.Artifact.Titles {
						fmt.Fprintf(out, "%d. %s\n", i+1, title)
					}
				} else {
					fmt.Fprintln(out, outcome.Artifact.Body)
				}
				fmt.Fprintln(out)
			}

			if commitFlag {
				if err := p.orch.Commit(show, result.Outcomes); err != nil {
					return err
				}
				fmt.Fprintln(out, "saved to history")
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d artifacts failed", failed, len(result.Outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "show name, used for history and style continuity")
	cmd.Flags().StringVar(&audioPath, "audio", "", "path to an mp3/wav/m4a episode recording")
	cmd.Flags().StringVar(&textPath, "manuscript", "", "path to a .txt manuscript (takes priority over --audio)")
	cmd.Flags().StringVar(&language, "language", "", "output language: ja or en (default: detected)")
	cmd.Flags().StringSliceVar(&typeNames, "types", nil, "artifact types: titles, description, blog (default: all)")
	cmd.Flags().BoolVar(&commitFlag, "commit", false, "save successful results to history")
	_ = cmd.MarkFlagRequired("show")
	return cmd
}
