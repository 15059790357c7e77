package main

import (
	"github.com/spf13/cobra"

	"github.com/abelbrown/filmpick/internal/controller"
	"github.com/abelbrown/filmpick/internal/fetch"
	"github.com/abelbrown/filmpick/internal/otel"
	"github.com/abelbrown/filmpick/internal/selection"
)

func newRecommendCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "recommend TITLE...",
		Short: "Print recommendations for the given liked titles",
		Example: `  filmpick recommend "Alien" "Heat"
  filmpick recommend --top-n 5 --json "Ran"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := setup(cmd, o)
			if err != nil {
				return err
			}
			defer cleanup()

			// The same selection rules as the interactive workflow apply.
			sel := selection.New(cfg.Workflow.MaxSelected)
			for _, title := range args {
				if sel.Contains(title) {
					continue
				}
				if _, err := sel.Toggle(title); err != nil {
					return err
				}
			}
			if sel.Len() == 0 {
				return controller.ErrEmptySelection
			}

			events := otel.NewNullLogger()
			defer events.Close()
			rc := fetch.NewRecommendationClient(newClient(cfg, events), cfg.API.RecommendPath)

			recs, err := rc.Recommend(cmd.Context(), sel.Titles(), cfg.Workflow.TopN)
			if err != nil {
				return err
			}
			return writeFilms(cmd.OutOrStdout(), recs, asJSON, true)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}
