package main

import (
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/abelbrown/filmpick/internal/fetch"
	"github.com/abelbrown/filmpick/internal/film"
	"github.com/abelbrown/filmpick/internal/otel"
)

func newRandomCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Print a random batch of films",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := setup(cmd, o)
			if err != nil {
				return err
			}
			defer cleanup()

			events := otel.NewNullLogger()
			defer events.Close()
			loader := fetch.NewCatalogLoader(newClient(cfg, events), cfg.API.CatalogPaths...)

			films, err := loader.Fetch(cmd.Context(), cfg.Workflow.CatalogLimit)
			if err != nil {
				return err
			}
			return writeFilms(cmd.OutOrStdout(), films, asJSON, false)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

// writeFilms prints one film per line, or the whole list as JSON. ranked
// prefixes each line with its position.
func writeFilms(w io.Writer, films []film.Film, asJSON, ranked bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(films)
	}
	if len(films) == 0 {
		printf(w, "no films\n")
		return nil
	}
	for i, f := range films {
		line := f.Title
		if parts := f.MetaParts(); len(parts) > 0 {
			line += "  " + strings.Join(parts, " · ")
		}
		if ranked {
			printf(w, "%2d. %s\n", i+1, line)
		} else {
			printf(w, "%s\n", line)
		}
	}
	return nil
}
