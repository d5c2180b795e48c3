package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"recipebox/internal/core"
)

var errViolations = errors.New("snapshot failed integrity check")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <key>",
		Short: "Check a snapshot for duplicate keys and dangling references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]
			doc, err := a.exporter.Import(ctx, key)
			if err != nil {
				return err
			}
			res, err := core.CheckSnapshot(ctx, doc.Snapshot)
			if err != nil {
				return fmt.Errorf("check %s: %w", key, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (version %d, exported %s)\n", key, doc.Version, doc.ExportedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "stored:     %d recipes, %d authors, %d ingredients\n", len(doc.Recipes), len(doc.Authors), len(doc.Ingredients))
			fmt.Fprintf(out, "importable: %d recipes, %d authors, %d ingredients\n",
				len(a.store.ListRecipes()), len(a.store.ListAuthors()), len(a.store.ListIngredients()))
			for _, v := range res.Violations {
				fmt.Fprintf(out, "%s\t%s\t%s\n", v.Severity, v.Rule, v.Message)
			}
			if res.HasBlocking() {
				return fmt.Errorf("%s: %w (%d violations)", key, errViolations, len(res.Violations))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}
