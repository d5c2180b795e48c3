package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"recipebox/internal/blob"
)

func newURLCmd(a *app) *cobra.Command {
	var expiry time.Duration
	cmd := &cobra.Command{
		Use:   "url <key>",
		Short: "Print a time-limited download URL for a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := a.exporter.URL(cmd.Context(), args[0], expiry)
			if err != nil {
				return fmt.Errorf("url for %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	cmd.Flags().DurationVar(&expiry, "expiry", blob.DefaultURLExpiry, "URL lifetime")
	return cmd
}
