package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const versionCmdName = "version"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   versionCmdName,
		Short: "Print the recipebox-snapshot version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "recipebox-snapshot", version)
		},
	}
}
