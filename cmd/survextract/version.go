package main

import (
	"github.com/spf13/cobra"

	"github.com/survextract/survextract/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)

			v, err := newClient().Version(cmd.Context())
			if err == nil {
				cmd.Printf("server: %s %s\n", v.Version, v.GitCommit)
			}
		},
	}
}
