package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagemirror/internal/pkg/utils"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of pagemirror",
		Run: func(_ *cobra.Command, _ []string) {
			version := utils.GetVersion()
			fmt.Println("pagemirror", version.Version)
			fmt.Println("  built with", version.GoVersion)
		},
	}
}
