package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pagemirror/internal/pkg/config"
)

var cfg *viper.Viper

func rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pagemirror",
		Short: "Mirror a web page and its same-origin assets to disk",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Initialize config here, after cobra parsed the flags
			config.BindFlags(cmd.Flags())
			if err := config.InitConfig(); err != nil {
				return fmt.Errorf("error initializing config: %w", err)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				cmd.Help()
			}
		},
	}

	rootCmd.PersistentFlags().String("config-file", "", "Path to a config file, instead of the default ~/.pagemirror-config.yaml")
	rootCmd.PersistentFlags().String("log-level", "info", "Stdout log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("no-log-file", false, "Disable JSON file logging in the job directory")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored stdout logging")

	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// Run builds the command tree and executes it
func Run() error {
	cfg = viper.GetViper()
	return rootCmd().Execute()
}
