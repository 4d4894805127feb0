package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ocentra/ocentra-games/internal/config"
)

// Version is set at build time with -ldflags.
var Version = "dev"

const flagHome = "home"

// NewRootCmd creates the matchd root command. It is called once in main.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "matchd",
		Short:         "Card match state machine served over ABCI",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().String(flagHome, ".matchd", "app home directory (config under <home>/config, state under <home>/"+config.DefaultDBDir+")")

	rootCmd.AddCommand(
		initCmd(),
		startCmd(),
		genesisCmd(),
		mkidCmd(),
		versionCmd(),
	)
	return rootCmd
}

func homeFlag(cmd *cobra.Command) string {
	home, _ := cmd.Flags().GetString(flagHome)
	return home
}
