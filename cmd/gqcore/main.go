package main

import (
	"os"

	"github.com/spf13/cobra"
)

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		printVersion()
		return
	}
	if rootConfiguration.legal {
		printLegal()
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "gqcore",
	Short: "gqcore manages, searches, and serves a local image collection.",
	Run:   rootMain,
}

var rootConfiguration struct {
	help    bool
	version bool
	legal   bool
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")
	flags.BoolVarP(&rootConfiguration.legal, "legal", "l", false, "Show legal information")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		serveCommand,
		remoteCommand,
		searchCommand,
		cacheCommand,
		versionCommand,
		legalCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
