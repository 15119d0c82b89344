package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gqcore/gqcore/cmd"
	"github.com/gqcore/gqcore/pkg/gqcore"
)

func printVersion() {
	fmt.Println(gqcore.Version)
}

func versionMain(command *cobra.Command, arguments []string) error {
	printVersion()
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run:   cmd.Mainify(versionMain),
}
