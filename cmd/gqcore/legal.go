package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gqcore/gqcore/cmd"
	"github.com/gqcore/gqcore/pkg/gqcore"
)

func printLegal() {
	fmt.Print(gqcore.LegalNotice)
}

func legalMain(command *cobra.Command, arguments []string) error {
	printLegal()
	return nil
}

var legalCommand = &cobra.Command{
	Use:   "legal",
	Short: "Show legal information",
	Run:   cmd.Mainify(legalMain),
}
