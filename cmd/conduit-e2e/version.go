package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/conduit-e2e/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		common.PrintBanner()
		fmt.Printf("Conduit E2E version %s\n", common.GetFullVersion())
	},
}
