package main

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/ternarybob/conduit-e2e/internal/runner"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the go toolchain and Chrome are installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		tools, err := runner.CheckTooling(exec.LookPath, config.Browser.ExecPath, true)
		for _, t := range tools {
			if t.Found {
				fmt.Printf("%s %s: %s\n", runner.SymbolOK, t.Name, t.Path)
			} else {
				fmt.Printf("%s %s: not found\n", runner.SymbolError, t.Name)
			}
		}
		return err
	},
}
