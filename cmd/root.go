// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the command-line interface for the inspect
// gateway daemon. The daemon sits between HTTP callers and a single
// server manager, serializing all inspect state queries.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/statefold/inspect/cmd/serve"
)

var rootCmd = &cobra.Command{
	Use:   "inspectd",
	Short: "Serialized inspect gateway for a server manager",
}

func init() {
	rootCmd.AddCommand(serve.ServeCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
