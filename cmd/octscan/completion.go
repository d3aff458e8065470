package main

import (
	"github.com/spf13/cobra"

	"github.com/julianknutsen/octscan/internal/registry"
)

// completeModelIDs completes --model values from the registry.
func completeModelIDs(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return registry.Default().IDs(), cobra.ShellCompDirectiveNoFileComp
}
