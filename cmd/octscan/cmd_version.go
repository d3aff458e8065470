package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/octscan/internal/registry"
)

type versionInfo struct {
	Version string   `json:"version"`
	Commit  string   `json:"commit"`
	Built   string   `json:"built"`
	Go      string   `json:"go"`
	Models  []string `json:"models"`
}

func currentVersion() versionInfo {
	return versionInfo{
		Version: version,
		Commit:  commit,
		Built:   date,
		Go:      runtime.Version(),
		Models:  registry.Default().IDs(),
	}
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the octscan build and the model names this build recognizes.

With --json the same information is written as one JSON object, for
bug reports and scripts.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			v := currentVersion()
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}
			fmt.Fprintf(stdout, "octscan %s (commit: %s, built: %s)\n", v.Version, v.Commit, v.Built)
			fmt.Fprintf(stdout, "%s, models: %d\n", v.Go, len(v.Models))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version information as JSON")
	cmd.Annotations = map[string]string{skipConfigAnnotation: "true"}
	return cmd
}
