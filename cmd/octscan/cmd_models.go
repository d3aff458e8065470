package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/octscan/internal/registry"
	"github.com/julianknutsen/octscan/internal/resource"
	"github.com/julianknutsen/octscan/internal/style"
)

func newModelsCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models octscan can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModels(cmd, stdout, stderr)
		},
	}
	cmd.Flags().Bool("json", false, "Print model IDs as JSON")
	return cmd
}

func runModels(cmd *cobra.Command, stdout, _ io.Writer) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	reg := registry.Default()
	if jsonOut {
		return json.NewEncoder(stdout).Encode(reg.IDs())
	}

	explicit, _ := cmd.Flags().GetString("models")
	base, baseErr := resource.ModelDir(explicit)

	tbl := style.NewTable(
		style.Column{Name: "MODEL", Width: 8},
		style.Column{Name: "DIR", Width: 8},
		style.Column{Name: "INPUT", Width: 14},
		style.Column{Name: "OUTPUT", Width: 14},
		style.Column{Name: "BUNDLE", Width: 10},
	)
	for _, e := range reg.Entries() {
		status := style.Dim.Render("unknown")
		if baseErr == nil {
			if fi, err := os.Stat(filepath.Join(base, e.Subdir)); err == nil && fi.IsDir() {
				status = style.Success.Render(style.IconPass + " found")
			} else {
				status = style.Warning.Render(style.IconWarn + " missing")
			}
		}
		tbl.AddRow(e.ID, e.Subdir, e.Input, e.Output, status)
	}
	fmt.Fprint(stdout, tbl.Render())

	if baseErr != nil {
		fmt.Fprintf(stdout, "\n  %s\n", style.Dim.Render(baseErr.Error()))
	} else {
		fmt.Fprintf(stdout, "\n  %s\n", style.Dim.Render("model directory: "+base))
	}
	return nil
}
