package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/octscan/internal/config"
	"github.com/julianknutsen/octscan/internal/registry"
	"github.com/julianknutsen/octscan/internal/resource"
)

// skipConfigAnnotation marks commands that must run even when the settings
// file is unreadable.
const skipConfigAnnotation = "octscan/skip-config"

// configPath returns --config, or the XDG default.
func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	return config.Path()
}

// loadConfig reads the settings file and copies its values into flags the
// user did not set. Values backed by an environment variable are skipped
// while that variable is set.
func loadConfig(cmd *cobra.Command) error {
	if cmd.Annotations[skipConfigAnnotation] != "" {
		return nil
	}
	path := configPath(cmd)
	f, err := config.Load(path)
	if err != nil {
		return &HintedError{Err: err, Hint: fmt.Sprintf("fix or remove %s", path)}
	}
	return applyConfig(cmd, f)
}

func applyConfig(cmd *cobra.Command, f *config.File) error {
	port := ""
	if f.Serve.Port != 0 {
		port = strconv.Itoa(f.Serve.Port)
	}
	for _, s := range []struct{ flag, env, value string }{
		{"models", resource.EnvModels, f.Models},
		{"log-dir", resource.EnvLogDir, f.LogDir},
		{"worker", resource.EnvWorker, f.Worker},
		{"model", "", f.Model},
		{"host", "", f.Serve.Host},
		{"port", "", port},
	} {
		fl := cmd.Flags().Lookup(s.flag)
		if fl == nil || fl.Changed || s.value == "" {
			continue
		}
		if s.env != "" && os.Getenv(s.env) != "" {
			continue
		}
		if err := cmd.Flags().Set(s.flag, s.value); err != nil {
			return fmt.Errorf("config %s: %w", s.flag, err)
		}
	}
	return nil
}

func newConfigCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Show the settings file",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		Long: `Show the location and contents of octscan's settings file.

Settings fill in defaults only. Flags and environment variables
(OCTSCAN_MODELS, OCTSCAN_LOG_DIR, OCTSCAN_WORKER) take precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath(cmd)
			f, err := config.Load(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "# %s\n", path)
			data, err := config.Encode(f)
			if err != nil {
				return err
			}
			_, err = stdout.Write(data)
			return err
		},
	}

	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a settings file with the default model",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath(cmd)
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return &HintedError{
					Err:  fmt.Errorf("%s already exists", path),
					Hint: "pass --force to overwrite it",
				}
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			model, _ := cmd.Flags().GetString("model")
			if !registry.Default().Has(model) {
				return hintWrap(&registry.UnknownModelError{ID: model})
			}
			if err := config.Save(path, &config.File{Model: model}); err != nil {
				return err
			}
			fmt.Fprintf(stderr, "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringP("model", "m", defaultModel, "Default model to record")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	_ = initCmd.RegisterFlagCompletionFunc("model", completeModelIDs)

	cmd.AddCommand(initCmd)
	return cmd
}
