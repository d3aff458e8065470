// Package config reads octscan's optional TOML settings file.
//
// The file fills in defaults only: a command-line flag or an environment
// variable always wins over a value read here.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/julianknutsen/octscan/internal/xdg"
)

// FileName is the settings file name inside xdg.ConfigDir().
const FileName = "config.toml"

// File is the decoded settings file.
type File struct {
	Models string `toml:"models,omitempty"`
	LogDir string `toml:"log_dir,omitempty"`
	Worker string `toml:"worker,omitempty"`
	Model  string `toml:"model,omitempty"`
	Serve  Serve  `toml:"serve,omitempty"`
}

// Serve holds settings for `octscan serve`.
type Serve struct {
	Host string `toml:"host,omitempty"`
	Port int    `toml:"port,omitempty"`
}

// Path returns the default settings file location.
func Path() string {
	return filepath.Join(xdg.ConfigDir(), FileName)
}

// UnknownKeysError reports keys in the file that octscan does not recognize.
type UnknownKeysError struct {
	Path string
	Keys []string
}

func (e *UnknownKeysError) Error() string {
	return fmt.Sprintf("%s: unknown keys: %s", e.Path, strings.Join(e.Keys, ", "))
}

// Load reads the settings at path. A missing file yields an empty File.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("parsing %s: line %d: %s", path, perr.Position.Line, perr.Message)
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, &UnknownKeysError{Path: path, Keys: keys}
	}
	if f.Serve.Port < 0 || f.Serve.Port > 65535 {
		return nil, fmt.Errorf("%s: serve.port %d out of range", path, f.Serve.Port)
	}
	return &f, nil
}

// Save writes f to path, creating the parent directory.
func Save(path string, f *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := Encode(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode renders f as TOML.
func Encode(f *File) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
