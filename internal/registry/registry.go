// Package registry maps model identifiers to the metadata needed to load
// and bind an exported SavedModel.
package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownModel indicates the model identifier is not in the registry.
var ErrUnknownModel = errors.New("unknown model")

// UnknownModelError names the identifier that failed to resolve.
type UnknownModelError struct {
	ID string
}

func (e *UnknownModelError) Error() string { return e.ID }
func (e *UnknownModelError) Unwrap() error { return ErrUnknownModel }

// Entry is the static part of a model's metadata.
type Entry struct {
	ID     string // identifier passed on the command line, e.g. "VGG16"
	Subdir string // directory under the base model dir
	Input  string // serving signature input name
	Output string // serving signature output name
}

// ModelDetail is an Entry bound to a base model directory.
type ModelDetail struct {
	ID      string
	Subdir  string
	BaseDir string
	Input   string
	Output  string
}

// Dir returns the on-disk SavedModel directory.
func (d ModelDetail) Dir() string {
	return filepath.Join(d.BaseDir, d.Subdir)
}

// Registry is an immutable table of known models.
type Registry struct {
	entries []Entry
}

// New builds a registry from entries. Duplicate or empty identifiers are rejected.
func New(entries ...Entry) (Registry, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.Subdir == "" || e.Input == "" || e.Output == "" {
			return Registry{}, fmt.Errorf("registry entry %q: id, subdir, input and output are required", e.ID)
		}
		if seen[e.ID] {
			return Registry{}, fmt.Errorf("registry entry %q: duplicate id", e.ID)
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return Registry{entries: out}, nil
}

// Default returns the registry of models shipped with the application.
func Default() Registry {
	return Registry{entries: []Entry{
		{ID: "VGG16", Subdir: "vgg", Input: "vgg_input", Output: "vgg_output"},
		{ID: "CUSTOM", Subdir: "custom", Input: "custom_input", Output: "custom_output"},
	}}
}

// Resolve returns the detail for id rooted at baseDir.
func (r Registry) Resolve(id, baseDir string) (ModelDetail, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return ModelDetail{
				ID:      e.ID,
				Subdir:  e.Subdir,
				BaseDir: baseDir,
				Input:   e.Input,
				Output:  e.Output,
			}, nil
		}
	}
	return ModelDetail{}, &UnknownModelError{ID: id}
}

// Has reports whether id is a known model.
func (r Registry) Has(id string) bool {
	_, err := r.Resolve(id, "")
	return err == nil
}

// IDs returns the known identifiers in registration order.
func (r Registry) IDs() []string {
	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.ID
	}
	return ids
}

// Entries returns a copy of the registry entries.
func (r Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Describe renders the known identifiers for help text, e.g. "VGG16, CUSTOM".
func (r Registry) Describe() string {
	return strings.Join(r.IDs(), ", ")
}
