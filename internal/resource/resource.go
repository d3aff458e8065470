// Package resource resolves the filesystem locations octscan depends on:
// the model bundle directory, the log directory and the worker binary.
package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/julianknutsen/octscan/internal/xdg"
)

// Environment overrides.
const (
	EnvModels = "OCTSCAN_MODELS"
	EnvLogDir = "OCTSCAN_LOG_DIR"
	EnvWorker = "OCTSCAN_WORKER"
)

// WorkerName is the worker executable's base name.
const WorkerName = "oct-tf"

// ErrNotFound indicates none of the candidate locations exist.
var ErrNotFound = errors.New("resource not found")

// ResolutionError lists the candidates tried for a resource.
type ResolutionError struct {
	Resource string
	Tried    []string
	Err      error
}

func (e *ResolutionError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("resolving %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("resolving %s: %v (tried %s)", e.Resource, e.Err, strings.Join(e.Tried, ", "))
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// executable is overridden in tests.
var executable = os.Executable

// ModelDir returns the canonical base model directory. Candidates, in order:
// explicit, $OCTSCAN_MODELS, <exe dir>/resources/models, DataDir()/models.
// An explicitly named directory that does not exist is an error rather than
// a reason to fall through.
func ModelDir(explicit string) (string, error) {
	if explicit != "" {
		return canonicalDir("model directory", explicit)
	}
	if env := os.Getenv(EnvModels); env != "" {
		return canonicalDir("model directory", env)
	}

	var tried []string
	if dir := exeDir(); dir != "" {
		tried = append(tried, filepath.Join(dir, "resources", "models"))
	}
	tried = append(tried, filepath.Join(xdg.DataDir(), "models"))

	for _, c := range tried {
		if isDir(c) {
			return Canonicalize(c)
		}
	}
	return "", &ResolutionError{Resource: "model directory", Tried: tried, Err: ErrNotFound}
}

// LogDir returns the log directory: explicit, $OCTSCAN_LOG_DIR, or StateDir()/logs.
// The directory need not exist yet.
func LogDir(explicit string) (string, error) {
	dir := explicit
	if dir == "" {
		dir = os.Getenv(EnvLogDir)
	}
	if dir == "" {
		dir = filepath.Join(xdg.StateDir(), "logs")
	}
	c, err := Canonicalize(dir)
	if err != nil {
		return "", &ResolutionError{Resource: "log directory", Tried: []string{dir}, Err: err}
	}
	return c, nil
}

// WorkerBinary names the worker executable to launch: explicit,
// $OCTSCAN_WORKER, a sibling of the running executable, or the bare name
// for a PATH lookup at spawn time.
func WorkerBinary(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvWorker); env != "" {
		return env
	}
	name := WorkerName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if dir := exeDir(); dir != "" {
		sibling := filepath.Join(dir, name)
		if fi, err := os.Stat(sibling); err == nil && !fi.IsDir() {
			return sibling
		}
	}
	return WorkerName
}

// Canonicalize returns an absolute path with symlinks resolved. Paths that
// do not exist yet are returned absolute but otherwise untouched.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, os.ErrNotExist) {
		return abs, nil
	}
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func canonicalDir(what, dir string) (string, error) {
	if !isDir(dir) {
		return "", &ResolutionError{Resource: what, Tried: []string{dir}, Err: ErrNotFound}
	}
	c, err := Canonicalize(dir)
	if err != nil {
		return "", &ResolutionError{Resource: what, Tried: []string{dir}, Err: err}
	}
	return c, nil
}

func exeDir() string {
	exe, err := executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
