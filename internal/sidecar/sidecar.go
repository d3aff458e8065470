// Package sidecar launches the oct-tf worker and turns its lifecycle into
// an ordered stream of events.
package sidecar

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// MaxLineSize bounds a single output line; a Response line is a few hundred bytes.
const MaxLineSize = 1 << 20

// waitDelay bounds how long Wait blocks on pipes held open by grandchildren
// after the worker has exited or been killed.
const waitDelay = 2 * time.Second

// Kind discriminates Event.
type Kind int

const (
	Stdout Kind = iota
	Stderr
	Error
	Terminated
)

func (k Kind) String() string {
	switch k {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	case Error:
		return "error"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ExitStatus describes how the worker terminated.
type ExitStatus struct {
	Code   int    // -1 when killed by a signal
	Signal string // empty unless killed by a signal
}

func (s ExitStatus) String() string {
	sig := s.Signal
	if sig == "" {
		sig = "none"
	}
	return fmt.Sprintf("code=%d signal=%s", s.Code, sig)
}

// Event is one observation of the worker process.
type Event struct {
	Kind Kind
	Line string      // Stdout, Stderr
	Err  error       // Error
	Exit *ExitStatus // Terminated
}

// Text renders the event payload.
func (e Event) Text() string {
	switch e.Kind {
	case Stdout, Stderr:
		return e.Line
	case Error:
		if e.Err == nil {
			return "unknown error"
		}
		return e.Err.Error()
	case Terminated:
		if e.Exit == nil {
			return "terminated"
		}
		return "terminated: " + e.Exit.String()
	default:
		return ""
	}
}

// Command describes the process to launch.
type Command struct {
	Path string
	Args []string
	Env  []string // appended to the host environment
	Dir  string
}

// SuppressTFLogs silences the TensorFlow runtime's C++ logging.
const SuppressTFLogs = "TF_CPP_MIN_LOG_LEVEL=3"

// WorkerCommand builds the oct-tf invocation for one prediction.
func WorkerCommand(bin, modelDir, model, image string) Command {
	return Command{
		Path: bin,
		Args: []string{"-d", modelDir, "-n", model, "-i", image},
		Env:  []string{SuppressTFLogs},
	}
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// SpawnError indicates the process could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Process is a running worker. Callers must drain Events until it is closed.
type Process struct {
	cmd    *exec.Cmd
	events chan Event
}

// Start launches c. Canceling ctx kills the process; the event stream still
// ends with a Terminated event.
func Start(ctx context.Context, c Command) (*Process, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Path: c.Path, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Path: c.Path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: c.Path, Err: err}
	}

	p := &Process{cmd: cmd, events: make(chan Event, 64)}
	go p.run(stdout, stderr)
	return p, nil
}

// Events returns the event stream. It is closed after the Terminated event.
func (p *Process) Events() <-chan Event { return p.events }

// Pid returns the OS process id.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

func (p *Process) run(stdout, stderr io.Reader) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.scan(stdout, Stdout)
	}()
	go func() {
		defer wg.Done()
		p.scan(stderr, Stderr)
	}()
	wg.Wait()

	err := p.cmd.Wait()
	status := exitStatus(p.cmd.ProcessState)
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.events <- Event{Kind: Error, Err: err}
	}
	p.events <- Event{Kind: Terminated, Exit: &status}
	close(p.events)
}

func (p *Process) scan(r io.Reader, kind Kind) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for sc.Scan() {
		p.events <- Event{Kind: kind, Line: strings.TrimSuffix(sc.Text(), "\r")}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		p.events <- Event{Kind: Error, Err: fmt.Errorf("reading %s: %w", kind, err)}
		// Keep the pipe drained so the worker never blocks on a full buffer.
		_, _ = io.Copy(io.Discard, r)
	}
}

func exitStatus(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1}
	}
	s := ExitStatus{Code: state.ExitCode()}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		s.Signal = ws.Signal().String()
	}
	return s
}
