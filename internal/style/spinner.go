package style

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var frames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧"}

const frameInterval = 80 * time.Millisecond

// Spinner animates a status line while the worker runs. On writers that
// are not terminals each status is printed once on its own line.
type Spinner struct {
	w     io.Writer
	isTTY bool

	mu  sync.Mutex
	msg string

	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StartSpinner shows msg with an animated frame until Stop is called.
func StartSpinner(w io.Writer, msg string) *Spinner {
	s := &Spinner{w: w, msg: msg, isTTY: IsTerminal(w), done: make(chan struct{})}
	if !s.isTTY {
		fmt.Fprintln(w, msg)
		return s
	}

	s.wg.Add(1)
	go s.animate()
	return s
}

func (s *Spinner) animate() {
	defer s.wg.Done()
	tick := time.NewTicker(frameInterval)
	defer tick.Stop()
	for i := 0; ; i++ {
		s.mu.Lock()
		fmt.Fprintf(s.w, "\r\033[K%s %s", Dim.Render(frames[i%len(frames)]), s.msg)
		s.mu.Unlock()
		select {
		case <-s.done:
			fmt.Fprint(s.w, "\r\033[K")
			return
		case <-tick.C:
		}
	}
}

// Update replaces the status text.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.msg == msg {
		return
	}
	s.msg = msg
	if !s.isTTY {
		fmt.Fprintln(s.w, msg)
	}
}

// Stop clears the spinner line. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.stopped.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
