// Package daylog appends tagged, timestamped lines to one log file per
// calendar day.
package daylog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultPrefix names the host's day files: octscan-YYYYMMDD.log.
const DefaultPrefix = "octscan-"

// TimeLayout is the timestamp layout at the start of every line.
const TimeLayout = "2006-01-02 15:04:05 -0700"

// Line tags.
const (
	TagResponse = "RESPONSE"
	TagLog      = "LOG"
	TagError    = "ERROR"
)

// Logger writes to the current day's file. A Logger whose directory or
// file cannot be opened keeps accepting writes and discards them.
type Logger struct {
	dir    string
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
	err  error
}

// Open prepares a Logger rooted at dir. It never fails; Err reports why
// writes are being discarded.
func Open(dir, prefix string) *Logger {
	return open(dir, prefix, time.Now)
}

func open(dir, prefix string, now func() time.Time) *Logger {
	l := &Logger{dir: dir, prefix: prefix, now: now}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.err = fmt.Errorf("creating log directory: %w", err)
	}
	return l
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{now: time.Now, err: errDisabled}
}

var errDisabled = errors.New("day log disabled")

// Dir returns the log directory.
func (l *Logger) Dir() string { return l.dir }

// Path returns the file that holds lines written on t's local day.
func (l *Logger) Path(t time.Time) string {
	return filepath.Join(l.dir, l.prefix+t.Local().Format("20060102")+".log")
}

// Err returns the last open or write failure, if any.
func (l *Logger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Write appends "[timestamp] TAG text". Failures are recorded, not returned.
func (l *Logger) Write(tag, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err == errDisabled {
		return
	}

	t := l.now().Local()
	f, err := l.fileFor(t)
	if err != nil {
		l.err = err
		return
	}
	line := fmt.Sprintf("[%s] %s %s\n", t.Format(TimeLayout), tag, text)
	if _, err := io.WriteString(f, line); err != nil {
		l.err = fmt.Errorf("writing %s: %w", f.Name(), err)
	}
}

// fileFor returns the open file for t's day, rotating when the day changed.
func (l *Logger) fileFor(t time.Time) (*os.File, error) {
	day := t.Format("20060102")
	if l.file != nil && l.day == day {
		return l.file, nil
	}
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
	f, err := os.OpenFile(l.Path(t), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening day log: %w", err)
	}
	l.file = f
	l.day = day
	l.err = nil
	return f, nil
}

// Close closes the current file. Later writes reopen it.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.day = ""
	return err
}

// Tail returns up to n trailing lines of today's file.
func (l *Logger) Tail(n int) ([]string, error) {
	return TailFile(l.Path(l.now()), n)
}

// TailFile returns up to n trailing lines of path. A missing file has no lines.
func TailFile(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

// ParseLine splits a day-log line into its timestamp, tag and text.
func ParseLine(line string) (time.Time, string, string, bool) {
	if !strings.HasPrefix(line, "[") {
		return time.Time{}, "", "", false
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return time.Time{}, "", "", false
	}
	ts, err := time.Parse(TimeLayout, line[1:end])
	if err != nil {
		return time.Time{}, "", "", false
	}
	rest := line[end+2:]
	tag, text, _ := strings.Cut(rest, " ")
	if tag == "" {
		return time.Time{}, "", "", false
	}
	return ts, tag, text, true
}
