package daylog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestWrite_Format(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	at := time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)
	c := &clock{t: at}
	l := open(dir, DefaultPrefix, c.now)
	defer l.Close()

	l.Write(TagResponse, `{"success":true}`)
	l.Write(TagLog, "terminated: code=0 signal=none")

	path := filepath.Join(dir, "octscan-20240309.log")
	if got := l.Path(at); got != path {
		t.Errorf("Path() = %q, want %q", got, path)
	}
	lines := readLines(t, path)
	stamp := at.Format(TimeLayout)
	want := []string{
		"[" + stamp + `] RESPONSE {"success":true}`,
		"[" + stamp + "] LOG terminated: code=0 signal=none",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if err := l.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestWrite_RotatesAtDayBoundary(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	before := time.Date(2024, 3, 9, 23, 59, 59, 0, time.Local)
	after := before.Add(2 * time.Second)
	c := &clock{t: before}
	l := open(dir, DefaultPrefix, c.now)
	defer l.Close()

	l.Write(TagLog, "late")
	c.set(after)
	l.Write(TagLog, "early")

	first := readLines(t, l.Path(before))
	second := readLines(t, l.Path(after))
	if len(first) != 1 || !strings.HasSuffix(first[0], "LOG late") {
		t.Errorf("first day = %q, want [... LOG late]", first)
	}
	if len(second) != 1 || !strings.HasSuffix(second[0], "LOG early") {
		t.Errorf("second day = %q, want [... LOG early]", second)
	}
}

func TestWrite_AppendsAcrossReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &clock{t: time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)}

	l := open(dir, DefaultPrefix, c.now)
	l.Write(TagLog, "one")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	l2 := open(dir, DefaultPrefix, c.now)
	l2.Write(TagLog, "two")
	l2.Close()

	if got := readLines(t, l.Path(c.now())); len(got) != 2 {
		t.Errorf("lines = %q, want 2 lines", got)
	}
}

func TestWrite_UnwritableDirIsNoop(t *testing.T) {
	t.Parallel()
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := Open(filepath.Join(blocker, "logs"), DefaultPrefix)

	l.Write(TagError, "still fine")
	if l.Err() == nil {
		t.Error("Err() = nil, want open failure recorded")
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestNop(t *testing.T) {
	t.Parallel()
	l := Nop()
	l.Write(TagLog, "dropped")
	lines, err := l.Tail(5)
	if err != nil || len(lines) != 0 {
		t.Errorf("Tail() = %q, %v; want empty", lines, err)
	}
}

func TestWrite_Concurrent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	l := Open(dir, DefaultPrefix)
	defer l.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				l.Write(TagLog, "line")
			}
		}()
	}
	wg.Wait()

	lines, err := l.Tail(1000)
	if err != nil {
		t.Fatalf("Tail() error: %v", err)
	}
	// A run straddling midnight splits across two files.
	if len(lines) > 200 || len(lines) == 0 {
		t.Fatalf("Tail() returned %d lines, want at most 200", len(lines))
	}
	for _, line := range lines {
		if _, tag, text, ok := ParseLine(line); !ok || tag != TagLog || text != "line" {
			t.Errorf("malformed line %q", line)
		}
	}
}

func TestTail(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &clock{t: time.Date(2024, 5, 5, 10, 0, 0, 0, time.Local)}
	l := open(dir, DefaultPrefix, c.now)
	defer l.Close()
	for _, s := range []string{"a", "b", "c", "d"} {
		l.Write(TagLog, s)
	}

	lines, err := l.Tail(2)
	if err != nil {
		t.Fatalf("Tail() error: %v", err)
	}
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "LOG c") || !strings.HasSuffix(lines[1], "LOG d") {
		t.Errorf("Tail(2) = %q, want last two lines", lines)
	}
	if lines, _ := l.Tail(0); lines != nil {
		t.Errorf("Tail(0) = %q, want nil", lines)
	}
}

func TestTailFile_Missing(t *testing.T) {
	t.Parallel()
	lines, err := TailFile(filepath.Join(t.TempDir(), "none.log"), 10)
	if err != nil || lines != nil {
		t.Errorf("TailFile() = %q, %v; want nil, nil", lines, err)
	}
}

func TestParseLine(t *testing.T) {
	t.Parallel()
	ts, tag, text, ok := ParseLine("[2024-03-09 14:05:06 +0100] ERROR spawning oct-tf: no such file")
	if !ok {
		t.Fatal("ParseLine() ok = false")
	}
	if tag != "ERROR" || text != "spawning oct-tf: no such file" {
		t.Errorf("ParseLine() = %q, %q", tag, text)
	}
	if ts.Hour() != 14 || ts.Minute() != 5 {
		t.Errorf("timestamp = %v", ts)
	}
	for _, bad := range []string{"", "no brackets", "[bad] LOG x", "[2024-03-09 14:05:06 +0100]"} {
		if _, _, _, ok := ParseLine(bad); ok {
			t.Errorf("ParseLine(%q) ok = true, want false", bad)
		}
	}
}
