package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/octscan/internal/daylog"
	"github.com/julianknutsen/octscan/internal/resource"
	"github.com/julianknutsen/octscan/internal/style"
)

func newLogsCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the tail of a day log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, stdout, stderr)
		},
	}
	cmd.Flags().IntP("lines", "n", 50, "Number of lines to show")
	cmd.Flags().String("date", "", "Day to show (YYYY-MM-DD, default today)")
	cmd.Flags().Bool("path", false, "Print the log file path and exit")
	return cmd
}

func runLogs(cmd *cobra.Command, stdout, _ io.Writer) error {
	n, _ := cmd.Flags().GetInt("lines")
	day, _ := cmd.Flags().GetString("date")
	pathOnly, _ := cmd.Flags().GetBool("path")
	explicit, _ := cmd.Flags().GetString("log-dir")

	dir, err := resource.LogDir(explicit)
	if err != nil {
		return hintWrap(err)
	}
	when := time.Now()
	if day != "" {
		when, err = time.ParseInLocation("2006-01-02", day, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", day)
		}
	}

	l := daylog.Open(dir, daylog.DefaultPrefix)
	defer l.Close()
	path := l.Path(when)
	if pathOnly {
		fmt.Fprintln(stdout, path)
		return nil
	}

	lines, err := daylog.TailFile(path, n)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintf(stdout, "No log entries in %s\n", path)
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(stdout, colorizeLine(line))
	}
	return nil
}

// colorizeLine styles the tag of a day-log line.
func colorizeLine(line string) string {
	ts, tag, text, ok := daylog.ParseLine(line)
	if !ok {
		return line
	}
	stamp := style.Dim.Render("[" + ts.Format(daylog.TimeLayout) + "]")
	return stamp + " " + style.Tag(tag) + " " + text
}
