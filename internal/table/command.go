package table

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// FromCommand runs cmdline (split with shell quoting rules, not run through
// a shell) and turns its output into a table, one row per non-empty line
// with whitespace-separated columns. With header set, the first line names
// the columns and the last column absorbs any extra fields, so output like
// `ps aux` keeps its command lines intact.
func FromCommand(ctx context.Context, cmdline string, header bool) (*Table, error) {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return nil, fmt.Errorf("command table: parse %q: %w", cmdline, err)
	}
	if len(args) == 0 {
		return nil, errors.New("command table: empty command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("command table: %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("command table: %s: %w", args[0], err)
	}

	return parseColumns(out, header), nil
}

// parseColumns splits text output into whitespace-separated columns.
func parseColumns(out []byte, header bool) *Table {
	var head []string
	var rows [][]string
	width := 0

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header && head == nil {
			head = strings.Fields(line)
			width = len(head)
			continue
		}
		rows = append(rows, splitFields(line, width))
	}

	return New(head, rows)
}

// splitFields splits line on whitespace. When n > 0 the result has at most
// n fields and the last one holds the rest of the line.
func splitFields(line string, n int) []string {
	fields := strings.Fields(line)
	if n <= 0 || len(fields) <= n {
		return fields
	}

	// Locate the start of field n-1 in the original line so the remainder
	// keeps its internal spacing.
	rest := line
	for i := 0; i < n-1; i++ {
		rest = strings.TrimLeft(rest, " \t")
		rest = rest[len(fields[i]):]
	}
	out := make([]string, n)
	copy(out, fields[:n-1])
	out[n-1] = strings.TrimSpace(rest)
	return out
}
