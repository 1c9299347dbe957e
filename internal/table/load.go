package table

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format names a table encoding.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
	FormatExec   Format = "exec"
)

// ErrUnknownFormat is returned for a format name or file extension that no
// loader handles.
var ErrUnknownFormat = errors.New("unknown table format")

// Spec describes where a table comes from.
type Spec struct {
	Format  Format
	Path    string // File path; "" or "-" reads stdin for text formats
	Query   string // SQL query for FormatSQLite
	Command string // Command line for FormatExec
	Header  bool   // First row/line is a header (csv, tsv, exec)
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatTSV, FormatYAML, FormatSQLite, FormatExec:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "db", "sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DetectFormat guesses the format from a file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: no extension on %q", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Open loads the table described by spec. Text formats read stdin when no
// path is given.
func Open(ctx context.Context, spec Spec, stdin io.Reader) (*Table, error) {
	format := spec.Format
	if format == "" {
		switch {
		case spec.Command != "":
			format = FormatExec
		case spec.Path == "" || spec.Path == "-":
			format = FormatTSV
		default:
			f, err := DetectFormat(spec.Path)
			if err != nil {
				return nil, err
			}
			format = f
		}
	}

	switch format {
	case FormatSQLite:
		return LoadSQLite(ctx, spec.Path, spec.Query)
	case FormatExec:
		return FromCommand(ctx, spec.Command, spec.Header)
	}

	r := stdin
	if spec.Path != "" && spec.Path != "-" {
		f, err := os.Open(spec.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open table: %w", err)
		}
		defer f.Close()
		r = f
	}

	switch format {
	case FormatCSV:
		return ReadDelimited(r, ',', spec.Header)
	case FormatTSV:
		return ReadDelimited(r, '\t', spec.Header)
	case FormatYAML:
		return LoadYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ReadDelimited parses separator-delimited records. Records may have
// differing field counts.
func ReadDelimited(r io.Reader, sep rune, header bool) (*Table, error) {
	records, err := newDelimitedReader(r, sep).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited table: %w", err)
	}

	var head []string
	if header && len(records) > 0 {
		head, records = records[0], records[1:]
	}
	return New(head, records), nil
}

func newDelimitedReader(r io.Reader, sep rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	if sep == '\t' {
		// Stray quotes in tab-separated input are literal text.
		cr.LazyQuotes = true
	}
	return cr
}
