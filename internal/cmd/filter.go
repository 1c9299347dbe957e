package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/runger/tabsift/internal/proxy"
	"github.com/runger/tabsift/internal/table"
)

// outputFlags controls how filter prints visible rows.
type outputFlags struct {
	json   bool
	scores bool
	limit  int
	stats  bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.json, "json", false, "output rows as JSON")
	fs.BoolVar(&f.scores, "scores", false, "prefix each row with its score")
	fs.IntVarP(&f.limit, "limit", "n", 0, "print at most this many rows (0 = all)")
	fs.BoolVar(&f.stats, "stats", false, "print match counts and timing to stderr")
}

func newFilterCmd(gopts *globalOptions) *cobra.Command {
	var (
		src   sourceFlags
		modes modeFlags
		out   outputFlags
	)

	cmd := &cobra.Command{
		Use:   "filter [query...]",
		Short: "Print the rows that match a query",
		Long: `Load rows, apply the query once, and print the visible rows in ranked
order. Rows are read as tab-separated text from stdin unless a source flag
says otherwise.

Examples:
  ps aux | tabsift filter ssh
  tabsift filter -f fruit.csv --header -c 0 apple
  tabsift filter -f notes.db --sql 'SELECT title, body FROM notes' -e '^todo'
  tabsift filter --exec 'ls -l' --json go`,
		GroupID: groupFilter,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, gopts, &src, &modes, &out, queryFromArgs(args))
		},
	}

	src.register(cmd)
	modes.register(cmd)
	out.register(cmd)
	return cmd
}

func runFilter(cmd *cobra.Command, gopts *globalOptions, src *sourceFlags, modes *modeFlags, out *outputFlags, query string) error {
	cfg, err := loadConfig(gopts)
	if err != nil {
		return err
	}
	if err := modes.apply(cmd, cfg); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	spec, err := src.spec()
	if err != nil {
		return err
	}
	tbl, err := table.Open(cmd.Context(), spec, cmd.InOrStdin())
	if err != nil {
		return err
	}

	start := time.Now()
	p := newProxy(tbl, cfg, logger)
	if err := p.SetQueryContext(cmd.Context(), query); err != nil {
		return fmt.Errorf("filtering interrupted: %w", err)
	}
	elapsed := time.Since(start)

	if out.stats {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s%s of %s rows%s matched (%s, %s)\n",
			colorBold, humanize.Comma(int64(p.RowCount())), humanize.Comma(int64(tbl.RowCount())), colorReset,
			p.Mode(), elapsed.Round(time.Microsecond))
	}

	if out.json {
		return writeRowsJSON(cmd.OutOrStdout(), tbl, p, out)
	}
	return writeRowsText(cmd.OutOrStdout(), tbl, p, out)
}

var cellReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// writeRowsText prints visible rows as tab-separated lines, preceded by the
// header when the table has one.
func writeRowsText(w io.Writer, tbl *table.Table, p *proxy.Proxy, out *outputFlags) error {
	var b strings.Builder

	if head := tbl.Header(); len(head) > 0 {
		if out.scores {
			b.WriteString("score\t")
		}
		for col := 0; col < tbl.ColumnCount(); col++ {
			if col > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(cellReplacer.Replace(tbl.ColumnName(col)))
		}
		b.WriteByte('\n')
	}

	for _, row := range visibleRows(p, out.limit) {
		if out.scores {
			b.WriteString(scoreText(p, row))
			b.WriteByte('\t')
		}
		for col, cell := range tbl.Row(row) {
			if col > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(cellReplacer.Replace(cell))
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type filterRow struct {
	Row    int               `json:"row"`
	Score  *int              `json:"score,omitempty"`
	Cells  []string          `json:"cells"`
	Fields map[string]string `json:"fields,omitempty"`
}

type filterOutput struct {
	Query     string      `json:"query"`
	Mode      string      `json:"mode"`
	Rows      []filterRow `json:"rows"`
	Matched   int         `json:"matched"`
	Total     int         `json:"total"`
	Truncated bool        `json:"truncated"`
}

func writeRowsJSON(w io.Writer, tbl *table.Table, p *proxy.Proxy, out *outputFlags) error {
	rows := visibleRows(p, out.limit)
	result := filterOutput{
		Query:     p.Query(),
		Mode:      p.Mode().String(),
		Rows:      make([]filterRow, 0, len(rows)),
		Matched:   p.RowCount(),
		Total:     tbl.RowCount(),
		Truncated: len(rows) < p.RowCount(),
	}

	head := tbl.Header()
	for _, row := range rows {
		fr := filterRow{Row: row, Cells: tbl.Row(row)}
		if score, ok := p.Score(row); ok && out.scores {
			fr.Score = &score
		}
		if len(head) > 0 {
			fr.Fields = make(map[string]string, len(fr.Cells))
			for col, cell := range fr.Cells {
				fr.Fields[tbl.ColumnName(col)] = cell
			}
		}
		result.Rows = append(result.Rows, fr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func visibleRows(p *proxy.Proxy, limit int) []int {
	rows := p.Rows()
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func scoreText(p *proxy.Proxy, row int) string {
	if score, ok := p.Score(row); ok {
		return strconv.Itoa(score)
	}
	return "-"
}
