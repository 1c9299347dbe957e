package picker

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/runger/tabsift/internal/match"
	"github.com/runger/tabsift/internal/proxy"
	"github.com/runger/tabsift/internal/table"
)

// DefaultDebounce is the delay after the last keystroke before the query is
// applied.
const DefaultDebounce = 60 * time.Millisecond

// pickerState represents the current state of the picker's state machine.
type pickerState int

const (
	stateIdle      pickerState = iota // Before the first query is applied
	stateLoaded                       // At least one visible row
	stateEmpty                        // Query applied, nothing visible
	stateError                        // Reading the row stream failed
	stateCancelled                    // User cancelled (Esc / Ctrl+C)
)

// batchMsg carries the next batch from the row stream. ok is false once the
// stream is closed.
type batchMsg struct {
	batch table.Batch
	ok    bool
}

// debounceMsg fires after the debounce timer expires.
type debounceMsg struct {
	id uint64 // Must match current debounceID to be accepted
}

// initMsg is sent by Init() so that the first query is applied via Update().
type initMsg struct{}

// Options configures a picker Model.
type Options struct {
	// Query is the initial query text.
	Query string

	// Debounce delays query application after typing. Zero applies every
	// keystroke immediately.
	Debounce time.Duration

	// ShowScores prefixes each row with its cached score.
	ShowScores bool

	// Rows optionally streams more rows into the table while the picker
	// runs. The model appends each batch from its update loop.
	Rows <-chan table.Batch

	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
}

// Model is the Bubble Tea model for the row picker. The proxy and table are
// owned by the model's update loop once the program starts.
type Model struct {
	state pickerState
	tbl   *table.Table
	proxy *proxy.Proxy
	input textinput.Model
	err   error

	selection int // Display position; -1 when empty
	offset    int // First display position on screen

	width  int // Terminal width
	height int // Terminal height

	debounce   time.Duration
	debounceID uint64 // Only a matching debounceMsg applies the query

	feed      <-chan table.Batch
	streaming bool

	showScores  bool
	highlighter *match.Regex
	logger      *slog.Logger

	// result holds the chosen row after the user presses Enter.
	result []string
}

// NewModel creates a picker over tbl filtered by p. The proxy must have been
// built over tbl; the model subscribes it to table changes.
func NewModel(tbl *table.Table, p *proxy.Proxy, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tbl.OnChange(p.SourceChanged)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = queryStyle
	ti.Placeholder = "filter"
	ti.SetValue(opts.Query)
	ti.Focus()

	return Model{
		state:       stateIdle,
		tbl:         tbl,
		proxy:       p,
		input:       ti,
		selection:   -1,
		debounce:    opts.Debounce,
		feed:        opts.Rows,
		streaming:   opts.Rows != nil,
		showScores:  opts.ShowScores,
		highlighter: match.NewRegex(match.RegexOptions{CaseInsensitive: true, CacheSize: 16}),
		logger:      logger,
	}
}

// Result returns the chosen row, or nil if the picker was cancelled or
// closed without a selection.
func (m Model) Result() []string {
	return m.result
}

// Cancelled reports whether the user cancelled the picker.
func (m Model) Cancelled() bool {
	return m.state == stateCancelled
}

// Err returns the error that ended the row stream, if any.
func (m Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return initMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 1)
		m.ensureVisible()
		return m, nil

	case batchMsg:
		return m.handleBatch(msg)

	case debounceMsg:
		if msg.id != m.debounceID {
			return m, nil // Stale debounce timer; ignore.
		}
		m.applyQuery()
		return m, nil

	case initMsg:
		m.applyQuery()
		return m, waitForBatch(m.feed)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input. Keys the picker does not claim go to
// the query input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.state = stateCancelled
		return m, tea.Quit

	case tea.KeyEnter:
		row, ok := m.proxy.MapToSource(m.selection)
		if !ok {
			return m, nil
		}
		m.result = m.tbl.Row(row)
		return m, tea.Quit

	case tea.KeyUp, tea.KeyCtrlP:
		m.moveSelection(-1)
		return m, nil

	case tea.KeyDown, tea.KeyCtrlN:
		m.moveSelection(1)
		return m, nil

	case tea.KeyPgUp:
		m.moveSelection(-m.listHeight())
		return m, nil

	case tea.KeyPgDown:
		m.moveSelection(m.listHeight())
		return m, nil

	case tea.KeyTab:
		m.cycleColumn(1)
		return m, nil

	case tea.KeyShiftTab:
		m.cycleColumn(-1)
		return m, nil

	case tea.KeyCtrlR:
		m.proxy.SetRegexMode(m.proxy.Mode() != proxy.ModeRegex)
		m.syncState()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}

	if m.debounce <= 0 {
		m.applyQuery()
		return m, cmd
	}
	return m, tea.Batch(cmd, m.startDebounce())
}

// handleBatch appends streamed rows and waits for the next batch.
func (m Model) handleBatch(msg batchMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.streaming = false
		m.feed = nil
		return m, nil
	}

	if msg.batch.Err != nil {
		m.logger.Warn("row stream failed", "error", msg.batch.Err)
		m.state = stateError
		m.err = msg.batch.Err
		m.streaming = false
		m.feed = nil
		return m, nil
	}

	selected, hadSelection := m.proxy.MapToSource(m.selection)
	m.tbl.Append(msg.batch.Rows...)
	if !m.proxy.Dynamic() {
		// Substring filtering is cheap and has no cache to keep current.
		m.proxy.Refresh()
	}
	// New rows can sort ahead of the selection; keep it on the same row.
	if hadSelection {
		if pos, ok := m.proxy.MapFromSource(selected); ok {
			m.selection = pos
		}
	}
	m.syncState()
	return m, waitForBatch(m.feed)
}

// waitForBatch returns a command that receives the next batch from ch.
func waitForBatch(ch <-chan table.Batch) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		b, ok := <-ch
		return batchMsg{batch: b, ok: ok}
	}
}

// startDebounce increments the debounce counter and returns a tea.Tick
// command that fires after the debounce interval.
func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// applyQuery pushes the input text into the proxy.
func (m *Model) applyQuery() {
	start := time.Now()
	m.proxy.SetQuery(SanitizeQuery(m.input.Value()))
	m.selection = 0
	m.offset = 0
	m.syncState()

	m.logger.Debug("query applied",
		"query", m.proxy.Query(),
		"mode", m.proxy.Mode(),
		"visible", m.proxy.RowCount(),
		"duration", time.Since(start),
	)
}

// cycleColumn moves the designated filter column through "all columns"
// and each column in turn.
func (m *Model) cycleColumn(step int) {
	cols := m.tbl.ColumnCount()
	if cols < 2 {
		return
	}
	// Positions 0..cols map to NoColumn, 0, 1, ... cols-1.
	pos := m.proxy.FilterColumn() + 1
	pos = (pos + step + cols + 1) % (cols + 1)
	m.proxy.SetFilterColumn(pos - 1)
	m.syncState()
}

func (m *Model) moveSelection(delta int) {
	if m.selection < 0 {
		return
	}
	m.selection += delta
	m.clampSelection()
	m.ensureVisible()
}

// syncState derives the state from the proxy's visible rows.
func (m *Model) syncState() {
	if m.state == stateCancelled || m.state == stateError {
		return
	}
	if m.proxy.RowCount() == 0 {
		m.state = stateEmpty
	} else {
		m.state = stateLoaded
	}
	m.clampSelection()
	m.ensureVisible()
}

// clampSelection ensures the selection index is within bounds.
func (m *Model) clampSelection() {
	n := m.proxy.RowCount()
	if n == 0 {
		m.selection = -1
		return
	}
	if m.selection < 0 {
		m.selection = 0
	}
	if m.selection >= n {
		m.selection = n - 1
	}
}

// ensureVisible scrolls so the selection is on screen.
func (m *Model) ensureVisible() {
	if m.selection < 0 {
		m.offset = 0
		return
	}
	h := m.listHeight()
	if m.selection < m.offset {
		m.offset = m.selection
	}
	if m.selection >= m.offset+h {
		m.offset = m.selection - h + 1
	}
}

// listHeight returns the number of visible list rows (terminal height minus
// header and footer).
func (m Model) listHeight() int {
	// Column bar, status line and query line, plus the header row.
	chrome := 3
	if len(m.tbl.Header()) > 0 {
		chrome++
	}
	h := m.height - chrome
	if h < 1 {
		h = 20 // Sensible default before first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	activeTabStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	inactiveTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	selectedStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	matchStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	matchSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	queryStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	markerWidth = 2 // "> " or "  "
	scoreWidth  = 4 // "100 "
	columnGap   = 2
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewColumnBar())
	b.WriteRune('\n')

	widths := m.columnWidths()
	if len(m.tbl.Header()) > 0 {
		b.WriteString(m.viewHeader(widths))
		b.WriteRune('\n')
	}

	b.WriteString(m.viewContent(widths))
	b.WriteRune('\n')

	b.WriteString(m.viewStatus())
	b.WriteRune('\n')

	b.WriteString(m.input.View())

	return b.String()
}

// viewColumnBar renders the filter column choices, highlighting the active
// one.
func (m Model) viewColumnBar() string {
	active := m.proxy.FilterColumn()
	parts := []string{tabLabel("All", active == proxy.NoColumn)}
	if m.tbl.ColumnCount() > 1 {
		for col := 0; col < m.tbl.ColumnCount(); col++ {
			parts = append(parts, tabLabel(m.tbl.ColumnName(col), col == active))
		}
	}
	return strings.Join(parts, " ")
}

func tabLabel(label string, active bool) string {
	label = " " + label + " "
	if active {
		return activeTabStyle.Render(label)
	}
	return inactiveTabStyle.Render(label)
}

func (m Model) viewHeader(widths []int) string {
	cells := make([]string, len(widths))
	for col, w := range widths {
		cells[col] = fitCell(m.tbl.ColumnName(col), w)
	}
	return headerStyle.Render(strings.Repeat(" ", m.prefixWidth()) + strings.Join(cells, strings.Repeat(" ", columnGap)))
}

// viewContent renders the row list or a status message.
func (m Model) viewContent(widths []int) string {
	switch m.state {
	case stateIdle:
		return dimStyle.Render("Loading...")

	case stateEmpty:
		if m.streaming {
			return dimStyle.Render("Waiting for rows...")
		}
		return dimStyle.Render("No matches")

	case stateError:
		msg := "Error"
		if m.err != nil {
			msg = fmt.Sprintf("Error: %s", m.err)
		}
		return errorStyle.Render(msg)

	case stateCancelled:
		return dimStyle.Render("Cancelled")

	case stateLoaded:
		return m.viewList(widths)

	default:
		return ""
	}
}

// viewList renders the visible window of rows with a selection marker.
func (m Model) viewList(widths []int) string {
	re := m.highlightPattern()
	gap := strings.Repeat(" ", columnGap)

	var b strings.Builder
	end := min(m.offset+m.listHeight(), m.proxy.RowCount())
	for pos := m.offset; pos < end; pos++ {
		row, _ := m.proxy.MapToSource(pos)
		selected := pos == m.selection

		base, hi := normalStyle, matchStyle
		marker := "  "
		if selected {
			base, hi = selectedStyle, matchSelectedStyle
			marker = "> "
		}

		b.WriteString(base.Render(marker))
		if m.showScores {
			b.WriteString(dimStyle.Render(m.scoreLabel(row)))
		}
		for col, w := range widths {
			if col > 0 {
				b.WriteString(base.Render(gap))
			}
			b.WriteString(highlightMatches(fitCell(m.cell(row, col), w), re, base, hi))
		}
		if pos < end-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// viewStatus renders the visible/total counts and the active mode.
func (m Model) viewStatus() string {
	parts := []string{
		fmt.Sprintf("%s/%s", humanize.Comma(int64(m.proxy.RowCount())), humanize.Comma(int64(m.tbl.RowCount()))),
		m.proxy.Mode().String(),
	}
	if m.streaming {
		parts = append(parts, "reading")
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}

func (m Model) scoreLabel(row int) string {
	if score, ok := m.proxy.Score(row); ok {
		return fmt.Sprintf("%3d ", score)
	}
	return "  - "
}

func (m Model) prefixWidth() int {
	if m.showScores {
		return markerWidth + scoreWidth
	}
	return markerWidth
}

func (m Model) cell(row, col int) string {
	return CleanCell(m.tbl.CellText(row, col))
}

// columnWidths sizes each column to its widest cell in the visible window
// and shrinks the widest columns until the row fits the terminal.
func (m Model) columnWidths() []int {
	cols := m.tbl.ColumnCount()
	if cols == 0 {
		return nil
	}

	natural := make([]int, cols)
	if len(m.tbl.Header()) > 0 {
		for col := range natural {
			natural[col] = runewidth.StringWidth(m.tbl.ColumnName(col))
		}
	}
	end := min(m.offset+m.listHeight(), m.proxy.RowCount())
	for pos := m.offset; pos < end; pos++ {
		row, _ := m.proxy.MapToSource(pos)
		for col := range natural {
			natural[col] = max(natural[col], runewidth.StringWidth(m.cell(row, col)))
		}
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	avail := width - m.prefixWidth() - columnGap*(cols-1)
	return fitColumns(natural, avail)
}

// fitColumns shrinks the widest column one cell at a time until the sum of
// widths fits avail. Every column keeps at least one cell.
func fitColumns(natural []int, avail int) []int {
	widths := make([]int, len(natural))
	total := 0
	for i, w := range natural {
		widths[i] = max(min(w, avail), 1)
		total += widths[i]
	}

	for total > avail {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 1 {
			break
		}
		widths[widest]--
		total--
	}
	return widths
}

// fitCell truncates s in the middle and pads it to exactly width cells.
func fitCell(s string, width int) string {
	return runewidth.FillRight(MiddleTruncate(s, width), width)
}

// highlightPattern returns the pattern whose matches are highlighted: the
// literal query in substring mode, the query itself in regex mode. Fuzzy
// matches have no single span to highlight.
func (m Model) highlightPattern() *regexp.Regexp {
	q := m.proxy.Query()
	if q == "" || q == proxy.NoFilter {
		return nil
	}

	var pattern string
	switch m.proxy.Mode() {
	case proxy.ModeSubstring:
		pattern = regexp.QuoteMeta(q)
	case proxy.ModeRegex:
		pattern = q
	default:
		return nil
	}

	re, err := m.highlighter.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

// highlightMatches renders every match of re in text with hi and the rest
// with base. A nil pattern renders text with base alone.
func highlightMatches(text string, re *regexp.Regexp, base, hi lipgloss.Style) string {
	if re == nil {
		return base.Render(text)
	}
	spans := re.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return base.Render(text)
	}

	var b strings.Builder
	last := 0
	for _, span := range spans {
		if span[0] == span[1] {
			continue
		}
		if span[0] > last {
			b.WriteString(base.Render(text[last:span[0]]))
		}
		b.WriteString(hi.Render(text[span[0]:span[1]]))
		last = span[1]
	}
	if last < len(text) {
		b.WriteString(base.Render(text[last:]))
	}
	return b.String()
}
