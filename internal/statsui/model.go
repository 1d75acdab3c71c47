// Package statsui provides the Bubble Tea browser over stored sorts.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/passdown/internal/model"
	"github.com/verte-zerg/passdown/internal/stats"
	"github.com/verte-zerg/passdown/internal/store"
)

const (
	tabOverview = iota
	tabCounters
	tabCounterCurves
)

const (
	plotHeight = 8
	dateLayout = "2006-01-02"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F5F5F5")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A8FC8"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A8A8A8")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5F5F5")).Bold(true)
	modalStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A8FC8")).
			Padding(1, 2)
)

// Model implements the Bubble Tea stats browser.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	counters  table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	counterInputMode bool
	counterInput     textinput.Model
}

// NewModel constructs a stats browser model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "Counters", "Counter Curves"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.filterInputs = []textinput.Model{
		newInput("Shift (twi/pre/day): "),
		newInput("Since (YYYY-MM-DD): "),
		newInput("Last: "),
		newInput("Curve window: "),
	}
	m.counterInput = newInput("Counters: ")
	m.counterInput.Placeholder = "lane_full,no_read"
	m.counters = table.New(
		table.WithColumns(counterColumns(80)),
		table.WithHeight(1),
	)
	m.counters.SetStyles(counterTableStyles())
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.counterInputMode {
			return m.updateCounterInput(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=", "+":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabCounterCurves {
				return m.startCounterInput()
			}
			return m, nil
		}
		if m.activeTab == tabCounters {
			var cmd tea.Cmd
			m.counters, cmd = m.counters.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.counterInputMode {
		return m.renderCounterModal()
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	return strings.Join([]string{
		fitLines(m.renderHeader(), m.width, headerHeight),
		fitLines(m.renderBody(), m.width, bodyHeight),
		fitLines(m.renderFooter(), m.width, footerHeight),
	}, "\n")
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) layoutHeights() (header, body, footer int) {
	header = lipgloss.Height(activeNavStyle.Render("X")) + 1
	footer = 1
	if !m.filterMode && m.errMsg != "" {
		footer++
	}
	body = max(1, m.height-header-footer)
	return header, body, footer
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, body, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = body
	}
	m.counters.SetColumns(counterColumns(m.width))
	m.counters.SetWidth(m.width)
	m.counters.SetHeight(max(1, body-1))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
	m.counterInput.Width = max(10, modalWidth(m.width)-lipgloss.Width(m.counterInput.Prompt)-6)
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	if m.activeTab == tabCounters {
		m.counters.Focus()
	} else {
		m.counters.Blur()
	}
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		style := inactiveNavStyle
		if i == m.activeTab {
			style = activeNavStyle
		}
		parts = append(parts, style.Render(tab))
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return tabs + "\n" + mutedStyle.Render(truncateLine(m.filterSummary(), m.width))
}

func (m *Model) filterSummary() string {
	shift := "any"
	if m.cfg.Shift != model.ShiftUnknown {
		shift = string(m.cfg.Shift)
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(dateLayout)
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("Filters: shift=%s  since=%s  last=%s  window=%d  sorts=%d",
		shift, since, last, m.cfg.CurveWindow, len(m.report.Observations))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return mutedStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Filters: /  Quit: q"
	if m.activeTab == tabCounterCurves {
		help = "Nav: left/right  Scroll: up/down  Counters: enter  Window: -/=  Filters: /  Quit: q"
	}
	footer := mutedStyle.Render(help)
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	return footer
}

func (m *Model) renderBody() string {
	if m.filterMode {
		lines := []string{"Filters (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	}
	if m.activeTab == tabCounters {
		if len(m.report.CounterAggsAll) == 0 {
			return "No counters found."
		}
		return m.counters.View()
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.counters.SetRows(counterRows(report))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	opts := stats.PlotOptions{Width: stats.PlotWidthFor(width), Height: plotHeight, Color: true}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.cfg.CurveWindow, width, opts))
	m.viewports[tabCounterCurves].SetContent(renderCounterCurves(m.report, m.cfg.CurveWindow, opts))
}

func renderOverview(r stats.Report, window, width int, opts stats.PlotOptions) string {
	if len(r.Observations) == 0 {
		return "No sorts found. Run: passdown build"
	}
	s := stats.Summarize(r.Observations)
	cards := []string{
		metricCard("Sorts", strconv.Itoa(s.Observations)),
		metricCard("Volume", strconv.Itoa(s.Volume)),
		metricCard("Rejects", strconv.Itoa(s.TotalRejects())),
		metricCard("Reject Rate", fmt.Sprintf("%.2f%%", stats.RejectRate(s.TotalRejects(), s.Volume))),
	}
	summary := strings.Join(cards, "\n")
	if width >= 80 {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	var buf bytes.Buffer
	if err := stats.RenderGroupTable(&buf, "By Shift", "Shift", stats.GroupByShift(r.Observations)); err != nil {
		return fmt.Sprintf("Failed to render shifts: %v", err)
	}
	if err := stats.RenderCurves(&buf, r.Observations, window, opts); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func renderCounterCurves(r stats.Report, window int, opts stats.PlotOptions) string {
	if len(r.Observations) == 0 {
		return "No sorts found."
	}
	if len(r.Counters) == 0 {
		return "No counters selected. Press Enter to choose counters."
	}
	header := mutedStyle.Render("Counters: " + strings.Join(r.Counters, ", "))
	var buf bytes.Buffer
	if err := stats.RenderCounterCurves(&buf, r.Observations, r.CounterValues, r.Counters, window, opts); err != nil {
		return fmt.Sprintf("Failed to render counter curves: %v", err)
	}
	return strings.TrimRight(header+"\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func counterColumns(width int) []table.Column {
	cols := []table.Column{
		{Title: "Counter", Width: 24},
		{Title: "Category", Width: 12},
		{Title: "SS1", Width: 8},
		{Title: "SS2", Width: 8},
		{Title: "Total", Width: 8},
		{Title: "Rate", Width: 8},
		{Title: "Window", Width: 8},
	}
	used := 0
	for _, c := range cols {
		used += c.Width + 1
	}
	if extra := width - used; extra > 0 {
		cols[0].Width += min(extra, 16)
	}
	return cols
}

// counterRows lists counters by total, with the total over the curve window
// alongside.
func counterRows(r stats.Report) []table.Row {
	window := make(map[string]int, len(r.CounterAggsWindow))
	for _, agg := range r.CounterAggsWindow {
		window[agg.Counter] = agg.Total
	}
	volume := r.Volume()
	rows := make([]table.Row, 0, len(r.CounterAggsAll))
	for _, agg := range stats.SortCountersByTotal(r.CounterAggsAll) {
		row := stats.CounterRow(agg, volume)
		rows = append(rows, append(table.Row(row), strconv.Itoa(window[agg.Counter])))
	}
	return rows
}

func counterTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#F5F5F5"))
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.filterInputs[0].SetValue(string(m.cfg.Shift))
	m.filterInputs[1].SetValue("")
	if m.cfg.Since != nil {
		m.filterInputs[1].SetValue(m.cfg.Since.Format(dateLayout))
	}
	m.filterInputs[2].SetValue("")
	if m.cfg.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Last))
	}
	m.filterInputs[3].SetValue(strconv.Itoa(m.cfg.CurveWindow))
	return m, m.focusFilter(0)
}

func (m *Model) focusFilter(idx int) tea.Cmd {
	n := len(m.filterInputs)
	m.filterIndex = (idx + n) % n
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		return m, nil
	case tea.KeyEnter:
		cfg, err := parseFilters(m.cfg, m.filterInputs[0].Value(), m.filterInputs[1].Value(), m.filterInputs[2].Value(), m.filterInputs[3].Value())
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.focusFilter(m.filterIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.focusFilter(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

// parseFilters applies the filter form to cfg. The counter selection is kept.
func parseFilters(cfg model.StatsConfig, shiftIn, sinceIn, lastIn, windowIn string) (model.StatsConfig, error) {
	out := model.StatsConfig{Counters: cfg.Counters, CurveWindow: 1}
	if s := strings.TrimSpace(shiftIn); s != "" {
		shift, ok := model.ParseShift(s)
		if !ok {
			return cfg, fmt.Errorf("invalid shift (use twi, pre or day)")
		}
		out.Shift = shift
	}
	if s := strings.TrimSpace(sinceIn); s != "" {
		since, err := time.Parse(dateLayout, s)
		if err != nil {
			return cfg, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		out.Since = &since
	}
	if s := strings.TrimSpace(lastIn); s != "" {
		last, err := strconv.Atoi(s)
		if err != nil || last < 0 {
			return cfg, fmt.Errorf("invalid last value (use 0 or a positive integer)")
		}
		out.Last = last
	}
	if s := strings.TrimSpace(windowIn); s != "" {
		window, err := strconv.Atoi(s)
		if err != nil || window < 1 {
			return cfg, fmt.Errorf("invalid curve window (use an integer >= 1)")
		}
		out.CurveWindow = window
	}
	return out, nil
}

func (m *Model) startCounterInput() (tea.Model, tea.Cmd) {
	m.counterInputMode = true
	m.counterInput.SetValue(strings.Join(m.report.Counters, ","))
	return m, m.counterInput.Focus()
}

func (m *Model) updateCounterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.counterInputMode = false
		return m, nil
	case tea.KeyEnter:
		// An empty selection falls back to the top counters.
		m.cfg.Counters = strings.Join(stats.ParseCounters(m.counterInput.Value()), ",")
		m.counterInputMode = false
		m.refreshReport()
		return m, nil
	}
	var cmd tea.Cmd
	m.counterInput, cmd = m.counterInput.Update(msg)
	return m, cmd
}

func (m *Model) renderCounterModal() string {
	body := []string{
		cardValueStyle.Render("Select Counters"),
		m.counterInput.View(),
		mutedStyle.Render("Comma separated counter names. Empty picks the top counters."),
		mutedStyle.Render("Enter to apply / Esc to cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return n / 5 * 5
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if pad := width - lipgloss.Width(line); pad > 0 {
			lines[i] = line + strings.Repeat(" ", pad)
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
