package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/report"
)

// ReportBuilder is the part of *report.Service the report screen needs.
type ReportBuilder interface {
	BuildTabular(ctx context.Context, req report.TabularRequest) (*report.TabularReport, error)
}

type reportState int

const (
	reportStateTimeframe reportState = iota
	reportStateGranularity
	reportStateBuilding
	reportStateResult
)

const reportTimeout = 30 * time.Second

type ReportModel struct {
	CommonModel
	svc       ReportBuilder
	exportDir string

	state           reportState
	timeframePicker TimeframePicker
	from            *time.Time
	to              *time.Time

	form        *huh.Form
	granularity report.Granularity

	spinner spinner.Model
	table   table.Model
	report  *report.TabularReport

	status string
	err    error
}

func NewReportModel(svc ReportBuilder, exportDir string) ReportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = accentStyle

	t := newTable(
		table.Column{Title: "Period", Width: 12},
		table.Column{Title: "Income", Width: 18},
		table.Column{Title: "Expense", Width: 18},
		table.Column{Title: "Net", Width: 18},
	)

	return ReportModel{
		svc:             svc,
		exportDir:       exportDir,
		state:           reportStateTimeframe,
		timeframePicker: NewTimeframePicker(TimeframeThisMonth),
		granularity:     report.GranularityDay,
		spinner:         s,
		table:           t,
	}
}

func (m ReportModel) Title() string { return "Financial Report" }

func (m ReportModel) ShortHelp() string {
	switch m.state {
	case reportStateResult:
		return "Esc: back | e: export CSV | r: new report"
	case reportStateBuilding:
		return "Building..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ReportModel) Init() tea.Cmd {
	return m.timeframePicker.Init()
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.from, m.to = msg.From, msg.To
		m.form = m.buildGranularityForm()
		m.state = reportStateGranularity

		return m, m.form.Init()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-14, 5))

		return m, nil
	}

	switch m.state {
	case reportStateTimeframe:
		return m.updateTimeframe(msg)
	case reportStateGranularity:
		return m.updateGranularity(msg)
	case reportStateBuilding:
		return m.updateBuilding(msg)
	case reportStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m ReportModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

// buildGranularityForm preselects the last used granularity. The choice is
// read back with Form.Get because the model is copied on every update.
func (m ReportModel) buildGranularityForm() *huh.Form {
	g := m.granularity

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[report.Granularity]().
				Key("granularity").
				Title("Group by").
				Options(
					huh.NewOption("Day", report.GranularityDay),
					huh.NewOption("Week (Monday start)", report.GranularityWeek),
					huh.NewOption("Month", report.GranularityMonth),
					huh.NewOption("Whole range", report.GranularityAll),
				).
				Value(&g),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m ReportModel) updateGranularity(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = reportStateTimeframe

		return m, m.timeframePicker.Reset()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if g, ok := m.form.Get("granularity").(report.Granularity); ok {
		m.granularity = g
	}

	m.state = reportStateBuilding
	m.err = nil
	m.status = ""

	return m, tea.Batch(m.spinner.Tick, m.buildCmd())
}

func (m ReportModel) updateBuilding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(reportBuiltMsg); ok {
		m.state = reportStateResult
		m.err = result.err
		m.report = result.report

		if result.report != nil {
			m.refreshTable()
		}

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ReportModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportExportedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Export failed: %v", msg.err))
		} else {
			m.status = okStyle.Render("Saved " + msg.path)
		}

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.state = reportStateTimeframe
			m.report = nil
			m.status = ""

			return m, m.timeframePicker.Reset()
		case "e":
			if m.report != nil {
				return m, m.exportCmd()
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *ReportModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.report.Series))
	for _, b := range m.report.Series {
		rows = append(rows, table.Row{
			b.Period,
			FormatAmount(b.Income),
			FormatAmount(b.Expense),
			FormatAmount(b.Net),
		})
	}

	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m ReportModel) View() string {
	switch m.state {
	case reportStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case reportStateGranularity:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case reportStateBuilding:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Building report...", m.spinner.View()),
		)

	case reportStateResult:
		return m.viewResult()
	}

	return ""
}

func rangeLabel(from, to *time.Time) string {
	label := func(t *time.Time, open string) string {
		if t == nil {
			return open
		}

		return FormatDate(*t)
	}

	return label(from, "beginning") + " → " + label(to, "today")
}

func (m ReportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(
			errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(r to try again, Esc to back)",
		)
	}

	r := m.report

	income, expense := decimal.Zero, decimal.Zero
	for _, b := range r.Series {
		income = income.Add(b.Income)
		expense = expense.Add(b.Expense)
	}

	header := fmt.Sprintf("%s | %s | %s",
		activeStyle(rangeLabel(r.From, r.To)),
		activeStyle(string(r.Granularity)),
		activeStyle(r.Currency),
	)

	summary := fmt.Sprintf("Income %s   Expense %s   Balance %s",
		FormatAmount(income), FormatAmount(expense), okStyle.Render(FormatAmount(r.Balance)))

	body := "No transactions in this range."
	if len(r.Series) > 0 {
		body = framed.Render(m.table.View())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		body,
		"",
		summary,
	)

	if m.status != "" {
		content += "\n\n" + m.status
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type reportBuiltMsg struct {
	report *report.TabularReport
	err    error
}

func (m ReportModel) buildCmd() tea.Cmd {
	req := report.TabularRequest{From: m.from, To: m.to, Granularity: m.granularity}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()

		r, err := m.svc.BuildTabular(ctx, req)

		return reportBuiltMsg{report: r, err: err}
	}
}

type reportExportedMsg struct {
	path string
	err  error
}

// exportFilename mirrors the name the API suggests for downloads.
func exportFilename(r *report.TabularReport) string {
	from, to := "start", "end"

	if r.From != nil {
		from = FormatDate(*r.From)
	}

	if r.To != nil {
		to = FormatDate(*r.To)
	}

	return fmt.Sprintf("report-%s-%s_%s.csv", r.Granularity, from, to)
}

func (m ReportModel) exportCmd() tea.Cmd {
	r := m.report
	dir := m.exportDir

	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return reportExportedMsg{err: fmt.Errorf("creating export dir: %w", err)}
		}

		path := filepath.Join(dir, exportFilename(r))
		if err := os.WriteFile(path, []byte(report.EncodeCSV(r)), 0o644); err != nil {
			return reportExportedMsg{err: fmt.Errorf("writing csv: %w", err)}
		}

		return reportExportedMsg{path: path}
	}
}
