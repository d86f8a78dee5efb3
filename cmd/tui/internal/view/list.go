package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// TransactionService is the part of *transaction.Service the list screen needs.
type TransactionService interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
	Update(ctx context.Context, tx *transaction.Transaction) error
}

// typeCycle is the order the type filter steps through. The zero Type
// shows everything.
var typeCycle = []transaction.Type{"", transaction.TypeIncome, transaction.TypeExpense}

// ListModel browses transactions one calendar month at a time, or the whole
// history when month is nil.
type ListModel struct {
	CommonModel
	txService TransactionService
	now       func() time.Time

	table table.Model
	all   []*transaction.Transaction
	shown []*transaction.Transaction

	kind  int
	month *time.Time

	editing *huh.Form
	loading bool
	err     error
	status  string
}

func NewListModel(txSvc TransactionService) ListModel {
	return ListModel{
		txService: txSvc,
		now:       time.Now,
		loading:   true,
		table: newTable(
			table.Column{Title: "Date", Width: 12},
			table.Column{Title: "Type", Width: 9},
			table.Column{Title: "Amount", Width: 18},
			table.Column{Title: "Description", Width: 40},
		),
	}
}

func (m ListModel) Title() string { return "Transactions" }

func (m ListModel) ShortHelp() string {
	if m.editing != nil {
		return "Enter: save | Esc: cancel"
	}

	return "Esc: back | e: edit | t: type | m: this month | [ ]: previous/next month | a: all | r: reload"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.all = msg.txs
			m.refreshTable()
		}

		return m, nil

	case listSaveMsg:
		m.closeEditor()

		m.status = "Saved."
		if msg.err != nil {
			m.status = errorStyle.Render("Save failed: " + msg.err.Error())
		}

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-12, 5))

		return m, nil
	}

	if m.editing != nil {
		return m.updateEdit(msg)
	}

	return m.updateBrowse(msg)
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc":
		return m, Back
	case "e":
		return m.openEditor()
	case "t":
		m.kind = (m.kind + 1) % len(typeCycle)
		m.refreshTable()

		return m, nil
	case "r":
		return m.reload()
	case "a":
		m.month = nil
		return m.reload()
	case "m":
		m.month = new(monthOf(m.now()))
		return m.reload()
	case "[", "]":
		step := 1
		if key.String() == "[" {
			step = -1
		}

		base := monthOf(m.now())
		if m.month != nil {
			base = *m.month
		}

		m.month = new(base.AddDate(0, step, 0))

		return m.reload()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) reload() (tea.Model, tea.Cmd) {
	m.loading = true
	m.status = ""

	return m, m.loadTxsCmd()
}

func monthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// filter covers the selected month as [first day, first day of next month).
func (m ListModel) filter() transaction.ListFilter {
	if m.month == nil {
		return transaction.ListFilter{}
	}

	return transaction.ListFilter{
		StartDate: new(*m.month),
		EndBefore: new(m.month.AddDate(0, 1, 0)),
	}
}

func (m ListModel) selected() *transaction.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.shown) {
		return nil
	}

	return m.shown[idx]
}

func nonBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("description cannot be empty")
	}

	return nil
}

func positiveAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("amount must be a number, e.g. 12500.50")
	}

	if !d.IsPositive() {
		return errors.New("amount must be greater than zero")
	}

	return nil
}

func (m ListModel) openEditor() (tea.Model, tea.Cmd) {
	tx := m.selected()
	if tx == nil {
		return m, nil
	}

	desc := tx.Description
	amount := tx.Amount.StringFixed(2)

	m.editing = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("description").Title("Description").Value(&desc).Validate(nonBlank),
			huh.NewInput().Key("amount").Title("Amount").Value(&amount).Validate(positiveAmount),
		),
	).WithWidth(45).WithShowHelp(false)
	m.table.Blur()

	return m, m.editing.Init()
}

func (m *ListModel) closeEditor() {
	m.editing = nil
	m.table.Focus()
}

func (m ListModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.closeEditor()
		return m, nil
	}

	form, cmd := m.editing.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.editing = f
	}

	if m.editing.State != huh.StateCompleted {
		return m, cmd
	}

	tx := m.selected()
	if tx == nil {
		m.closeEditor()
		return m, nil
	}

	edited := *tx
	edited.Description = strings.TrimSpace(m.editing.GetString("description"))
	// Validated by positiveAmount.
	edited.Amount, _ = decimal.NewFromString(strings.TrimSpace(m.editing.GetString("amount")))

	return m, m.saveCmd(&edited)
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	period := "all time"
	if m.month != nil {
		period = m.month.Format("January 2006")
	}

	kind := "any type"
	if t := typeCycle[m.kind]; t != "" {
		kind = string(t)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(activeStyle(period)+" | "+activeStyle(kind)),
		framed.Render(m.table.View()),
		m.totals(),
	)

	if m.editing != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render("Edit transaction\n\n" + m.editing.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content += "\n\n" + m.status
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// totals sums the visible rows.
func (m ListModel) totals() string {
	income, expense := decimal.Zero, decimal.Zero

	for _, tx := range m.shown {
		if tx.Type == transaction.TypeIncome {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}

	return mutedStyle.Render(fmt.Sprintf("%d rows   Income %s   Expense %s   Net %s",
		len(m.shown), FormatAmount(income), FormatAmount(expense), FormatAmount(income.Sub(expense))))
}

func (m *ListModel) refreshTable() {
	want := typeCycle[m.kind]

	m.shown = make([]*transaction.Transaction, 0, len(m.all))
	rows := make([]table.Row, 0, len(m.all))

	for _, tx := range m.all {
		if want != "" && tx.Type != want {
			continue
		}

		m.shown = append(m.shown, tx)
		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			string(tx.Type),
			FormatAmount(tx.Signed()),
			tx.Description,
		})
	}

	m.table.SetRows(rows)
}

type loadListMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	filter := m.filter()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.txService.List(ctx, filter)

		return loadListMsg{txs: txs, err: err}
	}
}

type listSaveMsg struct {
	err error
}

func (m ListModel) saveCmd(tx *transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return listSaveMsg{err: m.txService.Update(ctx, tx)}
	}
}
