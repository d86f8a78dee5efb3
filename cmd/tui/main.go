package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledger/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ledger/internal/config"
	"github.com/MrJamesThe3rd/ledger/internal/database"
	"github.com/MrJamesThe3rd/ledger/internal/logging"
	"github.com/MrJamesThe3rd/ledger/internal/report"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
	txStore "github.com/MrJamesThe3rd/ledger/internal/transaction/store"
)

const (
	exportDir = "./exports"
	// The terminal belongs to the UI, so logs only go to a file.
	defaultLogFile = "ledger-tui.log"
)

// screen is a full-window view reachable from the menu.
type screen interface {
	tea.Model
	Title() string
	ShortHelp() string
}

type entry struct {
	key   string
	title string
	open  func() screen
}

type model struct {
	entries []entry
	active  screen
}

func newModel(txSvc *transaction.Service, reportSvc *report.Service) model {
	return model{entries: []entry{
		{key: "1", title: "Financial report", open: func() screen { return view.NewReportModel(reportSvc, exportDir) }},
		{key: "2", title: "Browse transactions", open: func() screen { return view.NewListModel(txSvc) }},
	}}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.active == nil {
			return m.updateMenu(msg)
		}
	case view.BackMsg:
		m.active = nil
		return m, nil
	}

	if m.active == nil {
		return m, nil
	}

	next, cmd := m.active.Update(msg)
	m.active = next.(screen)

	return m, cmd
}

func (m model) updateMenu(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.String() == "q" {
		return m, tea.Quit
	}

	for _, e := range m.entries {
		if e.key == key.String() {
			m.active = e.open()
			return m, m.active.Init()
		}
	}

	return m, nil
}

var (
	menuStyle  = lipgloss.NewStyle().Padding(2)
	helpStyle  = lipgloss.NewStyle().Faint(true).PaddingLeft(1)
	titleStyle = lipgloss.NewStyle().Bold(true).PaddingLeft(1)
)

func (m model) View() string {
	if m.active != nil {
		return titleStyle.Render(m.active.Title()) + "\n" + m.active.View() + "\n" + helpStyle.Render(m.active.ShortHelp())
	}

	var b strings.Builder

	b.WriteString("Ledger\n\n")

	for _, e := range m.entries {
		fmt.Fprintf(&b, "%s. %s\n", e.key, e.title)
	}

	b.WriteString("\nq. Quit")

	return menuStyle.Render(b.String())
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = defaultLogFile
	}

	logger, closer, err := logging.New(io.Discard, logging.Options{
		Level:      cfg.Log.Level,
		File:       logFile,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	slog.SetDefault(logger)

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	txSvc := transaction.NewService(txStore.New(db))
	reportSvc := report.NewService(txSvc, report.WithCurrency(cfg.Report.Currency))

	if _, err := tea.NewProgram(newModel(txSvc, reportSvc), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		// The default logger may already point at the log file.
		fmt.Fprintln(os.Stderr, "ledger tui:", err)
		os.Exit(1)
	}
}
