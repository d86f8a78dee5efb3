package view

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/ledger/internal/report"
)

// Timeframe names a range ending today, the whole history, or a typed range.
type Timeframe int

const (
	TimeframeThisWeek Timeframe = iota
	TimeframeThisMonth
	TimeframeThisYear
	TimeframeAll
	TimeframeCustom
)

var timeframeLabels = map[Timeframe]string{
	TimeframeThisWeek:  "Week to date (from Monday)",
	TimeframeThisMonth: "Month to date",
	TimeframeThisYear:  "Year to date",
	TimeframeAll:       "Whole history",
	TimeframeCustom:    "Typed range",
}

func (t Timeframe) String() string {
	if label, ok := timeframeLabels[t]; ok {
		return label
	}

	return fmt.Sprintf("Timeframe(%d)", int(t))
}

// timeframeBounds returns inclusive UTC day bounds ending today. Both are nil
// for TimeframeAll.
func timeframeBounds(tf Timeframe, now time.Time) (*time.Time, *time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var start time.Time

	switch tf {
	case TimeframeThisWeek:
		start = today.AddDate(0, 0, -(int(today.Weekday())+6)%7)
	case TimeframeThisMonth:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	case TimeframeThisYear:
		start, _ = report.DefaultWindow(now)
	default:
		return nil, nil
	}

	return &start, &today
}

// parseCustomRange validates a typed range the same way the API does.
func parseCustomRange(from, to string) (*time.Time, *time.Time, error) {
	start, err := report.ParseBound(from)
	if err != nil {
		return nil, nil, fmt.Errorf("start date: %w", err)
	}

	end, err := report.ParseBound(to)
	if err != nil {
		return nil, nil, fmt.Errorf("end date: %w", err)
	}

	if start == nil && end == nil {
		return nil, nil, errors.New("enter at least one date")
	}

	if _, err := report.NormalizeRange(start, end); err != nil {
		return nil, nil, err
	}

	return start, end, nil
}

// TimeframeSelectedMsg carries the chosen range. A nil bound leaves that
// side open.
type TimeframeSelectedMsg struct {
	From *time.Time
	To   *time.Time
}

const (
	keyTimeframe = "timeframe"
	keyFrom      = "from"
	keyTo        = "to"
)

// TimeframePicker asks for a Timeframe and, for TimeframeCustom, the two
// bounds. It emits TimeframeSelectedMsg once the range is valid.
type TimeframePicker struct {
	form    *huh.Form
	initial Timeframe
	now     func() time.Time
	err     error
}

func NewTimeframePicker(initial Timeframe) TimeframePicker {
	return TimeframePicker{
		form:    buildTimeframeForm(initial),
		initial: initial,
		now:     time.Now,
	}
}

func validBound(s string) error {
	_, err := report.ParseBound(s)
	return err
}

// buildTimeframeForm hides the bounds group unless a typed range is chosen.
// choice escapes to the heap, so the hide func sees the live selection.
func buildTimeframeForm(initial Timeframe) *huh.Form {
	choice := initial

	options := make([]huh.Option[Timeframe], 0, len(timeframeLabels))
	for tf := TimeframeThisWeek; tf <= TimeframeCustom; tf++ {
		options = append(options, huh.NewOption(tf.String(), tf))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Timeframe]().
				Key(keyTimeframe).
				Title("Timeframe").
				Options(options...).
				Value(&choice),
		),
		huh.NewGroup(
			huh.NewInput().
				Key(keyFrom).
				Title("From").
				Placeholder("YYYY-MM-DD, blank for open").
				CharLimit(10).
				Validate(validBound),
			huh.NewInput().
				Key(keyTo).
				Title("To").
				Placeholder("YYYY-MM-DD, blank for open").
				CharLimit(10).
				Validate(validBound),
		).WithHideFunc(func() bool { return choice != TimeframeCustom }),
	).WithWidth(50).WithShowHelp(false)
}

func (m TimeframePicker) Init() tea.Cmd {
	return m.form.Init()
}

// IsSelecting reports whether the timeframe list, rather than a bound input,
// has focus.
func (m TimeframePicker) IsSelecting() bool {
	field := m.form.GetFocusedField()
	return field == nil || field.GetKey() == keyTimeframe
}

// Reset rebuilds the form with the first choice preselected.
func (m *TimeframePicker) Reset() tea.Cmd {
	m.form = buildTimeframeForm(m.initial)
	m.err = nil

	return m.form.Init()
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc && !m.IsSelecting() {
		m.form = buildTimeframeForm(TimeframeCustom)
		return m, m.form.Init()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	tf, _ := m.form.Get(keyTimeframe).(Timeframe)
	if tf != TimeframeCustom {
		m.err = nil
		from, to := timeframeBounds(tf, m.now())

		return m, selected(from, to)
	}

	from, to, err := parseCustomRange(m.form.GetString(keyFrom), m.form.GetString(keyTo))
	if err != nil {
		m.err = err
		m.form = buildTimeframeForm(TimeframeCustom)

		return m, m.form.Init()
	}

	m.err = nil

	return m, selected(from, to)
}

func selected(from, to *time.Time) tea.Cmd {
	return func() tea.Msg {
		return TimeframeSelectedMsg{From: from, To: to}
	}
}

func (m TimeframePicker) View() string {
	v := m.form.View() + "\n" + mutedStyle.Render("Enter: next | Shift+Tab: previous | Esc: back")
	if m.err != nil {
		v += "\n\n" + errorStyle.Render("Error: "+m.err.Error())
	}

	return v
}
