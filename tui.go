package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/oklog/ulid/v2"
)

type bacItem struct {
	option   BACOption
	selected bool
}

func (b bacItem) Title() string {
	if b.selected {
		return b.option.Label + " (current)"
	}
	return b.option.Label
}
func (b bacItem) Description() string { return b.option.Value }
func (b bacItem) FilterValue() string { return b.option.Label }

// payloadMsg carries the result of a fetch started by Init or the Go key.
type payloadMsg struct {
	phase   Phase
	bac     string
	payload *DashboardPayload
	err     error
}

type toastTickMsg time.Time

const (
	toastTTL          = 5 * time.Second
	maxToasts         = 3
	toastTickInterval = 100 * time.Millisecond
)

// toastStack holds the error notifications shown under the tables, newest
// last. Each expires toastTTL after its CreatedAt.
type toastStack struct {
	items   []Notification
	ticking bool
}

func (s *toastStack) push(n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	s.items = append(s.items, n)
	if len(s.items) > maxToasts {
		s.items = s.items[len(s.items)-maxToasts:]
	}
}

func (s *toastStack) expire(now time.Time) {
	kept := s.items[:0]
	for _, n := range s.items {
		if now.Sub(n.CreatedAt) < toastTTL {
			kept = append(kept, n)
		}
	}
	s.items = kept
}

func (s *toastStack) dismiss() {
	if len(s.items) > 0 {
		s.items = s.items[:len(s.items)-1]
	}
}

func (s *toastStack) view() []string {
	out := make([]string, 0, len(s.items))
	for _, n := range s.items {
		out = append(out, toastStyle.Render(statusError.Render(n.Title)+"\n"+n.Message))
	}
	return out
}

type model struct {
	ctx      context.Context
	dash     *Dashboard
	toasts   *toastStack
	opps     table.Model
	contacts table.Model
	picker   list.Model
	picking  bool
	focus    int
	version  ulid.ULID
	pending  int
	lastURL  string
	ready    bool
	width    int
	height   int
}

var (
	accent      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	subtle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	panel       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activePanel = panel.BorderForeground(lipgloss.Color("63"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	statusReady = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	statusBusy  = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
	statusError = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	toastStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("203")).Padding(0, 1).Width(60)
)

var (
	oppsWidths    = []int{4, 16, 18, 12, 12, 9}
	contactWidths = []int{22, 18, 28, 16}
)

// newModel wires the dashboard's notifications into the toast stack. bus
// must be the notifier the dashboard was built with.
func newModel(ctx context.Context, dash *Dashboard, bus *Bus) model {
	toasts := &toastStack{}
	bus.Subscribe(toasts.push)

	opps := table.New(
		table.WithColumns(tableColumns(append([]string{"#"}, columnLabels(OppsColumns)...), oppsWidths)),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	contacts := table.New(
		table.WithColumns(tableColumns(columnLabels(ContactColumns), contactWidths)),
		table.WithHeight(6),
	)

	picker := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	picker.Title = "Select BAC"
	picker.SetShowStatusBar(false)
	picker.SetFilteringEnabled(false)
	picker.SetShowHelp(false)

	return model{
		ctx:      ctx,
		dash:     dash,
		toasts:   toasts,
		opps:     opps,
		contacts: contacts,
		picker:   picker,
		pending:  1,
	}
}

func tableColumns(labels []string, widths []int) []table.Column {
	columns := make([]table.Column, len(labels))
	for i, label := range labels {
		columns[i] = table.Column{Title: label, Width: widths[i]}
	}
	return columns
}

func toRows(cells [][]string) []table.Row {
	rows := make([]table.Row, 0, len(cells))
	for _, c := range cells {
		rows = append(rows, table.Row(c))
	}
	return rows
}

func fetchInitialCmd(ctx context.Context, service QueryService, recordID string) tea.Cmd {
	return func() tea.Msg {
		p, err := service.InitialData(ctx, recordID)
		return payloadMsg{phase: PhaseInitial, payload: p, err: err}
	}
}

func fetchScopedCmd(ctx context.Context, service QueryService, recordID, bac string) tea.Cmd {
	return func() tea.Msg {
		p, err := service.DataForBAC(ctx, recordID, bac)
		return payloadMsg{phase: PhaseRescope, bac: bac, payload: p, err: err}
	}
}

func toastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg { return toastTickMsg(t) })
}

func (m model) Init() tea.Cmd {
	m.dash.begin(PhaseInitial)
	return fetchInitialCmd(m.ctx, m.dash.service, m.dash.recordID)
}

// startGo issues a re-fetch for the current selection. Earlier fetches are
// left running; results are applied in arrival order.
func (m model) startGo() (model, tea.Cmd) {
	m.dash.begin(PhaseRescope)
	m.pending++
	return m, fetchScopedCmd(m.ctx, m.dash.service, m.dash.recordID, m.dash.SelectedBAC())
}

func (m model) applyPayload(msg payloadMsg) model {
	if m.pending > 0 {
		m.pending--
	}
	switch msg.phase {
	case PhaseInitial:
		m.dash.finishInitial(msg.payload, msg.err)
	default:
		m.dash.finishScoped(msg.bac, msg.payload, msg.err)
	}
	return m.syncTables()
}

// syncTables refreshes table rows when the payload version has changed.
func (m model) syncTables() model {
	if m.dash.Version() == m.version {
		return m
	}
	m.version = m.dash.Version()
	data := m.dash.Data()
	m.opps.SetRows(toRows(oppCells(OppsTable(data))))
	m.opps.GotoTop()
	m.contacts.SetRows(toRows(contactCells(Contacts(data))))
	m.contacts.GotoTop()
	return m
}

func (m model) openPicker() (model, tea.Cmd) {
	options := BACOptions(m.dash.Data())
	items := make([]list.Item, 0, len(options))
	selectedIdx := 0
	for i, o := range options {
		current := o.Value == m.dash.SelectedBAC()
		if current {
			selectedIdx = i
		}
		items = append(items, bacItem{option: o, selected: current})
	}
	cmd := m.picker.SetItems(items)
	m.picker.Select(selectedIdx)
	m.picking = true
	return m, cmd
}

func (m model) withToastTick(cmd tea.Cmd) tea.Cmd {
	if len(m.toasts.items) > 0 && !m.toasts.ticking {
		m.toasts.ticking = true
		return tea.Batch(cmd, toastTick())
	}
	return cmd
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.picker.SetSize(msg.Width-4, max(msg.Height-6, 8))
		m.ready = true
		return m, nil
	case payloadMsg:
		m = m.applyPayload(msg)
		return m, m.withToastTick(nil)
	case toastTickMsg:
		m.toasts.expire(time.Time(msg))
		if len(m.toasts.items) == 0 {
			m.toasts.ticking = false
			return m, nil
		}
		return m, toastTick()
	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "b":
			return m.openPicker()
		case "g":
			return m.startGo()
		case "s":
			m.lastURL = m.dash.OpenScorecard()
			return m, nil
		case "m":
			m.lastURL = m.dash.OpenSummary()
			return m, nil
		case "x":
			m.toasts.dismiss()
			return m, nil
		case "tab":
			m.focus = (m.focus + 1) % 2
			if m.focus == 0 {
				m.opps.Focus()
				m.contacts.Blur()
			} else {
				m.contacts.Focus()
				m.opps.Blur()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.opps, cmd = m.opps.Update(msg)
	} else {
		m.contacts, cmd = m.contacts.Update(msg)
	}
	return m, cmd
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.picking = false
		return m, nil
	case "enter":
		if item, ok := m.picker.SelectedItem().(bacItem); ok {
			m.dash.SelectBAC(item.option.Value)
		}
		m.picking = false
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "Loading dealer performance dashboard..."
	}
	if m.picking {
		return panel.Render(m.picker.View()) + "\n" + subtle.Render("enter to select · esc to cancel")
	}

	header := headerStyle.Render("Dealer Performance Dashboard")
	meta := subtle.Render("b choose BAC · g go · s scorecard · m summary · tab switch table · x dismiss · q quit")

	sections := []string{header, meta, m.statusLine()}
	if months := MonthLabels(m.dash.Data()); len(months) > 0 {
		sections = append(sections, subtle.Render("Months: "+strings.Join(months, " · ")))
	}

	if !m.dash.HasData() {
		sections = append(sections, subtle.Render("No dashboard data loaded."))
	} else {
		oppsPanel, contactsPanel := panel, panel
		if m.focus == 0 {
			oppsPanel = activePanel
		} else {
			contactsPanel = activePanel
		}
		sections = append(sections,
			oppsPanel.Render(accent.Render("Opportunities")+"\n"+m.opps.View()),
			contactsPanel.Render(accent.Render("Contacts")+"\n"+m.contacts.View()),
		)
	}
	if m.lastURL != "" {
		sections = append(sections, subtle.Render("Opened "+m.lastURL))
	}
	sections = append(sections, m.toasts.view()...)
	return strings.Join(sections, "\n\n")
}

func (m model) statusLine() string {
	var state string
	switch {
	case m.pending > 0:
		state = statusBusy.Render("Loading")
	case m.dash.State() == StateReady:
		state = statusReady.Render("Ready")
	case m.dash.State() == StateFailed:
		state = statusError.Render("Failed")
	default:
		state = statusBusy.Render("Loading")
	}
	if m.pending > 1 {
		state += subtle.Render(fmt.Sprintf(" (%d requests in flight)", m.pending))
	}
	bac := m.dash.SelectedBAC()
	if bac == "" {
		bac = "-"
	}
	return fmt.Sprintf("%s · Record %s · BAC %s · F&I sections %d",
		state, m.dash.RecordID(), accent.Render(bac), len(FISections(m.dash.Data())))
}
