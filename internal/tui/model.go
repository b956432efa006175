// Package tui is the interactive front end: pick a profile, type a MAC and
// watch the scan.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/radarip/radarip/internal/config"
	"github.com/radarip/radarip/internal/discovery"
	"github.com/radarip/radarip/internal/radar"
	"github.com/radarip/radarip/internal/tui/styles"
)

// Planner resolves scan requests. *radar.Planner implements it.
type Planner interface {
	Plan(req radar.Request) (*radar.Plan, error)
}

const (
	macField = iota
	rangeField
	fieldCount
)

// noProfile selects the configured defaults instead of a profile.
const noProfile = -1

type scanDoneMsg struct {
	outcome discovery.Outcome
}

type Model struct {
	ctx      context.Context
	planner  Planner
	profiles []config.Profile
	profile  int

	inputs   [fieldCount]textinput.Model
	focus    int
	username string

	spinner  spinner.Model
	scanning bool
	scanned  string
	outcome  *discovery.Outcome
	quitting bool
}

// NewModel creates the model. defaultUser is shown when no profile is selected.
func NewModel(ctx context.Context, planner Planner, profiles []config.Profile, defaultUser string) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(styles.Yellow)

	var inputs [fieldCount]textinput.Model
	inputs[macField] = textinput.New()
	inputs[macField].Placeholder = "aa:bb:cc:dd:ee:ff"
	inputs[macField].CharLimit = 17
	inputs[macField].Prompt = ""
	inputs[macField].Focus()

	inputs[rangeField] = textinput.New()
	inputs[rangeField].Placeholder = "192.168.1.0/24"
	inputs[rangeField].CharLimit = 18
	inputs[rangeField].Prompt = ""

	return Model{
		ctx:      ctx,
		planner:  planner,
		profiles: profiles,
		profile:  noProfile,
		inputs:   inputs,
		username: defaultUser,
		spinner:  s,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		if m.scanning {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			step := 1
			if msg.String() == "shift+tab" || msg.String() == "up" {
				step = fieldCount - 1
			}
			cmd := m.setFocus((m.focus + step) % fieldCount)
			return m, cmd
		case "ctrl+p":
			m.selectProfile(m.profile + 1)
			return m, nil
		case "enter":
			return m.startScan()
		}

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scanDoneMsg:
		m.scanning = false
		m.outcome = &msg.outcome
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = field
	return m.inputs[m.focus].Focus()
}

// selectProfile cycles through the profiles and back to none. A profile
// fills in its range and username.
func (m *Model) selectProfile(idx int) {
	if idx >= len(m.profiles) {
		idx = noProfile
	}
	m.profile = idx
	if idx == noProfile {
		return
	}
	p := m.profiles[idx]
	m.inputs[rangeField].SetValue(p.Range)
	m.username = p.Username
}

func (m Model) startScan() (tea.Model, tea.Cmd) {
	req := radar.Request{
		TargetMAC: strings.TrimSpace(m.inputs[macField].Value()),
		Range:     strings.TrimSpace(m.inputs[rangeField].Value()),
	}
	if m.profile != noProfile {
		req.Profile = m.profiles[m.profile].Name
	}

	plan, err := m.planner.Plan(req)
	if err != nil {
		outcome := discovery.NewOutcome("", err)
		m.outcome = &outcome
		return m, nil
	}

	m.scanning = true
	m.outcome = nil
	m.scanned = fmt.Sprintf("%s in %s", plan.TargetMAC, plan.Range)

	ctx := m.ctx
	scan := func() tea.Msg {
		ip, err := plan.Scanner.Scan(ctx, plan.TargetMAC, plan.Range)
		return scanDoneMsg{outcome: discovery.NewOutcome(ip, err)}
	}
	return m, tea.Batch(m.spinner.Tick, scan)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(styles.HeaderStyle.Render(" radarip ") + "\n\n")

	tabs := []string{m.tab("custom", m.profile == noProfile)}
	for i, p := range m.profiles {
		tabs = append(tabs, m.tab(p.Name, i == m.profile))
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	labels := [fieldCount]string{"MAC", "Range"}
	for i := range m.inputs {
		label := styles.LabelStyle.Render(labels[i])
		if i == m.focus {
			label = styles.FocusedStyle.Width(8).Render(labels[i])
		}
		s.WriteString(label + m.inputs[i].View() + "\n")
	}
	s.WriteString(styles.LabelStyle.Render("User") + styles.MutedStyle.Render(m.username) + "\n")

	switch {
	case m.scanning:
		s.WriteString("\n" + m.spinner.View() + " Searching for " + m.scanned + "\n")
	case m.outcome != nil:
		s.WriteString(renderOutcome(*m.outcome) + "\n")
	}

	s.WriteString(styles.FooterStyle.Render("enter scan • tab next field • ctrl+p profile • esc quit"))
	return s.String()
}

func (m Model) tab(name string, active bool) string {
	if active {
		return styles.ActiveTabStyle.Render(name)
	}
	return styles.TabStyle.Render(name)
}

func renderOutcome(o discovery.Outcome) string {
	switch o.Kind {
	case discovery.KindFound:
		return styles.ResultBox.BorderForeground(styles.Green).Render(styles.FoundStyle.Render("Found: " + o.IP))
	case discovery.KindMacNotFound:
		return styles.ResultBox.BorderForeground(styles.Yellow).Render(styles.WarnStyle.Render(o.Message))
	default:
		return styles.ResultBox.BorderForeground(styles.Red).Render(styles.ErrorStyle.Render(o.Message))
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, planner Planner, cfg *config.Config) error {
	p := tea.NewProgram(NewModel(ctx, planner, cfg.Profiles, cfg.SSH.Username), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
