package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/interop/transcoder"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	layoutStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browseState int

const (
	stateSelectType browseState = iota
	stateShowType
)

type browseModel struct {
	all      []transcoder.Descriptor
	visible  []transcoder.Descriptor
	filter   textinput.Model
	selected int
	state    browseState
}

func newBrowseModel(descs []transcoder.Descriptor) *browseModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Width = 30
	ti.Focus()
	return &browseModel{all: descs, visible: descs, filter: ti}
}

func (m *browseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.state == stateSelectType && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			switch m.state {
			case stateSelectType:
				if len(m.visible) > 0 {
					m.state = stateShowType
				}
			case stateShowType:
				m.state = stateSelectType
			}
			return m, nil

		case "esc":
			if m.state == stateShowType {
				m.state = stateSelectType
				return m, nil
			}
			return m, tea.Quit
		}
	}

	if m.state != stateSelectType {
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *browseModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0:0]
	for _, d := range m.all {
		if q == "" || strings.Contains(strings.ToLower(d.Name()), q) {
			m.visible = append(m.visible, d)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browseModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ABI Probe"))
	b.WriteString(fmt.Sprintf(" %d types\n\n", len(m.all)))

	switch m.state {
	case stateSelectType:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for i, d := range m.visible {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + formatType(d)))
			} else {
				b.WriteString("  " + formatType(d))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter details • esc quit"))

	case stateShowType:
		d := m.visible[m.selected]
		b.WriteString(nameStyle.Render(d.Name()))
		b.WriteString("\n\n")
		b.WriteString(detailStyle.Render(transcoder.Describe(d)))
		b.WriteString("\n")
		b.WriteString(layoutStyle.Render(transcoder.Definition(d)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter/esc back • ctrl+c quit"))
	}

	return b.String()
}

func formatType(d transcoder.Descriptor) string {
	l := d.Layout()
	return nameStyle.Render(d.Name()) + " " + layoutStyle.Render(fmt.Sprintf("%s size=%d align=%d", d.Kind(), l.Size, l.Align))
}

func runInteractive(descs []transcoder.Descriptor) error {
	p := tea.NewProgram(newBrowseModel(descs), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
