package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pane int

const (
	paneTrace pane = iota
	paneListing
	paneHex
)

var paneNames = [...]string{"trace", "disassembly", "body"}

func (p pane) String() string { return paneNames[p] }

const listWidth = 22

type interactiveModel struct {
	cfg        settings
	assemblies []*assembly
	visible    []int
	view       viewport.Model
	filter     textinput.Model
	selected   int
	pane       pane
	filtering  bool
	ready      bool
}

type assembledMsg struct {
	assemblies []*assembly
}

func newInteractiveModel(cfg settings) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.Width = listWidth - 2
	return &interactiveModel{cfg: cfg, filter: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.assemble
}

func (m *interactiveModel) assemble() tea.Msg {
	return assembledMsg{assemblies: assembleAll(catalogue, m.cfg)}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.refresh()
			}

		case "down", "j":
			if m.selected < len(m.visible)-1 {
				m.selected++
				m.refresh()
			}

		case "tab":
			m.pane = (m.pane + 1) % pane(len(paneNames))
			m.refresh()

		case "/":
			m.filtering = true
			return m, m.filter.Focus()

		case "esc":
			m.filter.SetValue("")
			m.applyFilter()

		default:
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		width, height := msg.Width-listWidth-2, msg.Height-4
		if !m.ready {
			m.view = viewport.New(width, height)
			m.ready = true
		} else {
			m.view.Width, m.view.Height = width, height
		}
		m.refresh()

	case assembledMsg:
		m.assemblies = msg.assemblies
		m.applyFilter()
	}

	return m, nil
}

func (m *interactiveModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter", "esc":
		m.filtering = false
		m.filter.Blur()
		if msg.String() == "esc" {
			m.filter.SetValue("")
		}
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *interactiveModel) applyFilter() {
	query := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, a := range m.assemblies {
		if query == "" || strings.Contains(a.sample.name, query) ||
			strings.Contains(strings.ToLower(a.sample.summary), query) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
	m.refresh()
}

func (m *interactiveModel) current() *assembly {
	if len(m.visible) == 0 {
		return nil
	}
	return m.assemblies[m.visible[m.selected]]
}

func (m *interactiveModel) refresh() {
	if !m.ready {
		return
	}
	a := m.current()
	if a == nil {
		m.view.SetContent("no matching methods")
		return
	}

	var b strings.Builder
	b.WriteString(a.sample.summary)
	b.WriteString("\n\n")
	switch m.pane {
	case paneTrace:
		b.WriteString(a.trace)
	case paneListing:
		b.WriteString(a.listing)
	case paneHex:
		b.WriteString(a.hex())
	}
	if a.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", a.err)))
	}
	m.view.SetContent(b.String())
	m.view.GotoTop()
}

func (m *interactiveModel) View() string {
	if !m.ready || m.assemblies == nil {
		return "Assembling methods..."
	}

	var list strings.Builder
	for i, idx := range m.visible {
		a := m.assemblies[idx]
		line := a.sample.name
		if a.err != nil {
			line += " !"
		}
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + line))
		} else {
			list.WriteString("  " + nameStyle.Render(line))
		}
		list.WriteString("\n")
	}
	if m.filtering || m.filter.Value() != "" {
		list.WriteString("\n")
		list.WriteString(m.filter.View())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("IL Assembler"))
	b.WriteString(" ")
	b.WriteString(sectionStyle.Render(m.pane.String()))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Render(list.String()),
		m.view.View(),
	))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • tab switch view • / filter • pgup/pgdn scroll • q quit"))
	return b.String()
}

func runInteractive(cfg settings) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
