package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/safe-url-paths/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	staticStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// interactiveModel edits the dynamic values of one template and renders the
// escaped path after every keystroke.
type interactiveModel struct {
	err      error
	ctx      context.Context
	tmpl     *runtime.Template
	statics  []string
	result   string
	inputs   []textinput.Model
	focusIdx int
}

func newInteractiveModel(ctx context.Context, tmpl *runtime.Template, statics, dynamics []string) *interactiveModel {
	m := &interactiveModel{
		ctx:     ctx,
		tmpl:    tmpl,
		statics: statics,
		inputs:  make([]textinput.Model, tmpl.Holes()),
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("{%d}: ", i)
		ti.Placeholder = "value"
		ti.Width = 40
		if i < len(dynamics) {
			ti.SetValue(dynamics[i])
		}
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.render()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "down":
			m.moveFocus(1)
			return m, nil

		case "shift+tab", "up":
			m.moveFocus(-1)
			return m, nil
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	m.render()
	return m, tea.Batch(cmds...)
}

func (m *interactiveModel) moveFocus(delta int) {
	if len(m.inputs) < 2 {
		return
	}
	m.inputs[m.focusIdx].Blur()
	m.focusIdx = (m.focusIdx + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focusIdx].Focus()
}

func (m *interactiveModel) values() []string {
	out := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		out[i] = in.Value()
	}
	return out
}

func (m *interactiveModel) render() {
	m.result, m.err = m.tmpl.Interpolate(m.ctx, m.values())
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Safe URL Paths"))
	b.WriteString(" ")
	b.WriteString(staticStyle.Render(templateString(m.statics)))
	b.WriteString("\n\n")

	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		b.WriteString(resultStyle.Render(m.result))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("tab next field • esc quit"))
	return b.String()
}

// templateString shows statics with numbered holes: /users/{0}/profile.
func templateString(statics []string) string {
	var b strings.Builder
	for i, s := range statics {
		if i > 0 {
			fmt.Fprintf(&b, "{%d}", i-1)
		}
		b.WriteString(s)
	}
	return b.String()
}

func runInteractive(ctx context.Context, rt *runtime.Runtime, statics, dynamics []string) error {
	tmpl, err := rt.Compile(ctx, statics)
	if err != nil {
		return err
	}
	defer tmpl.Close(ctx)

	p := tea.NewProgram(newInteractiveModel(ctx, tmpl, statics, dynamics), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
