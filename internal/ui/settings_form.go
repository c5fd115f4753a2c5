package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tickerboard/internal/settings"
	"github.com/five82/tickerboard/internal/view"
)

var settingsLabels = map[view.FieldID]string{
	view.SettingsVolatility: "Volatility threshold (%)",
	view.SettingsGrowth:     "Growth threshold (%)",
	view.SettingsKDJ:        "KDJ threshold",
	view.SettingsOversold1:  "Oversold level 1",
	view.SettingsOversold2:  "Oversold level 2",
	view.SettingsOversold3:  "Oversold level 3",
	view.SettingsOversold4:  "Oversold level 4",
	view.SettingsOverbought: "Overbought level",
	view.SettingsInterval:   "Update interval (s)",
}

func newSettingsInputs() []textinput.Model {
	fields := view.SettingsFields()
	inputs := make([]textinput.Model, len(fields))
	for i := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 12
		ti.Width = 12
		inputs[i] = ti
	}
	return inputs
}

// syncInput mirrors a settings field update into its text input.
func (m *Model) syncInput(field view.FieldID, value string) {
	for i, f := range view.SettingsFields() {
		if f == field {
			m.inputs[i].SetValue(value)
			m.inputs[i].CursorEnd()
			return
		}
	}
}

func (m Model) setPanel(visible bool) (tea.Model, tea.Cmd) {
	m.panelVisible = visible
	m.formErr = ""
	if !visible {
		for i := range m.inputs {
			m.inputs[i].Blur()
		}
		return m, nil
	}
	m.focusIdx = 0
	return m, m.focusInput()
}

func (m *Model) focusInput() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focusIdx {
			cmd = m.inputs[i].Focus()
			continue
		}
		m.inputs[i].Blur()
	}
	return cmd
}

// formValues collects the current text of every settings input.
func (m Model) formValues() map[view.FieldID]string {
	values := make(map[view.FieldID]string, len(m.inputs))
	for i, f := range view.SettingsFields() {
		values[f] = m.inputs[i].Value()
	}
	return values
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m, m.command(func(c Controller) { c.CancelSettings() })
	case key.Matches(msg, m.keys.Reset):
		m.formErr = ""
		return m, m.command(func(c Controller) { c.ResetSettings() })
	case key.Matches(msg, m.keys.Save):
		draft, err := settings.Parse(m.formValues())
		if err != nil {
			m.formErr = err.Error()
			return m, nil
		}
		m.formErr = ""
		return m, m.command(func(c Controller) { c.SaveSettings(draft) })
	case key.Matches(msg, m.keys.NextField):
		m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
		return m, m.focusInput()
	case key.Matches(msg, m.keys.PrevField):
		m.focusIdx = (m.focusIdx - 1 + len(m.inputs)) % len(m.inputs)
		return m, m.focusInput()
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m Model) renderSettingsPanel() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Render("Strategy settings"))
	b.WriteString("\n\n")

	for i, f := range view.SettingsFields() {
		label := styles.MutedText.Render(padRight(settingsLabels[f], 26))
		if i == m.focusIdx {
			label = styles.Text.Render(padRight(settingsLabels[f], 26))
		}
		b.WriteString(label)
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if m.formErr != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(m.formErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter save · ctrl+r defaults · esc cancel"))

	return styles.Panel.Render(b.String())
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
