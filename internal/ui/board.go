package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tickerboard/internal/market"
	"github.com/five82/tickerboard/internal/view"
)

const (
	placeholder = "--"
	timeLayout  = "15:04:05"
)

var instrumentTitles = map[market.Instrument]string{
	market.Primary:   "PRIMARY",
	market.Secondary: "SECONDARY",
}

// renderMain renders the full board.
func (m Model) renderMain() string {
	sections := []string{m.renderHeader()}
	if m.banner != "" {
		sections = append(sections, m.theme.Styles().Banner.Render(m.banner))
	}
	sections = append(sections, m.renderInstruments(), m.renderSignals())
	if m.panelVisible {
		sections = append(sections, m.renderSettingsPanel())
	} else {
		sections = append(sections, m.renderLog())
	}
	sections = append(sections, m.renderCommandBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// text returns the field's text styled by its class.
func (m Model) text(field view.FieldID) string {
	value, ok := m.texts[field]
	if !ok || value == "" {
		return m.theme.Styles().FaintText.Render(placeholder)
	}
	return m.theme.Styles().ClassStyle(m.classes[field]).Render(value)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	parts := []string{
		styles.Logo.Render("tickerboard"),
		styles.MutedText.Render("server ") + m.text(view.ConnectionStatus),
		styles.MutedText.Render("monitor ") + m.text(view.MonitoringStatus),
		styles.MutedText.Render("updated ") + m.text(view.LastUpdate),
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "   "))
}

func (m Model) renderInstruments() string {
	cards := make([]string, 0, len(market.Instruments()))
	width := m.width/len(market.Instruments()) - 1
	for _, inst := range market.Instruments() {
		cards = append(cards, m.renderInstrument(inst, width))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m Model) renderInstrument(inst market.Instrument, width int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.AccentText.Render(instrumentTitles[inst]))
	b.WriteString("  ")
	b.WriteString(m.text(view.Price(inst)))
	b.WriteString(" ")
	b.WriteString(m.text(view.Change(inst)))
	b.WriteString("\n")

	b.WriteString(styles.MutedText.Render("24h amplitude "))
	b.WriteString(m.text(view.Volatility(inst)))
	b.WriteString(styles.MutedText.Render("  growth "))
	b.WriteString(m.text(view.Growth(inst)))
	b.WriteString("\n")

	b.WriteString(styles.MutedText.Render("conditions "))
	b.WriteString(m.text(view.Condition(inst)))
	b.WriteString("\n")

	for _, tf := range inst.Timeframes() {
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(padRight(string(tf), 4)))
		b.WriteString(styles.MutedText.Render(" BOLL "))
		b.WriteString(m.text(view.Band(inst, tf, view.BandUpper)))
		b.WriteString(" / ")
		b.WriteString(m.text(view.Band(inst, tf, view.BandMiddle)))
		b.WriteString(" / ")
		b.WriteString(m.text(view.Band(inst, tf, view.BandLower)))
		b.WriteString("\n    ")
		b.WriteString(styles.MutedText.Render(" KDJ  "))
		b.WriteString(m.text(view.Oscillator(inst, tf, view.OscK)))
		b.WriteString(" / ")
		b.WriteString(m.text(view.Oscillator(inst, tf, view.OscD)))
		b.WriteString(" / ")
		b.WriteString(m.text(view.Oscillator(inst, tf, view.OscJ)))
	}

	card := styles.Card
	if width > 4 {
		card = card.Width(width)
	}
	return card.Render(b.String())
}

func (m Model) renderSignals() string {
	styles := m.theme.Styles()
	return styles.MutedText.Render(" signals ") + m.text(view.SignalCount) +
		styles.MutedText.Render("  ") + m.text(view.SignalList)
}

// layoutLog sizes the activity viewport to the space left below the board.
func (m *Model) layoutLog() {
	board := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderInstruments()) + 2
	height := m.height - board - 1
	if height < 3 {
		height = 3
	}
	m.logViewport.Width = m.width
	m.logViewport.Height = height
	m.refreshLog()
	m.logViewport.GotoBottom()
}

// refreshLog re-renders every entry into the viewport.
func (m *Model) refreshLog() {
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, styles.FaintText.Render("["+e.Timestamp.Format(timeLayout)+"] ")+
			styles.SeverityStyle(e.Severity).Render(e.Message))
	}
	m.logViewport.SetContent(strings.Join(lines, "\n"))
}

func (m Model) renderLog() string {
	title := m.theme.Styles().MutedText.Render(" activity")
	return lipgloss.JoinVertical(lipgloss.Left, title, m.logViewport.View())
}

func (m Model) renderCommandBar() string {
	h := help.New()
	h.ShortSeparator = " · "
	if m.panelVisible {
		return m.theme.Styles().Footer.Width(m.width).Render(
			h.ShortHelpView([]key.Binding{m.keys.NextField, m.keys.Save, m.keys.Reset, m.keys.Cancel}))
	}
	return m.theme.Styles().Footer.Width(m.width).Render(h.ShortHelpView(m.keys.ShortHelp()))
}

func (m Model) renderHelp() string {
	h := help.New()
	h.ShowAll = true
	styles := m.theme.Styles()
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.AccentText.Render("Keyboard shortcuts"),
		"",
		h.View(m.keys),
		"",
		styles.FaintText.Render("theme: "+m.theme.Name+" · press any key to close"),
	)
	return styles.Panel.Render(body)
}
