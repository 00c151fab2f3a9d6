// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/smr-web/smrweb/internal/i18n"
)

// enrollDoneMsg answers the biometric enrollment offer.
type enrollDoneMsg struct{ enable bool }

// enrollModel is the yes/no dialog shown after a new PIN when an
// authenticator is available.
type enrollModel struct {
	yes  bool
	help help.Model
}

func newEnrollModel() *enrollModel {
	return &enrollModel{yes: true, help: help.New()}
}

func (m *enrollModel) Init() tea.Cmd { return nil }

func (m *enrollModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	km := newEnrollKeyMap()
	switch {
	case key.Matches(kmsg, km.Left), key.Matches(kmsg, km.Right):
		m.yes = !m.yes
	case key.Matches(kmsg, km.Select):
		enable := m.yes
		return m, func() tea.Msg { return enrollDoneMsg{enable: enable} }
	case kmsg.String() == "y":
		return m, func() tea.Msg { return enrollDoneMsg{enable: true} }
	case kmsg.String() == "n", kmsg.String() == "esc":
		return m, func() tea.Msg { return enrollDoneMsg{enable: false} }
	}
	return m, nil
}

func (m *enrollModel) View() string {
	yes, no := buttonStyle, activeButtonStyle
	if m.yes {
		yes, no = activeButtonStyle, buttonStyle
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		yes.Render(i18n.T("enroll.yes")),
		no.Render(i18n.T("enroll.no")),
	)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(i18n.T("enroll.title")))
	b.WriteString("\n\n")
	b.WriteString(i18n.T("enroll.body"))
	b.WriteString("\n")
	b.WriteString(buttons)
	return dialogBoxStyle.Render(b.String()) + "\n\n" + m.help.View(newEnrollKeyMap())
}
