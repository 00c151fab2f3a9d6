// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/smr-web/smrweb/internal/biometric"
	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/i18n"
)

// backToHomeMsg leaves the settings screen.
type backToHomeMsg struct{}

// startPinSetupMsg asks the root model for a PIN setup session that
// returns to settings when done.
type startPinSetupMsg struct{}

type settingsItem int

const (
	itemAuth settingsItem = iota
	itemBiometric
	itemChangePin
	itemReset
	itemCount
)

// settingsModel is the security settings screen.
type settingsModel struct {
	ctx        context.Context
	store      *credentials.Store
	gate       biometric.Gate
	help       help.Model
	cursor     settingsItem
	snapshot   credentials.AuthConfig
	gateReady  bool
	confirming bool
	status     string
}

func newSettingsModel(ctx context.Context, store *credentials.Store, gate biometric.Gate) *settingsModel {
	m := &settingsModel{ctx: ctx, store: store, gate: gate, help: help.New()}
	m.refresh()
	return m
}

func (m *settingsModel) refresh() {
	if snap, err := m.store.Snapshot(m.ctx); err == nil {
		m.snapshot = snap
	} else {
		m.status = errorStyle.Render(i18n.T("settings.error", err.Error()))
	}
	m.gateReady = m.gate.Available(m.ctx)
}

func (m *settingsModel) Init() tea.Cmd { return nil }

func (m *settingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.confirming {
		m.confirming = false
		if kmsg.String() == "y" {
			if err := m.store.ResetSecurity(m.ctx); err != nil {
				m.status = errorStyle.Render(i18n.T("settings.error", err.Error()))
			} else {
				m.status = successStyle.Render(i18n.T("settings.reset_done"))
			}
			m.refresh()
		} else {
			m.status = ""
		}
		return m, nil
	}

	km := newSettingsKeyMap()
	switch {
	case key.Matches(kmsg, km.Back):
		return m, func() tea.Msg { return backToHomeMsg{} }
	case key.Matches(kmsg, km.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(kmsg, km.Down):
		if m.cursor < itemCount-1 {
			m.cursor++
		}
	case key.Matches(kmsg, km.Toggle):
		return m, m.activate()
	}
	return m, nil
}

func (m *settingsModel) activate() tea.Cmd {
	m.status = ""
	switch m.cursor {
	case itemAuth:
		if m.snapshot.AuthEnabled {
			m.save(m.store.SetAuthEnabled(m.ctx, false))
			if m.snapshot.BiometricEnabled {
				m.save(m.store.SetBiometricEnabled(m.ctx, false))
			}
			m.refresh()
			return nil
		}
		if !m.snapshot.PinSet {
			return func() tea.Msg { return startPinSetupMsg{} }
		}
		m.save(m.store.SetAuthEnabled(m.ctx, true))
		m.refresh()
	case itemBiometric:
		switch {
		case !m.snapshot.AuthEnabled:
			m.status = specialStyle.Render(i18n.T("settings.biometric_needs_auth"))
		case !m.snapshot.BiometricEnabled && !m.gateReady:
			m.status = specialStyle.Render(i18n.T("settings.biometric_unavailable"))
		default:
			m.save(m.store.SetBiometricEnabled(m.ctx, !m.snapshot.BiometricEnabled))
			m.refresh()
		}
	case itemChangePin:
		return func() tea.Msg { return startPinSetupMsg{} }
	case itemReset:
		m.confirming = true
	}
	return nil
}

func (m *settingsModel) save(err error) {
	if err != nil {
		m.status = errorStyle.Render(i18n.T("settings.error", err.Error()))
	}
}

func onOff(v bool) string {
	if v {
		return successStyle.Render(i18n.T("settings.on"))
	}
	return helpStyle.Render(i18n.T("settings.off"))
}

func (m *settingsModel) View() string {
	rows := []string{
		fmt.Sprintf("%s: %s", i18n.T("settings.auth"), onOff(m.snapshot.AuthEnabled)),
		fmt.Sprintf("%s: %s", i18n.T("settings.biometric"), onOff(m.snapshot.BiometricEnabled)),
		i18n.T("settings.change_pin"),
		i18n.T("settings.reset"),
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(i18n.T("settings.title")))
	b.WriteString("\n")
	for i, row := range rows {
		item := settingsItem(i)
		switch {
		case item == m.cursor:
			b.WriteString(selectedItemStyle.Render("> " + row))
		case item == itemBiometric && (!m.snapshot.AuthEnabled || !m.gateReady):
			b.WriteString(inactiveItemStyle.Render("  " + row))
		default:
			b.WriteString(itemStyle.Render("  " + row))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.confirming {
		b.WriteString(specialStyle.Render(i18n.T("settings.reset_confirm")))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(newSettingsKeyMap()))
	return b.String()
}
