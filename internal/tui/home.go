// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/i18n"
	"github.com/smr-web/smrweb/internal/logging"
)

// openSettingsMsg switches to the security settings screen.
type openSettingsMsg struct{}

// languageChangedMsg reports a language switch from the main screen.
type languageChangedMsg struct{ lang string }

// homeModel is the main screen reached after the lock.
type homeModel struct {
	ctx      context.Context
	store    *credentials.Store
	copy     func(string) error
	help     help.Model
	snapshot credentials.AuthConfig
	deviceID string
	status   string
	err      error
	width    int
}

func newHomeModel(ctx context.Context, store *credentials.Store, copyFn func(string) error) *homeModel {
	m := &homeModel{ctx: ctx, store: store, copy: copyFn, help: help.New()}
	m.refresh()
	return m
}

func (m *homeModel) refresh() {
	snap, err := m.store.Snapshot(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.snapshot = snap
	id, err := m.store.DeviceID(m.ctx)
	if err != nil {
		logging.Warnf("home: device id unavailable: %v", err)
	}
	m.deviceID = id
}

func (m *homeModel) Init() tea.Cmd { return nil }

func (m *homeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		km := newHomeKeyMap()
		switch {
		case key.Matches(msg, km.Quit):
			return m, tea.Quit
		case key.Matches(msg, km.Copy):
			if m.deviceID == "" {
				return m, nil
			}
			if err := m.copy(m.deviceID); err != nil {
				m.status = errorStyle.Render(i18n.T("home.copy_failed", err.Error()))
			} else {
				m.status = successStyle.Render(i18n.T("home.copied"))
			}
		case key.Matches(msg, km.Settings):
			return m, func() tea.Msg { return openSettingsMsg{} }
		case key.Matches(msg, km.Language):
			next := i18n.Next()
			i18n.SetLang(next)
			m.status = ""
			return m, func() tea.Msg { return languageChangedMsg{lang: next} }
		}
	}
	return m, nil
}

func (m *homeModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(i18n.T("home.title")))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	lock := i18n.T("home.lock_off")
	if m.snapshot.AuthEnabled && m.snapshot.PinSet {
		lock = i18n.T("home.lock_on")
	}
	bio := i18n.T("home.biometric_off")
	if m.snapshot.BiometricEnabled {
		bio = i18n.T("home.biometric_on")
	}
	b.WriteString(itemStyle.Render(lock))
	b.WriteString("\n")
	b.WriteString(itemStyle.Render(bio))
	b.WriteString("\n")
	if m.deviceID != "" {
		b.WriteString(itemStyle.Render(i18n.T("home.device_id", m.deviceID)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(AlignFooter(m.status, helpStyle.Render(i18n.GetLang()), max(m.width-4, 40)))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(newHomeKeyMap()))
	return b.String()
}
