// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/smr-web/smrweb/internal/biometric"
	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/i18n"
	"github.com/smr-web/smrweb/internal/pinpad"
)

// validateMsg fires Debounce after the fourth digit.
type validateMsg struct{ session int }

// biometricResultMsg carries a challenge outcome back onto the event loop.
type biometricResultMsg struct {
	session int
	out     biometric.Outcome
}

// pinDoneMsg is sent once the PIN session reaches Complete.
type pinDoneMsg struct{}

// pinCancelledMsg leaves a cancelable PIN session.
type pinCancelledMsg struct{}

// pinModel renders one PIN entry session.
type pinModel struct {
	ctx        context.Context
	machine    *pinpad.Machine
	session    int
	cancelable bool
	// bioReady caches whether biometric unlock may be offered. Checking
	// the gate can mean agent I/O, so it is refreshed on Init and after
	// each challenge, never while rendering.
	bioReady   bool
	help       help.Model
	errMsg     string
	waiting    bool
	cancel     context.CancelFunc
}

func newPinModel(ctx context.Context, session int, mode pinpad.Mode, store *credentials.Store, gate biometric.Gate, cancelable bool) *pinModel {
	return &pinModel{
		ctx:        ctx,
		machine:    pinpad.New(mode, store, gate),
		session:    session,
		cancelable: cancelable,
		help:       help.New(),
	}
}

// Init checks once whether biometric unlock can be offered. The challenge
// itself only starts from the biometric key.
func (m *pinModel) Init() tea.Cmd {
	m.refreshBiometric()
	return nil
}

func (m *pinModel) refreshBiometric() {
	m.bioReady = m.machine.CanUseBiometric(m.ctx)
}

// canBiometric reports whether the biometric key is live right now.
func (m *pinModel) canBiometric() bool {
	return m.bioReady && !m.waiting && !m.machine.Pending() &&
		m.machine.State() == pinpad.AwaitingVerifyEntry
}

func biometricPrompt() biometric.Prompt {
	return biometric.Prompt{
		Title:         i18n.T("biometric.prompt.title"),
		Subtitle:      i18n.T("biometric.prompt.subtitle"),
		Description:   i18n.T("biometric.prompt.description"),
		NegativeLabel: i18n.T("biometric.prompt.cancel"),
	}
}

func (m *pinModel) startBiometric() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.waiting = true
	m.errMsg = ""
	g, session, prompt := m.machine.Gate(), m.session, biometricPrompt()
	return func() tea.Msg {
		return biometricResultMsg{session: session, out: g.Challenge(ctx, prompt)}
	}
}

func (m *pinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case validateMsg:
		if msg.session != m.session {
			return m, nil
		}
		return m, m.validate()

	case biometricResultMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.waiting = false
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		if err := m.machine.ApplyBiometric(msg.out); err != nil {
			m.errMsg = describePinError(err)
			m.refreshBiometric()
			return m, nil
		}
		if m.machine.State() == pinpad.Complete {
			return m, func() tea.Msg { return pinDoneMsg{} }
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *pinModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	km := m.keys()

	if m.waiting {
		// esc is the prompt's negative button.
		if msg.String() == "esc" && m.cancel != nil {
			m.cancel()
		}
		return nil
	}

	switch {
	case key.Matches(msg, km.Restart):
		m.machine.Restart()
		m.errMsg = ""
		return nil
	case key.Matches(msg, km.Back):
		return func() tea.Msg { return pinCancelledMsg{} }
	case key.Matches(msg, km.Biometric):
		return m.startBiometric()
	case key.Matches(msg, km.Backspace):
		m.machine.Backspace()
		return nil
	case key.Matches(msg, km.Digits):
		if m.machine.Pending() {
			return nil
		}
		m.errMsg = ""
		if m.machine.Press(msg.Runes[0]) {
			session := m.session
			return tea.Tick(pinpad.Debounce, func(time.Time) tea.Msg {
				return validateMsg{session: session}
			})
		}
	}
	return nil
}

func (m *pinModel) validate() tea.Cmd {
	if err := m.machine.Validate(m.ctx); err != nil {
		m.errMsg = describePinError(err)
		return nil
	}
	if m.machine.State() == pinpad.Complete {
		return func() tea.Msg { return pinDoneMsg{} }
	}
	return nil
}

func describePinError(err error) string {
	switch {
	case errors.Is(err, pinpad.ErrPinMismatch):
		return i18n.T("pin.error.mismatch")
	case errors.Is(err, pinpad.ErrPinInvalid):
		return i18n.T("pin.error.invalid")
	case errors.Is(err, pinpad.ErrBiometricFailed):
		return i18n.T("pin.error.biometric_failed")
	case errors.Is(err, pinpad.ErrBiometricError):
		return i18n.T("pin.error.biometric_error")
	default:
		return i18n.T("pin.error.save", err.Error())
	}
}

func (m *pinModel) keys() pinKeyMap {
	return newPinKeyMap(m.canBiometric(), m.machine.State() == pinpad.Rejected, m.cancelable)
}

func (m *pinModel) title() string {
	switch m.machine.State() {
	case pinpad.AwaitingConfirmEntry:
		return i18n.T("pin.title.confirm")
	case pinpad.AwaitingVerifyEntry:
		return i18n.T("pin.title.verify")
	default:
		if m.machine.Mode() == pinpad.ModeVerifying {
			return i18n.T("pin.title.verify")
		}
		return i18n.T("pin.title.set")
	}
}

func (m *pinModel) dots() string {
	parts := make([]string, pinpad.PinLength)
	for i := range parts {
		if i < m.machine.Len() {
			parts[i] = dotFilledStyle.Render("●")
		} else {
			parts[i] = dotEmptyStyle.Render("○")
		}
	}
	return dotsBoxStyle.Render(strings.Join(parts, " "))
}

func (m *pinModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title()))
	b.WriteString("\n")
	if m.machine.Mode() == pinpad.ModeVerifying {
		b.WriteString(subtitleStyle.Render(i18n.T("pin.subtitle.verify")))
	} else {
		b.WriteString(subtitleStyle.Render(i18n.T("pin.subtitle.set")))
	}
	b.WriteString("\n")
	b.WriteString(m.dots())
	b.WriteString("\n")

	switch {
	case m.machine.State() == pinpad.Rejected:
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
		b.WriteString(specialStyle.Render(i18n.T("pin.rejected")))
	case m.waiting:
		b.WriteString(statusMessageStyle.Render(i18n.T("pin.biometric_waiting")))
	case m.errMsg != "":
		b.WriteString(errorStyle.Render(m.errMsg))
	case m.canBiometric():
		b.WriteString(helpStyle.Render(i18n.T("pin.biometric_hint")))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys()))
	return b.String()
}
