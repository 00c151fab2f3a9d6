// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package tui provides the terminal user interface: the lock screen, PIN
// setup, the biometric enrollment prompt, the main screen and the security
// settings. The root model routes between them on the decision of the
// launch gate.
package tui // import "github.com/smr-web/smrweb/internal/tui"

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/smr-web/smrweb/internal/biometric"
	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/gate"
	"github.com/smr-web/smrweb/internal/i18n"
	"github.com/smr-web/smrweb/internal/logging"
	"github.com/smr-web/smrweb/internal/pinpad"
)

// viewState is the active screen.
type viewState int

const (
	pinView viewState = iota
	enrollView
	homeView
	settingsView
	errorView
)

// Deps are the services the TUI runs on.
type Deps struct {
	Store *credentials.Store
	Gate  biometric.Gate
	// Copy writes to the system clipboard. Defaults to atotto/clipboard.
	Copy func(string) error
	// SaveLanguage persists a language switch. Optional.
	SaveLanguage func(lang string) error
}

// mainModel routes between the screens.
type mainModel struct {
	ctx  context.Context
	deps Deps
	gate *gate.Gate

	state    viewState
	pin      *pinModel
	enroll   *enrollModel
	home     *homeModel
	settings *settingsModel

	// fromSettings marks a PIN setup started from the settings screen.
	fromSettings bool
	// pinSessions numbers PIN screens so late ticks and challenge results
	// from a replaced screen are dropped.
	pinSessions int
	width        int
	height       int
	err          error
}

func newMainModel(ctx context.Context, deps Deps) *mainModel {
	if deps.Gate == nil {
		deps.Gate = biometric.Unavailable{}
	}
	if deps.Copy == nil {
		deps.Copy = clipboard.WriteAll
	}
	return &mainModel{ctx: ctx, deps: deps, gate: gate.New(deps.Store)}
}

// Init evaluates the launch gate.
func (m *mainModel) Init() tea.Cmd {
	return m.route(gate.Launch{Origin: gate.OriginLaunch})
}

func (m *mainModel) route(l gate.Launch) tea.Cmd {
	d, err := m.gate.Evaluate(m.ctx, l)
	if err != nil {
		logging.Errorf("tui: launch gate failed: %v", err)
		m.err = err
		m.state = errorView
		return nil
	}
	switch d.Route {
	case gate.RouteSetPin:
		return m.startPin(pinpad.ModeSetting, false)
	case gate.RouteVerifyPin:
		return m.startPin(pinpad.ModeVerifying, false)
	default:
		m.fromSettings = false
		m.home = newHomeModel(m.ctx, m.deps.Store, m.deps.Copy)
		m.home.width = m.width
		m.state = homeView
		return m.home.Init()
	}
}

func (m *mainModel) startPin(mode pinpad.Mode, fromSettings bool) tea.Cmd {
	m.fromSettings = fromSettings
	m.pinSessions++
	m.pin = newPinModel(m.ctx, m.pinSessions, mode, m.deps.Store, m.deps.Gate, fromSettings)
	m.state = pinView
	return m.pin.Init()
}

// pinFinished leaves the PIN flow: back to settings when it started
// there, otherwise re-enter the gate as a PIN-auth continuation.
func (m *mainModel) pinFinished() tea.Cmd {
	if m.fromSettings {
		m.fromSettings = false
		m.settings.refresh()
		m.state = settingsView
		return nil
	}
	return m.route(gate.Launch{Origin: gate.OriginPinAuth})
}

func (m *mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == errorView {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.home != nil {
			m.home.width = msg.Width
		}
		return m, nil

	case pinDoneMsg:
		if m.pin.machine.EnrollmentOffered() {
			m.enroll = newEnrollModel()
			m.state = enrollView
			return m, m.enroll.Init()
		}
		return m, m.pinFinished()

	case pinCancelledMsg:
		if m.fromSettings {
			m.fromSettings = false
			m.settings.refresh()
			m.state = settingsView
		}
		return m, nil

	case enrollDoneMsg:
		if err := m.pin.machine.FinishSetup(m.ctx, msg.enable); err != nil {
			logging.Errorf("tui: could not enable biometric unlock: %v", err)
		}
		return m, m.pinFinished()

	case openSettingsMsg:
		m.settings = newSettingsModel(m.ctx, m.deps.Store, m.deps.Gate)
		m.state = settingsView
		return m, m.settings.Init()

	case backToHomeMsg:
		m.home.refresh()
		m.state = homeView
		return m, nil

	case startPinSetupMsg:
		return m, m.startPin(pinpad.ModeSetting, true)

	case languageChangedMsg:
		if m.deps.SaveLanguage != nil {
			if err := m.deps.SaveLanguage(msg.lang); err != nil {
				logging.Warnf("tui: could not save language: %v", err)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case pinView:
		_, cmd = m.pin.Update(msg)
	case enrollView:
		_, cmd = m.enroll.Update(msg)
	case homeView:
		_, cmd = m.home.Update(msg)
	case settingsView:
		_, cmd = m.settings.Update(msg)
	}
	return m, cmd
}

func (m *mainModel) View() string {
	var body string
	switch m.state {
	case pinView:
		body = m.pin.View()
	case enrollView:
		body = m.enroll.View()
	case homeView:
		body = m.home.View()
	case settingsView:
		body = m.settings.View()
	case errorView:
		body = titleStyle.Render(i18n.T("app.title")) + "\n" + errorStyle.Render(m.err.Error())
	}
	return docStyle.Render(body)
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	_, err := tea.NewProgram(newMainModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
