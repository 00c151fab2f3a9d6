// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/smr-web/smrweb/internal/i18n"
)

// Key maps are rebuilt on every render so the help bar follows language
// changes.

type pinKeyMap struct {
	Digits    key.Binding
	Backspace key.Binding
	Biometric key.Binding
	Restart   key.Binding
	Back      key.Binding
	Quit      key.Binding
}

func newPinKeyMap(biometric, rejected, cancelable bool) pinKeyMap {
	km := pinKeyMap{
		Digits: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", i18n.T("help.digits")),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", i18n.T("help.backspace")),
		),
		Biometric: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", i18n.T("help.biometric")),
		),
		Restart: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", i18n.T("help.restart")),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", i18n.T("help.back")),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", i18n.T("help.quit")),
		),
	}
	km.Biometric.SetEnabled(biometric)
	km.Restart.SetEnabled(rejected)
	km.Digits.SetEnabled(!rejected)
	km.Backspace.SetEnabled(!rejected)
	km.Back.SetEnabled(cancelable)
	return km
}

func (km pinKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Digits, km.Backspace, km.Biometric, km.Restart, km.Back, km.Quit}
}

func (km pinKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{km.ShortHelp()} }

var _ help.KeyMap = pinKeyMap{}

type enrollKeyMap struct {
	Left   key.Binding
	Right  key.Binding
	Select key.Binding
}

func newEnrollKeyMap() enrollKeyMap {
	return enrollKeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h", "shift+tab"),
			key.WithHelp("←", i18n.T("help.left")),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l", "tab"),
			key.WithHelp("→", i18n.T("help.right")),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", i18n.T("help.toggle")),
		),
	}
}

func (km enrollKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Left, km.Right, km.Select}
}

func (km enrollKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{km.ShortHelp()} }

type homeKeyMap struct {
	Copy     key.Binding
	Settings key.Binding
	Language key.Binding
	Quit     key.Binding
}

func newHomeKeyMap() homeKeyMap {
	return homeKeyMap{
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", i18n.T("help.copy"))),
		Settings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", i18n.T("help.settings"))),
		Language: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", i18n.T("help.language"))),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", i18n.T("help.quit"))),
	}
}

func (km homeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Copy, km.Settings, km.Language, km.Quit}
}

func (km homeKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{km.ShortHelp()} }

type settingsKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Back   key.Binding
}

func newSettingsKeyMap() settingsKeyMap {
	return settingsKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", i18n.T("help.up"))),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", i18n.T("help.down"))),
		Toggle: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", i18n.T("help.toggle"))),
		Back:   key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", i18n.T("help.back"))),
	}
}

func (km settingsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Up, km.Down, km.Toggle, km.Back}
}

func (km settingsKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{km.ShortHelp()} }
