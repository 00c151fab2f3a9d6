// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package i18n loads the embedded YAML translations and localizes message
// IDs for the terminal UI and the CLI.
package i18n // import "github.com/smr-web/smrweb/internal/i18n"

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	mu        sync.RWMutex
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	current   string
)

// Init loads every embedded locale and activates lang. Unknown languages
// fall back to English.
func Init(lang string) {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, _ := localeFS.ReadFile("locales/" + f.Name())
		_, _ = b.ParseMessageFileBytes(data, f.Name())
	}

	mu.Lock()
	bundle = b
	localizer = i18n.NewLocalizer(b, lang)
	current = lang
	mu.Unlock()
}

// SetLang switches the active language.
func SetLang(lang string) { Init(lang) }

// GetLang returns the active language tag as passed to Init.
func GetLang() string {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// GetAvailableLocales maps each embedded locale tag to its display name.
func GetAvailableLocales() map[string]string {
	out := map[string]string{}
	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		tag := strings.TrimSuffix(f.Name(), ".yaml")
		name := tag
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err == nil {
			var doc map[string]any
			if yaml.Unmarshal(data, &doc) == nil {
				if n, ok := doc["language.name"].(string); ok {
					name = n
				}
			}
		}
		out[tag] = name
	}
	return out
}

// Next returns the locale following the active one in tag order, for a
// simple language toggle.
func Next() string {
	tags := make([]string, 0, 2)
	for tag := range GetAvailableLocales() {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	cur := GetLang()
	for i, tag := range tags {
		if tag == cur {
			return tags[(i+1)%len(tags)]
		}
	}
	if len(tags) == 0 {
		return "en"
	}
	return tags[0]
}

// T translates messageID. A single map argument is used as template data;
// other arguments are applied with fmt.Sprintf. Unknown IDs are returned
// unchanged.
func T(messageID string, args ...any) string {
	mu.RLock()
	l := localizer
	mu.RUnlock()
	if l == nil {
		Init("en")
		mu.RLock()
		l = localizer
		mu.RUnlock()
	}

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(args) == 1 {
		if data, ok := args[0].(map[string]any); ok {
			cfg.TemplateData = data
			args = nil
		}
	}
	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
