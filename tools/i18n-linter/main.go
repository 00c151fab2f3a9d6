// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the lock screen translations. It collects every
// i18n.T("key") call in the Go sources and compares the set against the
// locale files: keys used in code must exist in the primary locale, and
// every other locale must carry all primary keys.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Location stores the file and line where a key was used.
type Location struct {
	Filepath string
	Line     int
}

// Report is the outcome of one lint run.
type Report struct {
	// Undefined keys are used in code but absent from the primary locale.
	Undefined map[string]Location
	// Missing maps a secondary locale file to the primary keys it lacks.
	Missing map[string][]string
	// Orphaned keys exist in the primary locale but nothing uses them.
	Orphaned []string
}

// Failed reports whether the run found errors. Orphans are warnings.
func (r Report) Failed() bool {
	if len(r.Undefined) > 0 {
		return true
	}
	for _, keys := range r.Missing {
		if len(keys) > 0 {
			return true
		}
	}
	return false
}

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
	projectRoot   = "."
)

// Matches i18n.T("some.key") and bare "section.key" literals, which cover
// keys kept in tables and passed to T later.
var keyPattern = regexp.MustCompile(`i18n\.T\("([^"]+)"|"([a-z]+\.[a-z0-9\._]+)"`)

func main() {
	fmt.Println("🔍 Running i18n linter...")
	report, err := lint(projectRoot, filepath.Join(projectRoot, localesDir))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	printReport(os.Stdout, report)
	if report.Failed() {
		os.Exit(1)
	}
}

func lint(root, locales string) (Report, error) {
	calls, literals, err := findUsedKeys(root)
	if err != nil {
		return Report{}, fmt.Errorf("error finding used keys: %w", err)
	}
	primary, err := loadKeysFromLocale(filepath.Join(locales, primaryLocale))
	if err != nil {
		return Report{}, fmt.Errorf("error loading primary locale '%s': %w", primaryLocale, err)
	}

	r := Report{Undefined: map[string]Location{}, Missing: map[string][]string{}}
	for key, loc := range calls {
		if _, ok := primary[key]; !ok {
			r.Undefined[key] = loc
		}
	}
	for key := range primary {
		_, called := calls[key]
		_, listed := literals[key]
		// language.name is read by the locale picker, never through T.
		if !called && !listed && key != "language.name" {
			r.Orphaned = append(r.Orphaned, key)
		}
	}
	sort.Strings(r.Orphaned)

	files, err := filepath.Glob(filepath.Join(locales, "*.yaml"))
	if err != nil {
		return Report{}, fmt.Errorf("error finding locale files: %w", err)
	}
	for _, file := range files {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(file)
		if err != nil {
			return Report{}, fmt.Errorf("error loading %s: %w", file, err)
		}
		var missing []string
		for key := range primary {
			if _, ok := keys[key]; !ok {
				missing = append(missing, key)
			}
		}
		sort.Strings(missing)
		r.Missing[filepath.Base(file)] = missing
	}
	return r, nil
}

func printReport(w io.Writer, r Report) {
	fmt.Fprintln(w, "--- Keys used in code but not defined ---")
	if len(r.Undefined) == 0 {
		fmt.Fprintln(w, "  ✨ None found.")
	}
	undefined := make([]string, 0, len(r.Undefined))
	for key := range r.Undefined {
		undefined = append(undefined, key)
	}
	sort.Strings(undefined)
	for _, key := range undefined {
		loc := r.Undefined[key]
		fmt.Fprintf(w, "  - Undefined: %s (%s:%d)\n", key, loc.Filepath, loc.Line)
	}

	fmt.Fprintln(w, "\n--- Keys missing from secondary locales ---")
	names := make([]string, 0, len(r.Missing))
	for name := range r.Missing {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if len(r.Missing[name]) == 0 {
			fmt.Fprintf(w, "  ✨ %s: all keys present.\n", name)
			continue
		}
		for _, key := range r.Missing[name] {
			fmt.Fprintf(w, "  - %s missing: %s\n", name, key)
		}
	}

	fmt.Fprintln(w, "\n--- Orphaned keys ---")
	if len(r.Orphaned) == 0 {
		fmt.Fprintln(w, "  ✨ None found.")
	}
	for _, key := range r.Orphaned {
		fmt.Fprintf(w, "  - Orphaned: %s\n", key)
	}

	fmt.Fprintln(w, "\n--- Linter Finished ---")
	switch {
	case r.Failed():
		fmt.Fprintln(w, "❌ Found issues that need to be addressed.")
	case len(r.Orphaned) > 0:
		fmt.Fprintln(w, "⚠️  Found orphaned keys. Please consider removing them.")
	default:
		fmt.Fprintln(w, "✅ All translation files are consistent!")
	}
}

// findUsedKeys scans non-test .go files. calls holds keys passed directly
// to i18n.T; literals holds other key-shaped strings.
func findUsedKeys(root string) (calls map[string]Location, literals map[string]struct{}, err error) {
	calls = make(map[string]Location)
	literals = make(map[string]struct{})
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && (name == "tools" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for i, line := range strings.Split(string(content), "\n") {
			for _, match := range keyPattern.FindAllStringSubmatch(line, -1) {
				switch {
				case match[1] != "":
					if _, seen := calls[match[1]]; !seen {
						calls[match[1]] = Location{Filepath: path, Line: i + 1}
					}
				case match[2] != "":
					literals[match[2]] = struct{}{}
				}
			}
		}
		return nil
	})
	return calls, literals, err
}

// loadKeysFromLocale reads a YAML file and returns a flat set of its keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML converts nested maps into dot-separated keys. Locale files
// are mostly flat already; nesting is accepted for convenience.
func flattenYAML(prefix string, node interface{}, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, val := range v {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			flattenYAML(next, val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}
