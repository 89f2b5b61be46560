// Package packflow implements a small declarative packaging tool: a setup
// manifest describes files to place, store entries to write, shortcuts to
// create, optional component sections, one prerequisite check, and one
// bundled secondary installer. The engine package runs a manifest in install
// or uninstall mode.
//
// This file contains the localized string tables used for user-facing
// messages (prerequisite failures, shortcut labels, completion notices).
package packflow

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// translationsJSON contains the embedded string tables as JSON.
//
//go:embed assets/translations.json
var translationsJSON []byte

// libraryTranslations contains built-in translations, keyed by language code
// then message key. Loaded from embedded JSON at init time.
var libraryTranslations map[string]map[string]string

func init() {
	if err := json.Unmarshal(translationsJSON, &libraryTranslations); err != nil {
		panic("packflow: failed to parse embedded translations: " + err.Error())
	}
}

// Strings resolves message keys for one session language. It is an immutable
// value created once per run and threaded through the engine, so there is no
// package-level current-language state.
type Strings struct {
	lang string
	app  map[string]map[string]string
}

// NewStrings creates a Strings for the given language code ("en", "es", "fr",
// "de"). Region suffixes are ignored ("es-MX" resolves as "es"). Unknown
// languages fall back to English. App translations, when non-nil, take
// precedence over the built-in tables.
func NewStrings(lang string, app map[string]map[string]string) *Strings {
	return &Strings{lang: NormalizeLanguage(lang), app: app}
}

// Lang returns the resolved language code.
func (s *Strings) Lang() string {
	return s.lang
}

// T resolves a message key for the session language.
//
// The lookup order is:
//  1. app[lang][key]
//  2. app["en"][key]
//  3. built-in[lang][key]
//  4. built-in["en"][key]
//  5. the key itself
//
// Returning the key itself means manifests may carry literal message text in
// place of a key.
func (s *Strings) T(key string) string {
	if s.app != nil {
		if v, ok := s.app[s.lang][key]; ok {
			return v
		}
		if s.lang != "en" {
			if v, ok := s.app["en"][key]; ok {
				return v
			}
		}
	}
	if v, ok := libraryTranslations[s.lang][key]; ok {
		return v
	}
	if s.lang != "en" {
		if v, ok := libraryTranslations["en"][key]; ok {
			return v
		}
	}
	return key
}

// TF resolves a message key and substitutes {0}, {1}, ... placeholders.
//
// Example:
//
//	msg := strs.TF("uninstall.label", "Admin Client")
//	// "Uninstall {0}" → "Uninstall Admin Client"
func (s *Strings) TF(key string, args ...any) string {
	template := s.T(key)
	for i, arg := range args {
		placeholder := fmt.Sprintf("{%d}", i)
		template = strings.ReplaceAll(template, placeholder, fmt.Sprint(arg))
	}
	return template
}

// NormalizeLanguage lowers a language identifier to a supported bare code.
// "ES", "es-MX", "fr_FR" all normalize to their base language; anything
// without a built-in table becomes "en".
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if _, ok := libraryTranslations[lang]; !ok {
		return "en"
	}
	return lang
}

// LanguageInfo holds the code and display name for a supported language.
type LanguageInfo struct {
	Code string // e.g., "en", "es"
	Name string // e.g., "English", "Español"
}

// Languages returns all built-in languages sorted with English first,
// then the rest alphabetically by display name.
func Languages() []LanguageInfo {
	var langs []LanguageInfo
	for code, table := range libraryTranslations {
		name := code
		if n, ok := table["_name"]; ok {
			name = n
		}
		langs = append(langs, LanguageInfo{Code: code, Name: name})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Code == "en" {
			return true
		}
		if langs[j].Code == "en" {
			return false
		}
		return langs[i].Name < langs[j].Name
	})
	return langs
}
