package transcribe

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

var languageCodes = map[string]string{
	"arabic":     "ar",
	"chinese":    "zh",
	"czech":      "cs",
	"danish":     "da",
	"dutch":      "nl",
	"english":    "en",
	"finnish":    "fi",
	"french":     "fr",
	"german":     "de",
	"greek":      "el",
	"hebrew":     "he",
	"hindi":      "hi",
	"hungarian":  "hu",
	"indonesian": "id",
	"italian":    "it",
	"japanese":   "ja",
	"korean":     "ko",
	"norwegian":  "no",
	"polish":     "pl",
	"portuguese": "pt",
	"romanian":   "ro",
	"russian":    "ru",
	"spanish":    "es",
	"swedish":    "sv",
	"turkish":    "tr",
	"ukrainian":  "uk",
	"vietnamese": "vi",
}

// LanguageCode maps a language name such as "spanish" to its ISO 639-1 code.
// Codes and unknown names are returned lower cased. An empty language means auto detection.
func LanguageCode(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return "auto"
	}
	if code, ok := languageCodes[language]; ok {
		return code
	}
	return language
}

// Languages returns the known language names in alphabetical order.
func Languages() []string {
	names := lo.Keys(languageCodes)
	sort.Strings(names)
	return names
}
