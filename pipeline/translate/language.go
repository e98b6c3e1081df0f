package translate

import "strings"

// locales maps pipeline language codes to the locale identifiers the
// on-device backend expects. Codes outside the table pass through as
// literal identifiers.
var locales = map[string]string{
	"zh": "zh-Hans",
	"en": "en-US",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"fr": "fr-FR",
	"de": "de-DE",
	"es": "es-ES",
	"ru": "ru-RU",
}

func localeFor(code string) string {
	if locale, ok := locales[code]; ok {
		return locale
	}
	return code
}

// SourceGuess picks a source language for the on-device backend, which
// cannot auto-detect, given the target language code.
type SourceGuess func(target string) string

// DefaultSourceGuess assumes English content when translating into Chinese
// and Chinese content otherwise. It is an approximation rather than a
// detector; supply a real policy if more source languages matter.
func DefaultSourceGuess(target string) string {
	if strings.HasPrefix(target, "zh") {
		return "en"
	}
	return "zh"
}
