// internal/assistant/language.go
//
// Turkish/English detection for chat messages.  Nothing statistical: the
// tells are checked in reliability order and anything ambiguous stays
// English, which is the portal default.
package assistant

import (
	"strings"
	"unicode"
)

const (
	LangTurkish = "tr"
	LangEnglish = "en"
)

// Turkish-specific letters, the most reliable tell.
const turkishChars = "çğıöşü"

// Distinctive words unlikely to appear in English text.
var strongTurkishWords = map[string]bool{
	"merhaba":       true,
	"nasıl":         true,
	"nedir":         true,
	"nelerdir":      true,
	"hakkında":      true,
	"hizmetleriniz": true,
	"çözümleriniz":  true,
	"danışmanlık":   true,
	"misiniz":       true,
	"musunuz":       true,
	"miyim":         true,
}

// Question/verb endings, checked at word boundaries only.
var turkishSuffixes = []string{"misiniz", "musunuz", "midir", "müdür", "nelerdir"}

// DetectLanguage classifies text as LangTurkish or LangEnglish.  Inputs
// shorter than three characters default to English.
func DetectLanguage(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if len([]rune(text)) < 3 {
		return LangEnglish
	}

	if strings.ContainsAny(text, turkishChars) {
		return LangTurkish
	}

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if strongTurkishWords[w] {
			return LangTurkish
		}
		for _, suffix := range turkishSuffixes {
			if strings.HasSuffix(w, suffix) {
				return LangTurkish
			}
		}
	}
	return LangEnglish
}
