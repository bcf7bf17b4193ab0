// internal/assistant/mock.go
//
// Canned responder used when no API key is configured and as the fallback
// when a live call fails.  Keyword rules in both languages, answered from
// the tenant's own page titles so even demo mode sounds like the site it
// lives on.
package assistant

import (
	"strings"
)

// Mock answers chat messages without a model.
type Mock struct {
	SiteName string
	Website  string
}

// Respond picks a canned answer for message.
func (m *Mock) Respond(message string, k *Knowledge) string {
	lower := strings.ToLower(message)
	words := wordSet(lower)
	var titles []string
	if k != nil {
		titles = k.Titles
	}

	if DetectLanguage(message) == LangTurkish {
		return m.turkish(lower, words, titles)
	}
	return m.english(lower, words, titles)
}

func (m *Mock) english(lower string, words map[string]bool, titles []string) string {
	switch {
	case words["hello"] || words["hi"] || words["hey"]:
		return "Hello! I'm the " + m.SiteName + " assistant, currently running in demo mode.  How can I help?"

	case strings.Contains(lower, "about") || strings.Contains(lower, strings.ToLower(m.SiteName)):
		if len(titles) > 0 {
			return m.SiteName + " covers:\n\n" + bullets(titles, 5) +
				"\n\nAsk me about any of these pages."
		}
		return "I can tell you about " + m.SiteName + ".  What would you like to know?"

	case strings.Contains(lower, "service"):
		if len(titles) > 0 {
			return "Here is what " + m.SiteName + " offers:\n\n" + bullets(titles, 0) +
				"\n\nWhich would you like to know more about?"
		}
		return m.SiteName + " has not published its services yet.  Please check back soon."

	case words["contact"] || words["reach"] || words["email"] || words["phone"]:
		return "You can reach " + m.SiteName + " through " + m.Website +
			" or the contact form on the site."

	default:
		return "I'd be happy to help you learn more about " + m.SiteName +
			".  Ask me about its pages, services, or how to get in touch!"
	}
}

func (m *Mock) turkish(lower string, words map[string]bool, titles []string) string {
	switch {
	case words["merhaba"] || words["selam"] || words["hey"]:
		return "Merhaba! Ben " + m.SiteName + " asistanıyım, şu anda demo modunda çalışıyorum.  Size nasıl yardımcı olabilirim?"

	case strings.Contains(lower, "hakkında") || strings.Contains(lower, strings.ToLower(m.SiteName)):
		if len(titles) > 0 {
			return m.SiteName + " şu konuları içeriyor:\n\n" + bullets(titles, 5) +
				"\n\nBu sayfalardan herhangi biri hakkında soru sorabilirsiniz."
		}
		return m.SiteName + " hakkında size bilgi verebilirim.  Ne öğrenmek istersiniz?"

	case strings.Contains(lower, "hizmet") || strings.Contains(lower, "servis"):
		if len(titles) > 0 {
			return m.SiteName + " şunları sunuyor:\n\n" + bullets(titles, 0) +
				"\n\nHangisi hakkında daha fazla bilgi istersiniz?"
		}
		return m.SiteName + " henüz hizmetlerini yayınlamadı.  Lütfen daha sonra tekrar bakın."

	case strings.Contains(lower, "iletişim") || strings.Contains(lower, "ulaş") ||
		words["email"] || words["telefon"]:
		return m.SiteName + " ile " + m.Website +
			" üzerinden veya sitedeki iletişim formu aracılığıyla iletişime geçebilirsiniz."

	default:
		return m.SiteName + " hakkında size yardımcı olmaktan mutluluk duyarım.  " +
			"Sayfaları, hizmetleri veya iletişim bilgilerini sorabilirsiniz!"
	}
}

// bullets renders up to n titles as a list; n == 0 means all.
func bullets(titles []string, n int) string {
	if n == 0 || n > len(titles) {
		n = len(titles)
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• " + titles[i])
	}
	return b.String()
}

func wordSet(lower string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(lower) {
		words[strings.Trim(w, ".,!?;:'\"")] = true
	}
	return words
}
