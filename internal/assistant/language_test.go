package assistant

import "testing"

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello there", LangEnglish},
		{"what is this", LangEnglish},
		{"hi", LangEnglish},
		{"ok", LangEnglish},
		{"", LangEnglish},
		{"çok güzel bir gün", LangTurkish},
		{"merhaba", LangTurkish},
		{"yardimci olur musunuz", LangTurkish},
		{"gelirmisiniz acaba", LangTurkish},
		{"this is history", LangEnglish},
		{"hakkında bilgi almak istiyorum", LangTurkish},
		{"Hizmetleriniz nelerdir", LangTurkish},
	}
	for _, c := range cases {
		if got := DetectLanguage(c.in); got != c.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
