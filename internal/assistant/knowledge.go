// internal/assistant/knowledge.go
//
// Per-tenant knowledge for the system prompt: a slice of the site's
// published pages plus its curated training rows.  Loaded fresh on every
// chat call so edits show immediately; the caps keep the prompt inside
// model token limits no matter how large the site grows.
package assistant

import (
	"context"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	maxPageChars        = 1000
	maxTrainingRows     = 20
	maxTrainingChars    = 500
	knowledgeSeparator  = "\n\n---\n\n"
	languageDirectiveTR = "The user is asking in TURKISH.  Respond completely in Turkish; do not mix languages."
	languageDirectiveEN = "The user is asking in ENGLISH.  Respond in English, the default language."
)

// Knowledge is everything the assistant may cite about one site.
type Knowledge struct {
	Titles []string
	items  []string
}

// LoadKnowledge gathers published pages and active training rows for a site.
func LoadKnowledge(ctx context.Context, db *sqlx.DB, siteID int64) (*Knowledge, error) {
	k := &Knowledge{}

	const pagesQ = `
        SELECT title, path, meta_description, body_html
        FROM   pages
        WHERE  site_id = ?
          AND  is_published = 1
          AND  deleted_at IS NULL
        ORDER  BY updated_at DESC
        LIMIT  50`
	rows, err := db.QueryContext(ctx, pagesQ, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var title, path, desc, body string
		if err := rows.Scan(&title, &path, &desc, &body); err != nil {
			return nil, err
		}
		k.Titles = append(k.Titles, title)

		var b strings.Builder
		b.WriteString("Page: " + title + "\nPath: " + path)
		if desc != "" {
			b.WriteString("\n" + desc)
		}
		if text := capRunes(stripTags(body), maxPageChars); text != "" {
			b.WriteString("\n" + text)
		}
		k.items = append(k.items, b.String())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trained, err := ActiveBySite(ctx, db, siteID, maxTrainingRows)
	if err != nil {
		return nil, err
	}
	for _, row := range trained {
		k.items = append(k.items, "["+row.Category+"] "+capRunes(row.Content, maxTrainingChars))
	}
	return k, nil
}

// Prompt assembles the full system prompt: base text, language directive,
// and the knowledge block.
func (k *Knowledge) Prompt(base, lang string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	if lang == LangTurkish {
		b.WriteString(languageDirectiveTR)
	} else {
		b.WriteString(languageDirectiveEN)
	}
	if len(k.items) > 0 {
		b.WriteString("\n\nYou have been trained on the following information about this site:\n\n")
		b.WriteString(strings.Join(k.items, knowledgeSeparator))
		b.WriteString("\n\nUse this information to give accurate, specific answers.")
	}
	return b.String()
}

// Empty reports whether nothing site-specific was found.
func (k *Knowledge) Empty() bool { return len(k.items) == 0 }

var tagRx = regexp.MustCompile(`<[^>]*>`)

// stripTags flattens HTML to text well enough for a prompt.
func stripTags(s string) string {
	s = tagRx.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func capRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
