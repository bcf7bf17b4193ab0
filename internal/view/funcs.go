// internal/view/funcs.go
//
// Template helpers shared by theme sets and component templates.  The
// theme manager and the view engine both merge BaseFuncs into their parse
// calls, so a helper written once works in either kind of template.
//
// UA helpers take the *requestinfo.RequestInfo a handler placed in its
// view data:
//
//	{{ browser .Info }} {{ browserVersion .Info }}
//	{{ os .Info }} – {{ osVersion .Info }}
//	{{ if isBot .Info }}Robot!{{ end }}
//
// All of them tolerate a nil Info so templates render before the
// middleware chain is fully wired.
package view

import (
	"html/template"
	"time"

	"github.com/mosaic-cms/mosaic/internal/requestinfo"
)

// BaseFuncs returns the helper map merged into every parsed template set.
func BaseFuncs() template.FuncMap {
	return template.FuncMap{
		"dict":    dict,
		"safe":    func(s string) template.HTML { return template.HTML(s) },
		"fmtTime": fmtTime,

		"browser":        uaString(func(u requestinfo.UA) string { return u.Browser }),
		"browserVersion": uaString(func(u requestinfo.UA) string { return u.Version }),
		"os":             uaString(func(u requestinfo.UA) string { return u.OS }),
		"osVersion":      uaString(func(u requestinfo.UA) string { return u.OSVersion }),
		"device":         uaString(func(u requestinfo.UA) string { return u.Device }),
		"platform":       uaString(func(u requestinfo.UA) string { return u.Platform }),
		"isBot": func(i *requestinfo.RequestInfo) bool {
			return i != nil && i.UA.IsBot
		},
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// fmtTime renders a time for page chrome; zero times render empty.
func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func uaString(pick func(requestinfo.UA) string) func(*requestinfo.RequestInfo) string {
	return func(i *requestinfo.RequestInfo) string {
		if i == nil {
			return ""
		}
		return pick(i.UA)
	}
}
