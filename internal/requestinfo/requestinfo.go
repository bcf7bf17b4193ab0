// internal/requestinfo/requestinfo.go
//
// Per-request intelligence: user-agent fingerprint, client IP with
// geolocation, URL, and timestamp.
//
// Context
// -------
// The Enrich middleware builds one *RequestInfo per request and stores it
// in the request context.  Handlers, templates, and the diagnostics
// listener read it back with FromContext instead of reparsing headers.
// The structs are inert.  They hold no handles or large buffers, so they
// are safe to log or JSON-encode.
//
// Notes
// -----
//   • uasurfer enum String() values carry their type prefix
//     ("BrowserChrome", "OSWindows", "PlatformMac"); the parse helpers
//     trim it off before the value reaches a log line.
//   • Oxford commas, two spaces after periods.  No em-dash.

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
)

// UA holds the parsed user-agent properties.
type UA struct {
	Raw         string `json:"raw"`          // entire User-Agent header
	Browser     string `json:"browser"`      // "Chrome", "Firefox", "Safari", ...
	Version     string `json:"version"`      // "124.0.6367"
	OS          string `json:"os"`           // "macOS", "Windows", "Android", "iOS", ...
	OSVersion   string `json:"os_version"`   // "14.5", "11", "10"
	Device      string `json:"device"`       // "Desktop", "Phone", "Tablet", "TV", ...
	Platform    string `json:"platform"`     // "Mac", "Windows", "Linux", "iPhone", ...
	IsBot       bool   `json:"is_bot"`       // crawler signature matched
	PrimaryLang string `json:"primary_lang"` // first tag from Accept-Language
}

// Geo holds IP-based geolocation hints.  Fields stay empty when no GeoIP
// database is loaded or the address has no match.
type Geo struct {
	IP         net.IP `json:"ip"`
	CountryISO string `json:"country_iso"`
	City       string `json:"city"`
}

// RequestInfo is the per-request aggregate attached by Enrich.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	URL       *url.URL // pointer copy, read-only
	Timestamp time.Time
}

type ctxKey struct{}

// FromContext returns the pointer previously stored by Enrich, or nil if
// the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// parseUA converts the raw header plus Accept-Language into a UA struct.
func parseUA(uaHeader, acceptLang string) UA {
	u := uasurfer.Parse(uaHeader)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:         uaHeader,
		Browser:     strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:     versionString(u.Browser.Version),
		OS:          osName,
		OSVersion:   versionString(u.OS.Version),
		Device:      deviceString(u.DeviceType),
		Platform:    strings.TrimPrefix(u.OS.Platform.String(), "Platform"),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}
}

// versionString renders a version in dotted form while trimming trailing
// zeros: 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".  An all-zero
// version renders as "" so log fields stay clean for unknown agents.
func versionString(v uasurfer.Version) string {
	switch {
	case v.Major == 0 && v.Minor == 0 && v.Patch == 0:
		return ""
	case v.Patch != 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	case v.Minor != 0:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	default:
		return strconv.Itoa(int(v.Major))
	}
}

// deviceString maps uasurfer.DeviceType to a display word.
func deviceString(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	case uasurfer.DeviceBot:
		return "Bot"
	default:
		return "Unknown"
	}
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag := strings.TrimSpace(strings.Split(al, ",")[0])
	if i := strings.Index(tag, ";"); i != -1 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
