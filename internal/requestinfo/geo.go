// internal/requestinfo/geo.go
//
// Optional MaxMind GeoLite2-City lookup.
//
// Context
// -------
// Geolocation is a nice-to-have, never a dependency: a missing or broken
// database file leaves every Geo field empty and the server running.  The
// reader is a package singleton because geoip2.Reader is safe for
// concurrent reads, which is all we ever perform.
package requestinfo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

var geoReader *geoip2.Reader

// OpenGeo loads the GeoLite2-City database at path.  Callers log the
// returned error as a warning and carry on; lookups simply return empty
// Geo values until a later OpenGeo succeeds.
func OpenGeo(path string) error {
	r, err := geoip2.Open(path)
	if err != nil {
		return fmt.Errorf("open geoip database %s: %w", path, err)
	}
	geoReader = r
	return nil
}

// GeoEnabled reports whether a database is loaded.  The diagnostics
// report surfaces it so an all-empty country column is explainable.
func GeoEnabled() bool { return geoReader != nil }

// CloseGeo releases the mmap-backed reader.  Called on shutdown.
func CloseGeo() {
	if geoReader != nil {
		geoReader.Close()
		geoReader = nil
	}
}

// lookupGeo returns best-effort Geo data for ip.
func lookupGeo(ip net.IP) Geo {
	if geoReader == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := geoReader.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}
