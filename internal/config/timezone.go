package config

import "time"

// timeZoneLocation resolves one IANA zone name.
// Params: zone name like "Europe/Berlin".
// Returns: location or lookup error.
func timeZoneLocation(name string) (*time.Location, error) {
	return time.LoadLocation(name)
}

// Location resolves the configured service time zone.
// Params: none.
// Returns: configured location, or the process-local zone when unset.
func (c ServiceConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := timeZoneLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
