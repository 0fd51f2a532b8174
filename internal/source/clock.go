package source

import (
	"context"
	log "log/slog"
	"strings"
	"time"
	_ "time/tzdata"
)

// ClockTime is a wall clock reading. Zone is empty when the reading is the
// machine's local time rather than the requested location's.
type ClockTime struct {
	Hour   int
	Minute int
	Zone   string
}

type Clock interface {
	Fetch(ctx context.Context, location string) (ClockTime, error)
}

// DefaultZones maps lower-case place names to IANA zones.
var DefaultZones = map[string]string{
	"dublin":        "Europe/Dublin",
	"cork":          "Europe/Dublin",
	"galway":        "Europe/Dublin",
	"ireland":       "Europe/Dublin",
	"london":        "Europe/London",
	"belfast":       "Europe/London",
	"edinburgh":     "Europe/London",
	"paris":         "Europe/Paris",
	"berlin":        "Europe/Berlin",
	"madrid":        "Europe/Madrid",
	"rome":          "Europe/Rome",
	"moscow":        "Europe/Moscow",
	"new york":      "America/New_York",
	"boston":        "America/New_York",
	"chicago":       "America/Chicago",
	"los angeles":   "America/Los_Angeles",
	"san francisco": "America/Los_Angeles",
	"toronto":       "America/Toronto",
	"tokyo":         "Asia/Tokyo",
	"japan":         "Asia/Tokyo",
	"beijing":       "Asia/Shanghai",
	"hong kong":     "Asia/Hong_Kong",
	"singapore":     "Asia/Singapore",
	"delhi":         "Asia/Kolkata",
	"mumbai":        "Asia/Kolkata",
	"dubai":         "Asia/Dubai",
	"sydney":        "Australia/Sydney",
	"melbourne":     "Australia/Melbourne",
}

// SystemClock reads the machine clock. Locations found in Zones are
// converted to their zone; anything else gets local time.
type SystemClock struct {
	Zones map[string]string
	Now   func() time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{Zones: DefaultZones, Now: time.Now}
}

func (c *SystemClock) Fetch(_ context.Context, location string) (ClockTime, error) {
	now := c.Now()

	if name, ok := c.Zones[strings.ToLower(strings.TrimSpace(location))]; ok {
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Warn("Failed to load zone, using local time", "zone", name, "err", err)
		} else {
			t := now.In(loc)
			return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Zone: name}, nil
		}
	}

	local := now.Local()
	return ClockTime{Hour: local.Hour(), Minute: local.Minute()}, nil
}
