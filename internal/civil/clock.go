// Package civil produces the wall-clock stamps stored on orders and feedback.
// Stamps are rendered in one fixed zone so they do not depend on the host.
package civil

import "time"

const Layout = "2006-01-02 15:04:05"

// IST is UTC+05:30, the zone stamps default to.
var IST = time.FixedZone("IST", 5*60*60+30*60)

type Clock struct {
	Loc *time.Location
	Now func() time.Time
}

func NewClock(zone string) *Clock {
	loc := IST
	if zone != "" {
		if l, err := time.LoadLocation(zone); err == nil {
			loc = l
		}
	}
	return &Clock{Loc: loc, Now: time.Now}
}

// Stamp returns the current time as "YYYY-MM-DD HH:MM:SS" in the clock zone.
func (c *Clock) Stamp() string {
	now := time.Now
	loc := IST
	if c != nil {
		if c.Now != nil {
			now = c.Now
		}
		if c.Loc != nil {
			loc = c.Loc
		}
	}
	return Format(now(), loc)
}

func Format(t time.Time, loc *time.Location) string {
	return t.In(loc).Truncate(time.Second).Format(Layout)
}
