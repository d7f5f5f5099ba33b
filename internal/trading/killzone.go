package trading

import "time"

// ZonePriority ranks a kill zone for trade-entry purposes.
type ZonePriority string

const (
	PriorityPrimary   ZonePriority = "PRIMARY"
	PrioritySecondary ZonePriority = "SECONDARY"
	PriorityAvoid     ZonePriority = "AVOID"
)

// Valid reports whether the priority is one of the three known values.
func (p ZonePriority) Valid() bool {
	return p == PriorityPrimary || p == PrioritySecondary || p == PriorityAvoid
}

const minutesPerDay = 24 * 60

// KillZone is a named time-of-day window in the trader's local civil time.
// A zone whose end is numerically at or before its start crosses midnight;
// containment then treats the end as belonging to the next day.
type KillZone struct {
	Name        string
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
	Priority    ZonePriority
}

func (z KillZone) startMinutes() int {
	return z.StartHour*60 + z.StartMinute
}

func (z KillZone) endMinutes() int {
	return z.EndHour*60 + z.EndMinute
}

// Wraps reports whether the zone crosses midnight.
func (z KillZone) Wraps() bool {
	return z.endMinutes() <= z.startMinutes()
}

// contains tests minute-of-day membership in [start, end) after wrap
// adjustment.
func (z KillZone) contains(minuteOfDay int) bool {
	start := z.startMinutes()
	end := z.endMinutes()
	if z.Wraps() {
		end += minutesPerDay
		if minuteOfDay < start {
			minuteOfDay += minutesPerDay
		}
	}
	return minuteOfDay >= start && minuteOfDay < end
}

// startOn returns the zone's start instant on the calendar day of t.
func (z KillZone) startOn(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), z.StartHour, z.StartMinute, 0, 0, t.Location())
}

// Classifier maps an instant to the kill zone containing it. It holds an
// ordered zone list; the first matching zone wins. Classification is a pure
// function of its inputs and is re-derived on every call.
type Classifier struct {
	zones []KillZone
	loc   *time.Location
}

// NewClassifier creates a classifier over an ordered zone list. Instants are
// converted to loc before matching.
func NewClassifier(zones []KillZone, loc *time.Location) *Classifier {
	return &Classifier{zones: zones, loc: loc}
}

// Zones returns the configured zone list in order.
func (c *Classifier) Zones() []KillZone {
	return c.zones
}

// Classify returns the first zone containing now, or nil when no zone
// matches.
func (c *Classifier) Classify(now time.Time) *KillZone {
	local := now.In(c.loc)
	minute := local.Hour()*60 + local.Minute()

	for i := range c.zones {
		if c.zones[i].contains(minute) {
			z := c.zones[i]
			return &z
		}
	}
	return nil
}

// InPrimary reports whether now falls inside a primary-priority zone.
func (c *Classifier) InPrimary(now time.Time) bool {
	z := c.Classify(now)
	return z != nil && z.Priority == PriorityPrimary
}

// NextPrimary returns the next primary zone whose start strictly exceeds
// now's minute-of-day, along with its concrete start instant. When no
// primary zone remains today it wraps to the first primary zone of the next
// day. ok is false when the zone list has no primary zones at all.
func (c *Classifier) NextPrimary(now time.Time) (zone KillZone, startsAt time.Time, ok bool) {
	local := now.In(c.loc)
	minute := local.Hour()*60 + local.Minute()

	var first *KillZone
	for i := range c.zones {
		z := c.zones[i]
		if z.Priority != PriorityPrimary {
			continue
		}
		if first == nil {
			zz := z
			first = &zz
		}
		if z.startMinutes() > minute {
			return z, z.startOn(local), true
		}
	}
	if first == nil {
		return KillZone{}, time.Time{}, false
	}
	return *first, first.startOn(local.AddDate(0, 0, 1)), true
}
