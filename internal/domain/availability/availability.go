// Package availability matches offered appointment slots against a
// time and duration query.
package availability

import (
	"sort"
	"time"
)

const msPerMinute = int64(time.Minute / time.Millisecond)

// Slot is a normalized appointment: start instant and whole-minute length.
type Slot struct {
	Time          time.Time
	LengthMinutes int
}

// Query asks for slots of an exact length starting after CurrentTime.
type Query struct {
	CurrentTime              time.Time
	AppointmentLengthMinutes int
}

// FromOffer converts an offered [start, end) window into a Slot.
// The span is measured in whole milliseconds and floored to minutes,
// so 10:00:00 to 10:29:59.999 is 29 minutes. Negative spans floor too.
func FromOffer(start, end time.Time) Slot {
	ms := end.Sub(start).Milliseconds()
	minutes := ms / msPerMinute
	if ms%msPerMinute != 0 && ms < 0 {
		minutes--
	}
	return Slot{Time: start, LengthMinutes: int(minutes)}
}

// IsAvailable reports whether s starts strictly after q.CurrentTime and
// has exactly the requested length.
func IsAvailable(q Query, s Slot) bool {
	return q.CurrentTime.Before(s.Time) && q.AppointmentLengthMinutes == s.LengthMinutes
}

// ContainsAvailability reports whether any slot satisfies q.
func ContainsAvailability(slots []Slot, q Query) bool {
	for _, s := range slots {
		if IsAvailable(q, s) {
			return true
		}
	}
	return false
}

// Narrow returns the slots satisfying q, ascending by start time.
// Equal start times keep their original order.
func Narrow(slots []Slot, q Query) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if IsAvailable(q, s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// After returns the slots starting strictly after t, in original order.
func After(slots []Slot, t time.Time) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Time.After(t) {
			out = append(out, s)
		}
	}
	return out
}
