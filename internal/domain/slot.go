package domain

import (
	"sort"
	"time"
)

// SlotSet is the canonical list of bookable start times offered to one
// client in one availability fetch: UTC, ascending, deduplicated, and every
// member strictly later than the fetch time.
type SlotSet []time.Time

// NewSlotSet normalizes raw provider timestamps into a SlotSet. Times that
// are not strictly after now are dropped.
func NewSlotSet(now time.Time, raw []time.Time) SlotSet {
	seen := make(map[int64]struct{}, len(raw))
	out := make(SlotSet, 0, len(raw))
	for _, t := range raw {
		if !t.After(now) {
			continue
		}
		u := t.UTC()
		if _, ok := seen[u.Unix()]; ok {
			continue
		}
		seen[u.Unix()] = struct{}{}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// ParseSlotSet parses ISO-8601 strings into a SlotSet, silently skipping
// anything unparseable.
func ParseSlotSet(now time.Time, raw []string) SlotSet {
	times := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		t, err := ParseSlot(s)
		if err != nil {
			continue
		}
		times = append(times, t)
	}
	return NewSlotSet(now, times)
}

func (s SlotSet) Contains(t time.Time) bool {
	for _, m := range s {
		if m.Equal(t) {
			return true
		}
	}
	return false
}

// Strings returns the canonical wire representation of the set.
func (s SlotSet) Strings() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = FormatSlot(t)
	}
	return out
}

// DayBucket groups the slots that fall on one local calendar day.
type DayBucket struct {
	Day   string // YYYY-MM-DD in the session timezone
	Slots SlotSet
}

// GroupByLocalDay buckets the set by calendar day in tz, preserving slot
// order. Unknown timezones fall back to UTC.
func (s SlotSet) GroupByLocalDay(tz string) []DayBucket {
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		loc = time.UTC
	}

	var buckets []DayBucket
	index := make(map[string]int)
	for _, t := range s {
		day := t.In(loc).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(buckets)
			index[day] = i
			buckets = append(buckets, DayBucket{Day: day})
		}
		buckets[i].Slots = append(buckets[i].Slots, t)
	}
	return buckets
}

// ParseSlot parses a single ISO-8601 timestamp.
func ParseSlot(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatSlot renders a slot in the canonical UTC wire format.
func FormatSlot(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
