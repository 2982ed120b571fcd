package climate

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// A Band is a recurring weekly time window with a target temperature. The end time is exclusive;
// bands do not wrap past midnight.
type Band struct {
	Day    time.Weekday
	Start  TimeOfDay
	End    TimeOfDay
	Target float64
}

func (b Band) String() string {
	return fmt.Sprintf("%s %s-%s: %.1fº", b.Day, b.Start, b.End, b.Target)
}

// contains reports whether the band covers the provided day & time of day.
func (b Band) contains(day time.Weekday, at TimeOfDay) bool {
	return b.Day == day && !at.Before(b.Start) && at.Before(b.End)
}

// overlaps reports whether two bands for the same day share any instant.
func (b Band) overlaps(other Band) bool {
	return b.Day == other.Day && b.Start.Before(other.End) && other.Start.Before(b.End)
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(s string) (time.Weekday, error) {
	if day, ok := weekdays[strings.ToLower(s)]; ok {
		return day, nil
	}
	return 0, fmt.Errorf("invalid day of week: %q", s)
}

// A ScheduleStore holds the weekly schedule bands for each zone. Bands are validated and replaced
// atomically per zone; readers never block on override writers (separate keyspace).
type ScheduleStore struct {
	bounds Bounds
	bands  map[int][]Band
	lock   sync.RWMutex
}

func NewScheduleStore(bounds Bounds) *ScheduleStore {
	return &ScheduleStore{
		bounds: bounds,
		bands:  make(map[int][]Band),
	}
}

// Set replaces the zone's schedule with the provided bands. It fails without applying anything if
// any band is invalid or two bands for the same day overlap.
func (s *ScheduleStore) Set(zoneId int, bands []Band) error {
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	slices.SortFunc(sorted, func(a, b Band) int {
		if a.Day != b.Day {
			return int(a.Day) - int(b.Day)
		}
		return a.Start.secondOfDay() - b.Start.secondOfDay()
	})

	for i, band := range sorted {
		if !band.Start.Before(band.End) {
			return &bandError{reason: fmt.Sprintf("%s: start must be before end", band)}
		}
		if !s.bounds.Contains(band.Target) {
			return &bandError{reason: fmt.Sprintf("%s: target out of range %s", band, s.bounds)}
		}
		if i > 0 && band.overlaps(sorted[i-1]) {
			return &bandError{reason: fmt.Sprintf("%s overlaps with %s", band, sorted[i-1])}
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.bands[zoneId] = sorted
	return nil
}

// Bands returns a copy of the zone's schedule, ordered by day & start time.
func (s *ScheduleStore) Bands(zoneId int) []Band {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.bands[zoneId])
}

// Delete removes the zone's schedule.
func (s *ScheduleStore) Delete(zoneId int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.bands, zoneId)
}

// matching returns all bands covering the provided instant.
func (s *ScheduleStore) matching(zoneId int, at time.Time) []Band {
	s.lock.RLock()
	defer s.lock.RUnlock()
	var matched []Band
	timeOfDay := TimeOfDayFromTime(at)
	for _, band := range s.bands[zoneId] {
		if band.contains(at.Weekday(), timeOfDay) {
			matched = append(matched, band)
		}
	}
	return matched
}
