// Package schedule answers whether a moment falls inside one of the
// configured quiet windows (usually the ad breaks of a radio stream).
package schedule

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Interval is a minute range within an hour. Both ends are inclusive.
type Interval struct {
	Start int
	End   int
}

func (i Interval) Contains(minute int) bool {
	return i.Start <= minute && minute <= i.End
}

// Schedule maps an hour of the day (0-23) to the quiet intervals within it.
// It is never mutated after construction.
type Schedule struct {
	hours map[int][]Interval
}

func New(hours map[int][]Interval) (Schedule, error) {
	s := Schedule{hours: make(map[int][]Interval, len(hours))}
	for hour, intervals := range hours {
		if hour < 0 || hour > 23 {
			return Schedule{}, fmt.Errorf("hour %d is outside of 0-23", hour)
		}
		for _, iv := range intervals {
			if iv.Start < 0 || iv.End > 59 || iv.Start > iv.End {
				return Schedule{}, fmt.Errorf("interval %d-%d in hour %d is invalid", iv.Start, iv.End, hour)
			}
		}
		s.hours[hour] = append([]Interval(nil), intervals...)
	}
	return s, nil
}

// Default is the break table of the station this was originally built for:
// two six minute breaks an hour between 08:00 and 17:59.
func Default() Schedule {
	hours := map[int][]Interval{}
	for hour := 8; hour <= 17; hour++ {
		hours[hour] = []Interval{{Start: 16, End: 22}, {Start: 46, End: 52}}
	}
	s, _ := New(hours)
	return s
}

// Parse reads a YAML document of the form
//
//	8: [[16, 22], [46, 52]]
//	9: [[16, 22]]
func Parse(data []byte) (Schedule, error) {
	raw := map[int][][2]int{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Schedule{}, fmt.Errorf("failed to parse schedule: %w", err)
	}
	hours := make(map[int][]Interval, len(raw))
	for hour, pairs := range raw {
		for _, p := range pairs {
			hours[hour] = append(hours[hour], Interval{Start: p[0], End: p[1]})
		}
	}
	return New(hours)
}

func Load(path string) (Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, err
	}
	return Parse(data)
}

func (s Schedule) IsQuiet(now time.Time) bool {
	minute := now.Minute()
	for _, iv := range s.hours[now.Hour()] {
		if iv.Contains(minute) {
			return true
		}
	}
	return false
}

// Next returns the start of the next quiet window after now, looking at most
// one day ahead. A window already in progress is not reported.
func (s Schedule) Next(now time.Time) (time.Time, bool) {
	prev := now.Truncate(time.Minute)
	for i := 1; i <= 24*60; i++ {
		t := prev.Add(time.Minute)
		if s.IsQuiet(t) && !s.IsQuiet(prev) {
			return t, true
		}
		prev = t
	}
	return time.Time{}, false
}

// Hours lists the hours that have at least one interval, in order.
func (s Schedule) Hours() []int {
	hours := make([]int, 0, len(s.hours))
	for hour, intervals := range s.hours {
		if len(intervals) > 0 {
			hours = append(hours, hour)
		}
	}
	sort.Ints(hours)
	return hours
}

func (s Schedule) Intervals(hour int) []Interval {
	return append([]Interval(nil), s.hours[hour]...)
}
