package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Daily fires at fixed times of day in a reference timezone.
type Daily struct {
	loc   *time.Location
	times []TimeOfDay
}

func Parse(raw []string, loc *time.Location) (*Daily, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one time of day is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	seen := make(map[TimeOfDay]bool, len(raw))
	times := make([]TimeOfDay, 0, len(raw))
	for _, r := range raw {
		t, err := time.Parse("15:04", strings.TrimSpace(r))
		if err != nil {
			return nil, fmt.Errorf("invalid time of day %q: %w", r, err)
		}
		tod := TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
		if seen[tod] {
			continue
		}
		seen[tod] = true
		times = append(times, tod)
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].Hour != times[j].Hour {
			return times[i].Hour < times[j].Hour
		}
		return times[i].Minute < times[j].Minute
	})
	return &Daily{loc: loc, times: times}, nil
}

func (d *Daily) Location() *time.Location {
	return d.loc
}

func (d *Daily) Times() []TimeOfDay {
	return append([]TimeOfDay(nil), d.times...)
}

func (d *Daily) at(day time.Time, t TimeOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, d.loc)
}

// Next returns the first fire time strictly after now.
func (d *Daily) Next(now time.Time) time.Time {
	local := now.In(d.loc)
	for offset := 0; offset <= 1; offset++ {
		day := local.AddDate(0, 0, offset)
		for _, t := range d.times {
			if at := d.at(day, t); at.After(now) {
				return at
			}
		}
	}
	return d.at(local.AddDate(0, 0, 2), d.times[0])
}

// Latest returns the most recent fire time at or before now.
func (d *Daily) Latest(now time.Time) time.Time {
	local := now.In(d.loc)
	for offset := 0; offset >= -1; offset-- {
		day := local.AddDate(0, 0, offset)
		for i := len(d.times) - 1; i >= 0; i-- {
			if at := d.at(day, d.times[i]); !at.After(now) {
				return at
			}
		}
	}
	return d.at(local.AddDate(0, 0, -2), d.times[len(d.times)-1])
}

// Slot labels the sweep window now belongs to.
func (d *Daily) Slot(now time.Time) string {
	return d.Latest(now).Format("2006-01-02T15:04")
}
