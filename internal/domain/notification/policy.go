package notification

import "time"

const (
	DayBeforeWindow        = 24 * time.Hour
	DefaultOverdueInterval = 12 * time.Hour
	DefaultDriftTolerance  = 10 * time.Minute
	DefaultFreshWindow     = 2 * time.Minute
)

// Policy holds the tunables of the decision engine. Every calendar-day
// comparison happens in Location, never in the caller's local time.
type Policy struct {
	Location *time.Location
	// OverdueInterval is the minimum spacing between two Overdue sends.
	OverdueInterval time.Duration
	// DriftTolerance absorbs scheduler jitter so sweeps spaced exactly
	// OverdueInterval apart both send.
	DriftTolerance time.Duration
	FreshWindow    time.Duration
}

func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{
		Location:        loc,
		OverdueInterval: DefaultOverdueInterval,
		DriftTolerance:  DefaultDriftTolerance,
		FreshWindow:     DefaultFreshWindow,
	}
}

func (p Policy) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// DayStart is midnight of t's calendar date in the reference timezone.
func (p Policy) DayStart(t time.Time) time.Time {
	lt := t.In(p.loc())
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, p.loc())
}

func (p Policy) SameDay(a, b time.Time) bool {
	return p.DayStart(a).Equal(p.DayStart(b))
}

func (p Policy) overdueThreshold() time.Duration {
	th := p.OverdueInterval - p.DriftTolerance
	if th < 0 {
		return 0
	}
	return th
}

// Bucket names the suppression window that now falls into for kind.
func (p Policy) Bucket(kind Kind, now time.Time) string {
	if kind == KindOverdue && p.OverdueInterval > 0 {
		return now.UTC().Truncate(p.OverdueInterval).Format("2006-01-02T15")
	}
	return p.DayStart(now).Format("2006-01-02")
}
