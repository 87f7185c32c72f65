package core

import (
	"fmt"
	"sort"
	"time"
)

// Period represents one reporting period (a calendar month).
// Periods order naturally by (Year, Month).
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod creates a period from a year and month
func NewPeriod(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// PeriodOf returns the period containing t
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a "YYYY-MM" period key
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q (want YYYY-MM): %w", s, err)
	}
	return PeriodOf(t), nil
}

// String returns the canonical "YYYY-MM" key
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero checks if the period is unset
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Before returns true if p is strictly earlier than q
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// After returns true if p is strictly later than q
func (p Period) After(q Period) bool {
	return q.Before(p)
}

// Next returns the following calendar month
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Start returns midnight UTC on the first day of the period
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// WorkingDays returns the number of weekdays in the calendar month
func (p Period) WorkingDays() int {
	days := 0
	for t := p.Start(); PeriodOf(t) == p; t = t.AddDate(0, 0, 1) {
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}

// MarshalText encodes the period as its "YYYY-MM" key
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a "YYYY-MM" key
func (p *Period) UnmarshalText(data []byte) error {
	parsed, err := ParsePeriod(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PeriodRange returns every period from first to last inclusive
func PeriodRange(first, last Period) []Period {
	if last.Before(first) {
		return nil
	}
	var out []Period
	for p := first; !p.After(last); p = p.Next() {
		out = append(out, p)
	}
	return out
}

// SortPeriods orders periods oldest first
func SortPeriods(periods []Period) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Before(periods[j])
	})
}

// PeriodWindow is a closed [From, To] range used to scope multi-period analyses
type PeriodWindow struct {
	From Period `json:"from"`
	To   Period `json:"to"`
}

// Contains reports whether p falls inside the window; a zero bound is open
func (w PeriodWindow) Contains(p Period) bool {
	if !w.From.IsZero() && p.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && p.After(w.To) {
		return false
	}
	return true
}
