package domain

import (
	"fmt"
	"strings"
	"time"
)

// MinPassDuration is the shortest visit window a pass may cover.
const MinPassDuration = 15 * time.Minute

const (
	DateLayout     = "2006-01-02"
	TimeLayout24h  = "15:04"
	TimeLayout12h  = "03:04 PM"
	InstantLayout  = time.RFC3339
	passDateLayout = "20060102-1504"
)

// Date is a calendar day with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return compareInt(d.Year, o.Year)
	case d.Month != o.Month:
		return compareInt(int(d.Month), int(o.Month))
	default:
		return compareInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// TimeOfDay is an hour and minute picked independently of any date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts 24-hour "15:04" or 12-hour "03:04 PM" / "3:04 PM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range []string{TimeLayout24h, TimeLayout12h, "3:04 PM", "3:04PM", "03:04PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("time %q must be HH:MM or hh:mm AM/PM", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Combine merges a calendar date and a time-of-day into one instant in loc.
// Seconds and sub-seconds are always zero.
func Combine(d Date, t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// CheckDuration enforces that to is strictly after from and at least minimum later.
func CheckDuration(from, to time.Time, minimum time.Duration) error {
	d := to.Sub(from)
	if d <= 0 {
		return &ValidationError{
			Rule:  RuleNonPositiveDuration,
			Field: "to_time",
			Msg:   "end time must be after start time",
			Err:   ErrNonPositiveDuration,
		}
	}
	if d < minimum {
		return &ValidationError{
			Rule:  RuleDurationTooShort,
			Field: "to_time",
			Msg:   fmt.Sprintf("pass must be valid for at least %d minutes", int(minimum.Minutes())),
			Err:   ErrDurationTooShort,
		}
	}
	return nil
}

// MinFromDate is the earliest selectable start day.
func MinFromDate(now time.Time) Date {
	return DateOf(now)
}

// MinFromTime is the earliest selectable start instant on fromDate: the current minute when
// fromDate is today, midnight otherwise.
func MinFromTime(fromDate Date, now time.Time) time.Time {
	if fromDate == DateOf(now) {
		return now.Truncate(time.Minute)
	}
	return fromDate.Midnight(now.Location())
}

func MinToDate(fromDate Date) Date {
	return fromDate
}

// MinToTime is fromTime+minimum when both days coincide, midnight of toDate otherwise.
func MinToTime(fromDate, toDate Date, fromTime time.Time, minimum time.Duration) time.Time {
	if toDate == fromDate {
		return fromTime.Add(minimum)
	}
	return toDate.Midnight(fromTime.Location())
}

// ValidateWindow is the submit-time cross-field check of a visit window. It does not trust
// that selection-time checks ran.
func ValidateWindow(fromDate, toDate *Date, fromTime, toTime *time.Time, minimum time.Duration) error {
	switch {
	case fromDate == nil:
		return invalid(RuleRequired, "from_date", "start date is required")
	case fromTime == nil:
		return invalid(RuleRequired, "from_time", "start time is required")
	case toDate == nil:
		return invalid(RuleRequired, "to_date", "end date is required")
	case toTime == nil:
		return invalid(RuleRequired, "to_time", "end time is required")
	}
	if toDate.Before(*fromDate) {
		return invalid(RuleDateOrder, "to_date", "end date cannot be before start date")
	}
	return CheckDuration(*fromTime, *toTime, minimum)
}
