package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCombine_ZeroesSeconds(t *testing.T) {
	d := Date{Year: 2025, Month: time.March, Day: 4}
	got := Combine(d, TimeOfDay{Hour: 9, Minute: 30}, time.UTC)
	require.Equal(t, time.Date(2025, time.March, 4, 9, 30, 0, 0, time.UTC), got)
}

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"09:30":    {Hour: 9, Minute: 30},
		"21:05":    {Hour: 21, Minute: 5},
		"09:30 PM": {Hour: 21, Minute: 30},
		"9:30 am":  {Hour: 9, Minute: 30},
		"12:00 AM": {Hour: 0, Minute: 0},
	}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseTimeOfDay("noon")
	require.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-12-31 ")
	require.NoError(t, err)
	require.Equal(t, Date{Year: 2025, Month: time.December, Day: 31}, d)
	require.Equal(t, "2025-12-31", d.String())

	_, err = ParseDate("31/12/2025")
	require.Error(t, err)
}

func TestDate_Compare(t *testing.T) {
	a := Date{Year: 2025, Month: time.January, Day: 31}
	b := Date{Year: 2025, Month: time.February, Day: 1}
	require.True(t, a.Before(b))
	require.False(t, b.Before(a))
	require.Equal(t, 0, a.Compare(a))
	require.Equal(t, 1, Date{Year: 2026}.Compare(b))
}

func TestCheckDuration(t *testing.T) {
	from := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	err := CheckDuration(from, from, MinPassDuration)
	require.ErrorIs(t, err, ErrNonPositiveDuration)

	err = CheckDuration(from, from.Add(-time.Minute), MinPassDuration)
	require.ErrorIs(t, err, ErrNonPositiveDuration)

	err = CheckDuration(from, from.Add(14*time.Minute+59*time.Second), MinPassDuration)
	require.ErrorIs(t, err, ErrDurationTooShort)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, RuleDurationTooShort, ve.Rule)
	require.Equal(t, "to_time", ve.Field)

	require.NoError(t, CheckDuration(from, from.Add(MinPassDuration), MinPassDuration))
	require.NoError(t, CheckDuration(from, from.Add(3*time.Hour), MinPassDuration))
}

func TestMinimumBounds(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 7, 42, 0, time.UTC)
	today := DateOf(now)
	tomorrow := Date{Year: 2025, Month: time.May, Day: 2}

	require.Equal(t, today, MinFromDate(now))
	require.Equal(t, time.Date(2025, 5, 1, 10, 7, 0, 0, time.UTC), MinFromTime(today, now))
	require.Equal(t, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), MinFromTime(tomorrow, now))
	require.Equal(t, today, MinToDate(today))

	from := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, from.Add(MinPassDuration), MinToTime(today, today, from, MinPassDuration))
	require.Equal(t, tomorrow.Midnight(time.UTC), MinToTime(today, tomorrow, from, MinPassDuration))
}

func TestValidateWindow(t *testing.T) {
	d1 := Date{Year: 2025, Month: time.May, Day: 1}
	d0 := Date{Year: 2025, Month: time.April, Day: 30}
	from := Combine(d1, TimeOfDay{Hour: 10}, time.UTC)
	to := Combine(d1, TimeOfDay{Hour: 11}, time.UTC)

	require.NoError(t, ValidateWindow(&d1, &d1, &from, &to, MinPassDuration))

	err := ValidateWindow(nil, &d1, &from, &to, MinPassDuration)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, RuleRequired, ve.Rule)
	require.Equal(t, "from_date", ve.Field)

	err = ValidateWindow(&d1, &d1, &from, nil, MinPassDuration)
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "to_time", ve.Field)

	err = ValidateWindow(&d1, &d0, &from, &to, MinPassDuration)
	require.True(t, errors.As(err, &ve))
	require.Equal(t, RuleDateOrder, ve.Rule)

	short := from.Add(10 * time.Minute)
	err = ValidateWindow(&d1, &d1, &from, &short, MinPassDuration)
	require.ErrorIs(t, err, ErrDurationTooShort)
}

func TestDate_TextRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalText([]byte("2025-07-09")))
	b, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "2025-07-09", string(b))
	require.Error(t, d.UnmarshalText([]byte("tomorrow")))
}
