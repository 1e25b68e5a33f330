package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	cal := New([]time.Time{date(2025, 7, 16)})

	assert.True(t, cal.IsBusinessDay(date(2025, 7, 10)))  // Thursday
	assert.False(t, cal.IsBusinessDay(date(2025, 7, 12))) // Saturday
	assert.False(t, cal.IsBusinessDay(date(2025, 7, 13))) // Sunday
	assert.False(t, cal.IsBusinessDay(date(2025, 7, 16))) // holiday
}

func TestIsBusinessDay_TimeOfDayIgnored(t *testing.T) {
	cal := New([]time.Time{date(2025, 7, 16)})

	lateEvening := time.Date(2025, 7, 16, 23, 45, 0, 0, time.UTC)
	assert.False(t, cal.IsBusinessDay(lateEvening))
	assert.True(t, cal.IsHoliday(lateEvening))
}

func TestSameDate(t *testing.T) {
	morning := time.Date(2025, 7, 16, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 7, 16, 23, 45, 0, 0, time.UTC)

	assert.True(t, SameDate(morning, evening))
	assert.False(t, SameDate(morning, date(2025, 7, 17)))
}

func TestComputeEndDate_BusinessDaysSkipWeekendAndHoliday(t *testing.T) {
	// Thursday start, three business days, with a holiday mid-count:
	// Fri 11th counts, Sat/Sun skip, Mon 14th counts, Tue 15th counts...
	// a three-day count from a duration-0 predecessor ending Thursday
	// lands exactly as the statute reads it.
	cal := New([]time.Time{date(2025, 7, 16)})

	end, err := ComputeEndDate(date(2025, 7, 10), 3, model.DayTypeBusinessAdmin, cal)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 15), end)

	// Four days pushes past the holiday onto Thursday the 17th.
	end, err = ComputeEndDate(date(2025, 7, 10), 4, model.DayTypeBusinessAdmin, cal)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 17), end)
}

func TestComputeEndDate_Continuous(t *testing.T) {
	cal := New(nil)

	end, err := ComputeEndDate(date(2025, 7, 10), 7, model.DayTypeContinuous, cal)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 17), end)
}

func TestComputeEndDate_ZeroDurationIdentity(t *testing.T) {
	cal := New([]time.Time{date(2025, 7, 16)})

	for _, dt := range []model.DayType{model.DayTypeContinuous, model.DayTypeBusinessAdmin, model.DayTypeBusinessCourt, model.DayTypeNone} {
		end, err := ComputeEndDate(date(2025, 7, 10), 0, dt, cal)
		require.NoError(t, err)
		assert.Equal(t, date(2025, 7, 10), end, "day type %s", dt)
	}

	// NoDeadline yields the start regardless of duration.
	end, err := ComputeEndDate(date(2025, 7, 10), 90, model.DayTypeNone, cal)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 10), end)
}

func TestComputeEndDate_InvalidDuration(t *testing.T) {
	cal := New(nil)

	_, err := ComputeEndDate(date(2025, 7, 10), -1, model.DayTypeContinuous, cal)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = ComputeEndDate(date(2025, 7, 10), MaxDuration+1, model.DayTypeContinuous, cal)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestComputeEndDate_UnknownDayType(t *testing.T) {
	cal := New(nil)

	_, err := ComputeEndDate(date(2025, 7, 10), 3, model.DayType("lunar"), cal)
	assert.ErrorIs(t, err, ErrUnknownDayType)
}

func TestComputeEndDate_Deterministic(t *testing.T) {
	cal := New([]time.Time{date(2025, 7, 16), date(2025, 8, 15)})

	first, err := ComputeEndDate(date(2025, 7, 1), 30, model.DayTypeBusinessAdmin, cal)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ComputeEndDate(date(2025, 7, 1), 30, model.DayTypeBusinessAdmin, cal)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeEndDate_NeverBeforeStart(t *testing.T) {
	cal := New([]time.Time{date(2025, 7, 16)})
	start := date(2025, 7, 10)

	for dur := 0; dur <= 40; dur++ {
		for _, dt := range []model.DayType{model.DayTypeContinuous, model.DayTypeBusinessAdmin, model.DayTypeNone} {
			end, err := ComputeEndDate(start, dur, dt, cal)
			require.NoError(t, err)
			assert.False(t, end.Before(start), "duration %d day type %s", dur, dt)
		}
	}
}

func TestComputeEndDate_BusinessEndNeverOnSkippedDay(t *testing.T) {
	cal := New([]time.Time{date(2025, 7, 16)})
	start := date(2025, 7, 1)

	for dur := 1; dur <= 60; dur++ {
		end, err := ComputeEndDate(start, dur, model.DayTypeBusinessAdmin, cal)
		require.NoError(t, err)
		assert.True(t, cal.IsBusinessDay(end), "duration %d ended on %s", dur, end)
	}
}

func TestComputeEndDate_TruncatesTimeComponent(t *testing.T) {
	cal := New(nil)
	start := time.Date(2025, 7, 10, 17, 30, 12, 0, time.UTC)

	end, err := ComputeEndDate(start, 1, model.DayTypeContinuous, cal)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 11), end)
}
