package watcher

import (
	"testing"
	"time"

	"cardwatch-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestSchedule(t *testing.T) {
	schedule, err := NewSchedule([]ScheduleRule{
		{Start: "01.03.2026", End: "10.03.2026", IntervalSeconds: 60},
		{Start: "15.03.2026", End: "15.03.2026", IntervalSeconds: 30},
	}, time.Second*300)
	require.NoError(t, err)

	at := func(value string) time.Time {
		parsed, err := time.ParseInLocation("02.01.2006 15:04", value, timezone.Location)
		require.NoError(t, err)
		return parsed
	}

	require.Equal(t, time.Second*300, schedule.IntervalAt(at("28.02.2026 12:00")))
	// both ends inclusive
	require.Equal(t, time.Second*60, schedule.IntervalAt(at("01.03.2026 00:00")))
	require.Equal(t, time.Second*60, schedule.IntervalAt(at("10.03.2026 23:59")))
	require.Equal(t, time.Second*300, schedule.IntervalAt(at("11.03.2026 00:00")))
	// single-day range
	require.Equal(t, time.Second*30, schedule.IntervalAt(at("15.03.2026 18:00")))
	require.Equal(t, time.Second*300, schedule.IntervalAt(at("16.03.2026 09:00")))
}

func TestScheduleRejectsBadRules(t *testing.T) {
	_, err := NewSchedule([]ScheduleRule{
		{Start: "10.03.2026", End: "01.03.2026", IntervalSeconds: 60},
	}, time.Second*300)
	require.Error(t, err)

	_, err = NewSchedule([]ScheduleRule{
		{Start: "2026-03-01", End: "2026-03-10", IntervalSeconds: 60},
	}, time.Second*300)
	require.Error(t, err)

	_, err = NewSchedule([]ScheduleRule{
		{Start: "01.03.2026", End: "10.03.2026"},
	}, time.Second*300)
	require.Error(t, err)
}
