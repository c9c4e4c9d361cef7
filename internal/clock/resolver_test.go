package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedResolver(t *testing.T, tz string, instant string) *Resolver {
	t.Helper()
	r, err := NewResolver(tz)
	require.NoError(t, err)
	ts, err := time.Parse(time.RFC3339, instant)
	require.NoError(t, err)
	r.Now = func() time.Time { return ts }
	return r
}

func TestSlotForHourBoundaries(t *testing.T) {
	cases := []struct {
		hour int
		want Slot
	}{
		{0, SlotBreakfast},
		{9, SlotBreakfast},
		{10, SlotLunch},
		{14, SlotLunch},
		{15, SlotDinner},
		{23, SlotDinner},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SlotForHour(tc.hour), "hour %d", tc.hour)
	}
}

func TestTodayTomorrowAcrossZones(t *testing.T) {
	// 03:00 UTC is already noon on the 7th in Seoul but still the evening of
	// the 6th in New York.
	r := fixedResolver(t, "Asia/Seoul", "2026-02-07T03:00:00Z")
	assert.Equal(t, "2026-02-07", r.Today())
	assert.Equal(t, "2026-02-08", r.Tomorrow())
	assert.Equal(t, 12, r.CurrentHour())

	r = fixedResolver(t, "America/New_York", "2026-02-07T03:00:00Z")
	assert.Equal(t, "2026-02-06", r.Today())
	assert.Equal(t, 22, r.CurrentHour())
}

func TestBeforeWeeklyDeadline(t *testing.T) {
	// 2026-02-04 is a Wednesday.
	wed10 := fixedResolver(t, "UTC", "2026-02-04T10:00:00Z")

	ok, err := wed10.BeforeWeeklyDeadline(time.Thursday, "17:00")
	require.NoError(t, err)
	assert.True(t, ok, "day before deadline day")

	ok, err = wed10.BeforeWeeklyDeadline(time.Wednesday, "17:00")
	require.NoError(t, err)
	assert.True(t, ok, "on deadline day, before the time")

	ok, err = wed10.BeforeWeeklyDeadline(time.Wednesday, "09:30")
	require.NoError(t, err)
	assert.False(t, ok, "on deadline day, after the time")

	ok, err = wed10.BeforeWeeklyDeadline(time.Tuesday, "23:59")
	require.NoError(t, err)
	assert.False(t, ok, "day after deadline day")

	_, err = wed10.BeforeWeeklyDeadline(time.Wednesday, "25:99")
	assert.Error(t, err)
}

func TestWeekendAnchor(t *testing.T) {
	// Wednesday resolves to the upcoming Saturday.
	r := fixedResolver(t, "UTC", "2026-02-04T12:00:00Z")
	assert.Equal(t, "2026-02-07", r.WeekendAnchor())

	// Saturday anchors to itself.
	r = fixedResolver(t, "UTC", "2026-02-07T12:00:00Z")
	assert.Equal(t, "2026-02-07", r.WeekendAnchor())

	// Sunday still belongs to the weekend in progress.
	r = fixedResolver(t, "UTC", "2026-02-08T12:00:00Z")
	assert.Equal(t, "2026-02-07", r.WeekendAnchor())
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2026-01-25")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-25", d)

	_, err = ParseDate("01/25/2026")
	assert.Error(t, err)

	next, err := NextDate("2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", next)

	wd, err := Weekday("2026-01-25")
	require.NoError(t, err)
	assert.Equal(t, "Sunday", wd)
}

func TestNewResolverRejectsBadZone(t *testing.T) {
	_, err := NewResolver("Mars/Olympus")
	assert.Error(t, err)
}
