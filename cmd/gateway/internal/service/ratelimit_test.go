package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAllowRequest_UnderCeilings(t *testing.T) {
	rl := NewRateLimiter(5, 5)
	for i := 0; i < 5; i++ {
		require.True(t, rl.AllowRequest("+2348000000001"), "request %d should pass", i+1)
	}
}

func TestAllowRequest_DailyCeilingBlocksWithoutIncrement(t *testing.T) {
	rl := NewRateLimiter(3, 100)
	phone := "+2348000000001"

	for i := 0; i < 3; i++ {
		require.True(t, rl.AllowRequest(phone))
	}
	require.Equal(t, 0, rl.Remaining(phone))

	// The (N+1)-th call is rejected and must not move the counter.
	require.False(t, rl.AllowRequest(phone))
	require.False(t, rl.AllowRequest(phone))
	require.Equal(t, 0, rl.Remaining(phone), "Remaining never goes negative")

	key := rl.dailyKey(phone, rl.now().In(rl.loc))
	require.Equal(t, 3, rl.daily[key].count)
}

func TestAllowRequest_HourlyCeilingBlocksBeforeDaily(t *testing.T) {
	rl := NewRateLimiter(100, 2)
	phone := "+2348000000001"

	require.True(t, rl.AllowRequest(phone))
	require.True(t, rl.AllowRequest(phone))
	require.False(t, rl.AllowRequest(phone))

	// Daily budget is untouched by the rejection.
	require.Equal(t, 98, rl.Remaining(phone))
}

func TestAllowRequest_CallersIndependent(t *testing.T) {
	rl := NewRateLimiter(2, 2)

	require.True(t, rl.AllowRequest("+2348000000001"))
	require.True(t, rl.AllowRequest("+2348000000001"))
	require.False(t, rl.AllowRequest("+2348000000001"))

	require.True(t, rl.AllowRequest("+2348000000002"))
	require.Equal(t, 1, rl.Remaining("+2348000000002"))
}

func TestAllowRequest_DayRolloverResetsBudget(t *testing.T) {
	rl := NewRateLimiter(1, 10)
	phone := "+2348000000001"

	day1 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	rl.now = fixedClock(day1)
	require.True(t, rl.AllowRequest(phone))
	require.False(t, rl.AllowRequest(phone))

	rl.now = fixedClock(day1.Add(24 * time.Hour))
	require.True(t, rl.AllowRequest(phone))
}

func TestAllowRequest_HourRolloverResetsBurstBudget(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	phone := "+2348000000001"

	hour1 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	rl.now = fixedClock(hour1)
	require.True(t, rl.AllowRequest(phone))
	require.False(t, rl.AllowRequest(phone))

	rl.now = fixedClock(hour1.Add(time.Hour))
	require.True(t, rl.AllowRequest(phone))
}

func TestRemaining_ReadOnly(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	phone := "+2348000000001"

	require.Equal(t, 10, rl.Remaining(phone))
	require.Equal(t, 10, rl.Remaining(phone))
	require.True(t, rl.AllowRequest(phone))
	require.Equal(t, 9, rl.Remaining(phone))
}

func TestCleanup_PurgesStaleBuckets(t *testing.T) {
	rl := NewRateLimiter(100, 100)
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	rl.now = fixedClock(start)

	for i := 0; i < 5; i++ {
		require.True(t, rl.AllowRequest(fmt.Sprintf("+23480000000%02d", i)))
	}
	require.Len(t, rl.daily, 5)
	require.Len(t, rl.hourly, 5)

	// Three days later the first cleanup-eligible call purges everything
	// older than the retention windows.
	rl.now = fixedClock(start.Add(72 * time.Hour))
	require.True(t, rl.AllowRequest("+2348000000099"))

	require.Len(t, rl.daily, 1)
	require.Len(t, rl.hourly, 1)
}

func TestCleanup_AmortizedOncePerHour(t *testing.T) {
	rl := NewRateLimiter(100, 100)
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	rl.now = fixedClock(start)

	require.True(t, rl.AllowRequest("+2348000000001"))
	firstCleanup := rl.lastCleanup

	rl.now = fixedClock(start.Add(10 * time.Minute))
	require.True(t, rl.AllowRequest("+2348000000001"))
	require.Equal(t, firstCleanup, rl.lastCleanup, "cleanup must not rerun within the hour")

	rl.now = fixedClock(start.Add(2 * time.Hour))
	require.True(t, rl.AllowRequest("+2348000000001"))
	require.NotEqual(t, firstCleanup, rl.lastCleanup)
}
