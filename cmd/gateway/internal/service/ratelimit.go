package service

import (
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	cleanupInterval = time.Hour
	dailyRetention  = 48 * time.Hour
	hourlyRetention = 2 * time.Hour
)

type bucketCounter struct {
	count int
	start time.Time
}

// RateLimiter bounds per-caller usage with two fixed windows: a calendar-day
// ceiling against sustained abuse and an hour-of-day ceiling against bursts.
// Counters live in process memory only; they are a fairness control, not a
// security boundary.
type RateLimiter struct {
	mu          sync.Mutex
	daily       map[string]*bucketCounter
	hourly      map[string]*bucketCounter
	lastCleanup time.Time

	dailyCeiling  int
	hourlyCeiling int
	loc           *time.Location

	now func() time.Time
}

func NewRateLimiter(dailyCeiling, hourlyCeiling int) *RateLimiter {
	if dailyCeiling <= 0 {
		dailyCeiling = 50
	}
	if hourlyCeiling <= 0 {
		hourlyCeiling = 15
	}
	return &RateLimiter{
		daily:         make(map[string]*bucketCounter),
		hourly:        make(map[string]*bucketCounter),
		dailyCeiling:  dailyCeiling,
		hourlyCeiling: hourlyCeiling,
		loc:           time.Local,
		now:           time.Now,
	}
}

// AllowRequest checks the caller against both ceilings and, only when both
// pass, increments both counters. A rejected request leaves the counters
// untouched.
func (rl *RateLimiter) AllowRequest(phoneNumber string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now().In(rl.loc)
	rl.maybeCleanup(now)

	dailyKey := rl.dailyKey(phoneNumber, now)
	hourlyKey := rl.hourlyKey(phoneNumber, now)

	if c, ok := rl.daily[dailyKey]; ok && c.count >= rl.dailyCeiling {
		log.Printf("Daily rate limit exceeded for: %s", phoneNumber)
		return false
	}
	if c, ok := rl.hourly[hourlyKey]; ok && c.count >= rl.hourlyCeiling {
		log.Printf("Hourly rate limit exceeded for: %s", phoneNumber)
		return false
	}

	rl.increment(rl.daily, dailyKey, startOfDay(now))
	rl.increment(rl.hourly, hourlyKey, startOfHour(now))
	return true
}

// Remaining reports how many daily requests the caller has left. Read-only.
func (rl *RateLimiter) Remaining(phoneNumber string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now().In(rl.loc)
	count := 0
	if c, ok := rl.daily[rl.dailyKey(phoneNumber, now)]; ok {
		count = c.count
	}
	if remaining := rl.dailyCeiling - count; remaining > 0 {
		return remaining
	}
	return 0
}

func (rl *RateLimiter) DailyCeiling() int {
	return rl.dailyCeiling
}

func (rl *RateLimiter) increment(m map[string]*bucketCounter, key string, start time.Time) {
	c, ok := m[key]
	if !ok {
		c = &bucketCounter{start: start}
		m[key] = c
	}
	c.count++
}

func (rl *RateLimiter) dailyKey(phoneNumber string, now time.Time) string {
	return fmt.Sprintf("%s_%s", phoneNumber, now.Format("2006-01-02"))
}

func (rl *RateLimiter) hourlyKey(phoneNumber string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", phoneNumber, now.Format("2006-01-02"), now.Hour())
}

// maybeCleanup purges stale buckets at most once per hour so the maps stay
// bounded under steady traffic. Caller holds the lock.
func (rl *RateLimiter) maybeCleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < cleanupInterval {
		return
	}
	rl.lastCleanup = now

	removed := 0
	for key, c := range rl.daily {
		if now.Sub(c.start) > dailyRetention {
			delete(rl.daily, key)
			removed++
		}
	}
	for key, c := range rl.hourly {
		if now.Sub(c.start) > hourlyRetention {
			delete(rl.hourly, key)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("Rate limiter cleanup: removed %d stale buckets (daily: %d, hourly: %d)",
			removed, len(rl.daily), len(rl.hourly))
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}
