package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// stubCapacityCache records cache traffic for assertions. Get can be primed
// with a value or left missing.
type stubCapacityCache struct {
	value     int
	hasValue  bool
	gets      int
	sets      int
	lastSet   int
	setCalled bool
}

func (c *stubCapacityCache) GetCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	c.gets++
	if !c.hasValue {
		return -1, errors.New("capacity not cached")
	}
	return c.value, nil
}

func (c *stubCapacityCache) SetCapacity(ctx context.Context, lecturerID, periodID uuid.UUID, capacity int, ttl time.Duration) error {
	c.sets++
	c.lastSet = capacity
	c.setCalled = true
	c.value = capacity
	c.hasValue = true
	return nil
}

func (c *stubCapacityCache) DecrementCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	if !c.hasValue || c.value <= 0 {
		return -1, errors.New("counter absent or exhausted")
	}
	c.value--
	return c.value, nil
}

func (c *stubCapacityCache) IncrementCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	if !c.hasValue {
		return -1, errors.New("counter absent")
	}
	c.value++
	return c.value, nil
}

func (c *stubCapacityCache) InvalidateCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) error {
	c.hasValue = false
	return nil
}

func (c *stubCapacityCache) Ping(ctx context.Context) error { return nil }

func TestQuotaService_EffectiveMax(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")

	max, err := f.quota.EffectiveMax(f.ctx, lecturer.LecturerID, period.PeriodID)
	if err != nil {
		t.Fatalf("effective max: %v", err)
	}
	if max != 12 {
		t.Errorf("Expected period default 12, got %d", max)
	}

	if err := f.quota.SetCustomQuota(f.ctx, lecturer.LecturerID, period.PeriodID, 3); err != nil {
		t.Fatalf("set custom quota: %v", err)
	}
	max, err = f.quota.EffectiveMax(f.ctx, lecturer.LecturerID, period.PeriodID)
	if err != nil {
		t.Fatalf("effective max: %v", err)
	}
	if max != 3 {
		t.Errorf("Expected custom quota 3 to override the default, got %d", max)
	}

	if err := f.quota.SetCustomQuota(f.ctx, lecturer.LecturerID, period.PeriodID, -1); err == nil {
		t.Error("Expected negative quota to be rejected")
	}
}

func TestQuotaService_AvailableCapacity_FlooredAtZero(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	f.seedAssignments(t, lecturer.LecturerID, period.PeriodID, 11)

	if got := f.capacity(t, lecturer.LecturerID, period.PeriodID); got != 1 {
		t.Errorf("Expected capacity 1 with 11 of 12 slots used, got %d", got)
	}

	// A custom quota below the current load must not produce a negative
	// capacity.
	if err := f.quota.SetCustomQuota(f.ctx, lecturer.LecturerID, period.PeriodID, 5); err != nil {
		t.Fatalf("set custom quota: %v", err)
	}
	if got := f.capacity(t, lecturer.LecturerID, period.PeriodID); got != 0 {
		t.Errorf("Expected capacity floored at 0, got %d", got)
	}
}

func TestQuotaService_AvailableCapacity_ServedFromCache(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	f.seedAssignments(t, lecturer.LecturerID, period.PeriodID, 4)

	cache := &stubCapacityCache{value: 7, hasValue: true}
	quota := NewQuotaService(f.store.Quotas(), f.store.Assignments(), f.store.Periods(), cache)

	// Outside a transaction the cached counter answers directly, even when
	// it disagrees with the relational count.
	got, err := quota.AvailableCapacity(f.ctx, lecturer.LecturerID, period.PeriodID)
	if err != nil {
		t.Fatalf("available capacity: %v", err)
	}
	if got != 7 {
		t.Errorf("Expected cached capacity 7, got %d", got)
	}
	if cache.gets != 1 {
		t.Errorf("Expected one cache read, got %d", cache.gets)
	}
	if cache.setCalled {
		t.Error("Expected no cache refresh on a cache hit")
	}
}

func TestQuotaService_AvailableCapacity_CacheMissFallsBackAndRefreshes(t *testing.T) {
	f := newFixture()
	period := f.seedPeriod(t, "Odd 2025/2026", 12)
	lecturer := f.seedLecturer(t, "LL001")
	f.seedAssignments(t, lecturer.LecturerID, period.PeriodID, 4)

	cache := &stubCapacityCache{}
	quota := NewQuotaService(f.store.Quotas(), f.store.Assignments(), f.store.Periods(), cache)

	got, err := quota.AvailableCapacity(f.ctx, lecturer.LecturerID, period.PeriodID)
	if err != nil {
		t.Fatalf("available capacity: %v", err)
	}
	if got != 8 {
		t.Errorf("Expected relational capacity 8 on cache miss, got %d", got)
	}
	if !cache.setCalled || cache.lastSet != 8 {
		t.Errorf("Expected cache refreshed with 8, got setCalled=%v lastSet=%d", cache.setCalled, cache.lastSet)
	}

	// The next read is served from the refreshed counter.
	got, err = quota.AvailableCapacity(f.ctx, lecturer.LecturerID, period.PeriodID)
	if err != nil {
		t.Fatalf("available capacity: %v", err)
	}
	if got != 8 {
		t.Errorf("Expected cached capacity 8, got %d", got)
	}
	if cache.sets != 1 {
		t.Errorf("Expected no second refresh, got %d sets", cache.sets)
	}
}
