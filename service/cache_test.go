package service

import (
	"testing"
	"time"

	"finance/models"
	"finance/store"

	"github.com/stretchr/testify/assert"
)

func januaryRange() store.DateRange {
	return store.DateRange{
		Start: models.MustParseDate("2024-01-01"),
		End:   models.MustParseDate("2024-01-31"),
	}
}

func TestReportCache_GetSet(t *testing.T) {
	c := NewReportCache(10, time.Minute)

	_, ok := c.Get(1, "summary", januaryRange())
	assert.False(t, ok)

	c.Set(1, "summary", januaryRange(), "v1")
	v, ok := c.Get(1, "summary", januaryRange())
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	// 不同用户互不可见
	_, ok = c.Get(2, "summary", januaryRange())
	assert.False(t, ok)

	// 覆盖写入
	c.Set(1, "summary", januaryRange(), "v2")
	v, _ = c.Get(1, "summary", januaryRange())
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, c.Len())
}

func TestReportCache_Expire(t *testing.T) {
	c := NewReportCache(10, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(1, "summary", store.DateRange{}, "v")
	c.Set(1, "trend", store.DateRange{}, "v")

	now = now.Add(2 * time.Minute)
	_, ok := c.Get(1, "summary", store.DateRange{})
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Len())
}

func TestReportCache_EvictLRU(t *testing.T) {
	c := NewReportCache(2, time.Minute)
	c.Set(1, "a", store.DateRange{}, 1)
	c.Set(1, "b", store.DateRange{}, 2)
	c.Get(1, "a", store.DateRange{})
	c.Set(1, "c", store.DateRange{}, 3)

	_, ok := c.Get(1, "b", store.DateRange{})
	assert.False(t, ok)
	_, ok = c.Get(1, "a", store.DateRange{})
	assert.True(t, ok)
	_, ok = c.Get(1, "c", store.DateRange{})
	assert.True(t, ok)
}

func TestReportCache_InvalidateDate(t *testing.T) {
	c := NewReportCache(10, time.Minute)
	february := store.DateRange{
		Start: models.MustParseDate("2024-02-01"),
		End:   models.MustParseDate("2024-02-29"),
	}
	c.Set(1, "by_category", januaryRange(), "jan")
	c.Set(1, "by_category", february, "feb")
	c.Set(1, "summary", store.DateRange{}, "all")
	c.Set(2, "summary", store.DateRange{}, "other user")

	removed := c.InvalidateDate(1, models.MustParseDate("2024-01-31"))
	assert.Equal(t, 2, removed)

	_, ok := c.Get(1, "by_category", february)
	assert.True(t, ok)
	_, ok = c.Get(2, "summary", store.DateRange{})
	assert.True(t, ok)
}

func TestReportCache_InvalidateUser(t *testing.T) {
	c := NewReportCache(10, time.Minute)
	c.Set(1, "a", store.DateRange{}, 1)
	c.Set(1, "b", januaryRange(), 2)
	c.Set(2, "a", store.DateRange{}, 3)

	assert.Equal(t, 2, c.InvalidateUser(1))
	assert.Equal(t, 1, c.Len())
}

func TestReportCache_SetIfGeneration(t *testing.T) {
	c := NewReportCache(10, time.Minute)

	gen := c.Generation(1)
	assert.True(t, c.SetIfGeneration(1, gen, "summary", store.DateRange{}, "v1"))
	_, ok := c.Get(1, "summary", store.DateRange{})
	assert.True(t, ok)

	// 失效后旧代数的写入被丢弃
	stale := c.Generation(1)
	c.InvalidateDate(1, models.MustParseDate("2024-01-10"))
	assert.False(t, c.SetIfGeneration(1, stale, "summary", store.DateRange{}, "stale"))
	_, ok = c.Get(1, "summary", store.DateRange{})
	assert.False(t, ok)

	stale = c.Generation(1)
	c.InvalidateUser(1)
	assert.False(t, c.SetIfGeneration(1, stale, "summary", store.DateRange{}, "stale"))

	// 其他用户的代数不受影响
	other := c.Generation(2)
	c.InvalidateUser(1)
	assert.True(t, c.SetIfGeneration(2, other, "summary", store.DateRange{}, "v2"))
	assert.Equal(t, 1, c.Len())
}
