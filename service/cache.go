package service

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"finance/models"
	"finance/store"
)

// ReportCache 报表缓存（LRU + TTL）。
// 键包含用户、报表类型和查询窗口；收支记录变动时按日期失效覆盖该日期的窗口。
// 每个用户有一个代数，任何失效都会递增，查询开始前取得的代数已变化时结果不再写入。
type ReportCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	gens    map[uint]uint64
	now     func() time.Time
}

type reportCacheItem struct {
	key       string
	userID    uint
	window    store.DateRange
	data      interface{}
	expiresAt time.Time
}

// NewReportCache 创建报表缓存
func NewReportCache(maxSize int, ttl time.Duration) *ReportCache {
	return &ReportCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		gens:    make(map[uint]uint64),
		now:     time.Now,
	}
}

func cacheKey(userID uint, kind string, window store.DateRange) string {
	return fmt.Sprintf("%d|%s|%s|%s", userID, kind, window.Start, window.End)
}

// Get 读取缓存
func (c *ReportCache) Get(userID uint, kind string, window store.DateRange) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[cacheKey(userID, kind, window)]
	if !ok {
		return nil, false
	}
	item := elem.Value.(*reportCacheItem)
	if c.now().After(item.expiresAt) {
		c.removeElement(elem)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return item.data, true
}

// Generation 用户当前的缓存代数，应在读取账本之前获取
func (c *ReportCache) Generation(userID uint) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[userID]
}

// Set 写入缓存，超出容量时淘汰最久未使用的条目
func (c *ReportCache) Set(userID uint, kind string, window store.DateRange, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(userID, kind, window, data)
}

// SetIfGeneration 仅当用户代数仍为 gen 时写入，返回是否写入。
// 计算期间发生过失效的结果已经过期，直接丢弃。
func (c *ReportCache) SetIfGeneration(userID uint, gen uint64, kind string, window store.DateRange, data interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		return false
	}
	c.set(userID, kind, window, data)
	return true
}

func (c *ReportCache) set(userID uint, kind string, window store.DateRange, data interface{}) {
	key := cacheKey(userID, kind, window)
	item := &reportCacheItem{
		key:       key,
		userID:    userID,
		window:    window,
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	}
	if elem, ok := c.items[key]; ok {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}
	c.items[key] = c.lru.PushFront(item)
	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// InvalidateDate 删除该用户所有窗口覆盖 date 的条目，返回删除数量
func (c *ReportCache) InvalidateDate(userID uint, date models.Date) int {
	c.bump(userID)
	return c.removeWhere(func(item *reportCacheItem) bool {
		if item.userID != userID {
			return false
		}
		w := item.window
		if !w.Start.IsZero() && date.Before(w.Start) {
			return false
		}
		if !w.End.IsZero() && date.After(w.End) {
			return false
		}
		return true
	})
}

// InvalidateUser 删除该用户的全部条目（类别、预算变动时使用）
func (c *ReportCache) InvalidateUser(userID uint) int {
	c.bump(userID)
	return c.removeWhere(func(item *reportCacheItem) bool {
		return item.userID == userID
	})
}

// CleanExpired 清理过期条目
func (c *ReportCache) CleanExpired() int {
	now := c.now()
	return c.removeWhere(func(item *reportCacheItem) bool {
		return now.After(item.expiresAt)
	})
}

// Len 当前条目数
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *ReportCache) bump(userID uint) {
	c.mu.Lock()
	c.gens[userID]++
	c.mu.Unlock()
}

func (c *ReportCache) removeWhere(match func(*reportCacheItem) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if match(elem.Value.(*reportCacheItem)) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

func (c *ReportCache) removeElement(elem *list.Element) {
	item := elem.Value.(*reportCacheItem)
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// StartCleanup 定期清理过期条目，ctx 结束时退出
func (c *ReportCache) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}
