package utils

import (
	"sync"
	"time"
)

// TTLCache 基于 sync.Map 的并发安全过期缓存
// 用途：登录失败计数等短生命周期状态，不做容量控制
type TTLCache struct {
	items sync.Map
	ttl   time.Duration
}

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value      string
	expiration int64
}

// NewTTLCache 创建缓存，ttl 为条目默认存活时间
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{ttl: ttl}
}

// Set 设置缓存
func (c *TTLCache) Set(key string, value string) {
	exp := time.Now().Add(c.ttl).UnixNano()
	c.items.Store(key, cacheItem{
		value:      value,
		expiration: exp,
	})
}

// Get 获取缓存并验证是否过期
func (c *TTLCache) Get(key string) (string, bool) {
	val, ok := c.items.Load(key)
	if !ok {
		return "", false
	}

	item := val.(cacheItem)

	// 检查是否过期
	if time.Now().UnixNano() > item.expiration {
		c.items.Delete(key) // 懒删除
		return "", false
	}

	return item.value, true
}

// Delete 删除缓存 (用完即焚)
func (c *TTLCache) Delete(key string) {
	c.items.Delete(key)
}
