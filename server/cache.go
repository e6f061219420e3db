package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// ResponseCache memoizes computed response bodies. The dataset never changes
// while serving, so entries only expire to bound memory.
type ResponseCache struct {
	store *cache.Cache
}

// NewResponseCache returns a cache with the given TTL. A non-positive TTL
// disables caching.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		return &ResponseCache{}
	}
	return &ResponseCache{store: cache.New(ttl, 2*ttl)}
}

// CacheKey joins a prefix and parameters into one key. Parameters are quoted
// so values containing the separator cannot collide.
func CacheKey(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		b.WriteString(":")
		b.WriteString(strconv.Quote(fmt.Sprint(p)))
	}
	return b.String()
}

// Get returns the cached value for key, computing and storing it on a miss.
// The second result reports a hit.
func (r *ResponseCache) Get(key string, compute func() interface{}) (interface{}, bool) {
	if r == nil || r.store == nil {
		return compute(), false
	}
	if v, ok := r.store.Get(key); ok {
		return v, true
	}
	v := compute()
	r.store.SetDefault(key, v)
	return v, false
}

// Len is the number of live entries
func (r *ResponseCache) Len() int {
	if r == nil || r.store == nil {
		return 0
	}
	return r.store.ItemCount()
}

// Flush drops every entry
func (r *ResponseCache) Flush() {
	if r != nil && r.store != nil {
		r.store.Flush()
	}
}
