package service

import (
	"context"
	"sync"

	"github.com/Joellzt/movie-cards/internal/model"
	"golang.org/x/sync/singleflight"
)

type cacheState int

const (
	cacheEmpty cacheState = iota
	cachePending
	cachePopulated
)

func (s cacheState) String() string {
	switch s {
	case cachePending:
		return "pending"
	case cachePopulated:
		return "populated"
	default:
		return "empty"
	}
}

// genreCache 类型表缓存：只请求一次，成功后永久有效
// 失败时回到 empty，下一次调用重试
type genreCache struct {
	mu    sync.Mutex
	state cacheState
	value model.GenreMap
	group singleflight.Group
}

func (c *genreCache) get(ctx context.Context, fetch func(context.Context) (model.GenreMap, error)) (model.GenreMap, error) {
	c.mu.Lock()
	if c.state == cachePopulated {
		v := c.value
		c.mu.Unlock()
		return v, nil
	}
	c.state = cachePending
	c.mu.Unlock()

	// 并发调用方共享同一次请求，不受第一个调用方取消的影响
	shared := context.WithoutCancel(ctx)
	val, err, _ := c.group.Do("genres", func() (interface{}, error) {
		c.mu.Lock()
		if c.state == cachePopulated {
			v := c.value
			c.mu.Unlock()
			return v, nil
		}
		c.mu.Unlock()

		m, err := fetch(shared)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.state = cacheEmpty
			return nil, err
		}
		c.state = cachePopulated
		c.value = m
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(model.GenreMap), nil
}

func (c *genreCache) currentState() cacheState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
