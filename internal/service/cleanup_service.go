package service

import (
	"context"
	"sync"
	"time"

	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultCleanupInterval 默认清理间隔
const DefaultCleanupInterval = time.Hour

// GenreSource 提供类型表
type GenreSource interface {
	GenreMap(ctx context.Context) (model.GenreMap, error)
}

// CleanupService 缓存维护：启动时预热类型表，之后定时清理过期缓存
// 全局缓存不启用 go-cache 的 janitor，由这里统一清理
type CleanupService struct {
	genres   GenreSource
	cache    *cache.Cache
	interval time.Duration
	log      *zap.Logger

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewCleanupService 创建清理服务，c 为 nil 时只做预热
func NewCleanupService(genres GenreSource, c *cache.Cache, interval time.Duration, log *zap.Logger) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupService{
		genres:   genres,
		cache:    c,
		interval: interval,
		log:      log.With(zap.String("service", "cleanup")),
		stop:     make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *CleanupService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// 启动时先运行一次
		s.warmup()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.runCleanup()
			}
		}
	}()
}

// Stop 停止定时任务并等待退出
func (s *CleanupService) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *CleanupService) warmup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gmap, err := s.genres.GenreMap(ctx)
	if err != nil {
		// 失败不要紧，第一次请求时会重试
		s.log.Warn("预热类型表失败", zap.Error(err))
		return
	}
	s.log.Info("类型表预热完成", zap.Int("count", len(gmap)))
}

func (s *CleanupService) runCleanup() {
	if s.cache == nil {
		return
	}
	before := s.cache.ItemCount()
	s.cache.DeleteExpired()
	if removed := before - s.cache.ItemCount(); removed > 0 {
		s.log.Info("已清理过期缓存", zap.Int("removed", removed))
	}
}
