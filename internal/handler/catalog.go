package handler

import (
	"fmt"
	"strings"

	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/Joellzt/movie-cards/internal/service"
	"github.com/Joellzt/movie-cards/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MovieDetail 详情页数据
type MovieDetail struct {
	Movie         *model.Movie   `json:"movie"`
	TrailerKey    string         `json:"trailerKey,omitempty"`
	TrailerURL    string         `json:"trailerUrl,omitempty"`
	Reviews       []model.Review `json:"reviews"`
	AverageRating float64        `json:"averageRating"`
	IsSaved       bool           `json:"isSaved"`
	MyReview      *model.Review  `json:"myReview"`
}

// Popular 热门电影
func (h *Handler) Popular(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	movies, err := h.Catalog.Popular(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, movies)
}

// NowPlaying 正在上映
func (h *Handler) NowPlaying(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	movies, err := h.Catalog.NowPlaying(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, movies)
}

// Search 搜索电影，结果缓存 10 分钟
func (h *Handler) Search(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	query := c.Query("q")
	cacheable := strings.TrimSpace(query) != ""

	// 空关键词等同于热门，不走缓存
	key := fmt.Sprintf("%s|%d", query, page)
	if cacheable {
		if movies, hit := h.searchCache.Get(key); hit {
			utils.Success(c, movies)
			return
		}
	}

	movies, err := h.Catalog.Search(c.Request.Context(), query, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if cacheable {
		h.searchCache.Set(key, movies)
	}
	utils.Success(c, movies)
}

// Hero 首页大图
func (h *Handler) Hero(c *gin.Context) {
	limit := utils.ParseIntDefault(c.Query("limit"), service.DefaultHeroLimit)
	if limit <= 0 {
		limit = service.DefaultHeroLimit
	}
	limit = min(limit, maxHeroLimit)

	key := fmt.Sprintf("hero:%d", limit)
	if cached, found := utils.CacheGet(key); found {
		utils.Success(c, cached)
		return
	}

	hero, err := h.Catalog.HeroBackdrops(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.CacheSet(key, hero, heroCacheTTL)
	utils.Success(c, hero)
}

// MovieDetail 详情页：详情、预告片、影评和收藏状态并发获取
func (h *Handler) MovieDetail(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		return
	}

	var detail MovieDetail
	g, ctx := errgroup.WithContext(c.Request.Context())

	g.Go(func() error {
		m, err := h.Catalog.Details(ctx, id)
		detail.Movie = m
		return err
	})
	g.Go(func() error {
		// 预告片失败不影响详情页
		key, found, err := h.Catalog.TrailerKey(ctx, id)
		if err != nil {
			h.log.Warn("获取预告片失败", zap.Int("movie_id", id), zap.Error(err))
			return nil
		}
		if found {
			detail.TrailerKey = key
			detail.TrailerURL = service.YouTubeWatchURL + key
		}
		return nil
	})
	g.Go(func() error {
		reviews, err := h.Library.ReviewsForMovie(ctx, id)
		detail.Reviews = reviews
		detail.AverageRating = service.AverageOf(reviews)
		return err
	})
	g.Go(func() error {
		saved, err := h.Library.IsSaved(ctx, id)
		detail.IsSaved = saved
		return err
	})
	g.Go(func() error {
		mine, err := h.Library.MyReview(ctx, id)
		detail.MyReview = mine
		return err
	})

	if err := g.Wait(); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, detail)
}

// TrailerResponse 预告片；没有预告片时 key 和 url 均为 null
type TrailerResponse struct {
	Key *string `json:"key"`
	URL *string `json:"url"`
}

// Trailer 预告片 key 和地址，没有预告片不算错误
func (h *Handler) Trailer(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		return
	}
	key, found, err := h.Catalog.TrailerKey(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var resp TrailerResponse
	if found {
		url := service.YouTubeWatchURL + key
		resp.Key, resp.URL = &key, &url
	}
	utils.Success(c, resp)
}
