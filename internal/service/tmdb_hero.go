package service

import (
	"context"
	"sort"

	"github.com/Joellzt/movie-cards/internal/model"
	"go.uber.org/zap"
)

// DefaultHeroLimit 首页大图默认数量
const DefaultHeroLimit = 12

// HeroBackdrops 本周趋势（电影/剧集）中评分最高且有背景图的前 limit 条
func (s *TMDBService) HeroBackdrops(ctx context.Context, limit int) ([]model.HeroBackdrop, error) {
	if limit <= 0 {
		limit = DefaultHeroLimit
	}

	var resp struct {
		Results []model.TrendingItem `json:"results"`
	}
	if err := s.get(ctx, "/trending/all/week", nil, &resp); err != nil {
		s.log.Warn("获取趋势失败", zap.Error(err))
		return nil, s.wrap("heroBackdrops", err)
	}

	items := make([]model.TrendingItem, 0, len(resp.Results))
	for _, it := range resp.Results {
		if it.BackdropPath != nil && *it.BackdropPath != "" {
			items = append(items, it)
		}
	}
	// 评分高的在前
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].VoteAverage > items[j].VoteAverage
	})
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]model.HeroBackdrop, 0, len(items))
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = it.Name
		}
		if title == "" {
			title = "—"
		}
		out = append(out, model.HeroBackdrop{
			URL:      s.cfg.HeroBase + *it.BackdropPath,
			Title:    title,
			Avg:      it.VoteAverage,
			Overview: it.Overview,
		})
	}
	return out, nil
}
