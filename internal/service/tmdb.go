package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Joellzt/movie-cards/internal/config"
	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/Joellzt/movie-cards/internal/utils"
	"go.uber.org/zap"
)

// YouTubeWatchURL 预告片播放地址前缀
const YouTubeWatchURL = "https://www.youtube.com/watch?v="

// TMDBService TMDB 目录服务：列表、搜索、详情、预告片
type TMDBService struct {
	cfg    config.TMDBConfig
	client *utils.HTTPClient
	genres genreCache
	log    *zap.Logger
}

func NewTMDBService(cfg config.TMDBConfig, client *utils.HTTPClient, log *zap.Logger) *TMDBService {
	return &TMDBService{
		cfg:    cfg,
		client: client,
		log:    log.With(zap.String("service", "tmdb")),
	}
}

// GenreMap 类型表（整个进程只请求一次）
func (s *TMDBService) GenreMap(ctx context.Context) (model.GenreMap, error) {
	return s.genres.get(ctx, s.fetchGenreMap)
}

func (s *TMDBService) fetchGenreMap(ctx context.Context) (model.GenreMap, error) {
	var resp model.GenreResponse
	if err := s.get(ctx, "/genre/movie/list", nil, &resp); err != nil {
		s.log.Warn("获取类型表失败", zap.Error(err))
		return nil, s.wrap("genreMap", err)
	}
	gmap := make(model.GenreMap, len(resp.Genres))
	for _, g := range resp.Genres {
		gmap[g.ID] = g.Name
	}
	s.log.Debug("类型表已缓存", zap.Int("count", len(gmap)))
	return gmap, nil
}

// Popular 热门电影
func (s *TMDBService) Popular(ctx context.Context, page int) ([]model.Movie, error) {
	return s.list(ctx, "popular", "/movie/popular", page, nil)
}

// NowPlaying 正在上映
func (s *TMDBService) NowPlaying(ctx context.Context, page int) ([]model.Movie, error) {
	return s.list(ctx, "nowPlaying", "/movie/now_playing", page, nil)
}

// Search 搜索电影（排除成人内容），关键词为空时等同于 Popular
func (s *TMDBService) Search(ctx context.Context, query string, page int) ([]model.Movie, error) {
	// 只用于判断空白，原样发给 TMDB
	if strings.TrimSpace(query) == "" {
		return s.Popular(ctx, page)
	}
	return s.list(ctx, "search", "/search/movie", page, url.Values{
		"query":         {query},
		"include_adult": {"false"},
	})
}

func (s *TMDBService) list(ctx context.Context, op, path string, page int, extra url.Values) ([]model.Movie, error) {
	page, err := normalizePage(op, page)
	if err != nil {
		return nil, err
	}

	gmap, err := s.GenreMap(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{"page": {strconv.Itoa(page)}}
	for k, v := range extra {
		params[k] = v
	}

	var resp model.Paged[model.Movie]
	if err := s.get(ctx, path, params, &resp); err != nil {
		s.log.Warn("获取列表失败", zap.String("op", op), zap.Int("page", page), zap.Error(err))
		return nil, s.wrap(op, err)
	}
	return enrichList(resp.Results, gmap, s.cfg.ImageBase), nil
}

// ByID 单部电影（列表卡片格式），无海报时返回 nil
func (s *TMDBService) ByID(ctx context.Context, id int) (*model.Movie, error) {
	gmap, err := s.GenreMap(ctx)
	if err != nil {
		return nil, err
	}
	var movie model.Movie
	if err := s.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &movie); err != nil {
		return nil, s.wrap("byId", err)
	}
	list := enrichList([]model.Movie{movie}, gmap, s.cfg.ImageBase)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// Details 详情（含演职员表）
func (s *TMDBService) Details(ctx context.Context, id int) (*model.Movie, error) {
	var movie model.Movie
	params := url.Values{"append_to_response": {"credits"}}
	if err := s.get(ctx, fmt.Sprintf("/movie/%d", id), params, &movie); err != nil {
		s.log.Warn("获取详情失败", zap.Int("movie_id", id), zap.Error(err))
		return nil, s.wrap("details", err)
	}
	enriched := enrichDetails(movie, s.cfg.ImageBase, s.cfg.BackdropBase)
	return &enriched, nil
}

// Videos 电影的视频列表
func (s *TMDBService) Videos(ctx context.Context, id int) (*model.VideoResponse, error) {
	var resp model.VideoResponse
	if err := s.get(ctx, fmt.Sprintf("/movie/%d/videos", id), nil, &resp); err != nil {
		return nil, s.wrap("videos", err)
	}
	return &resp, nil
}

// TrailerKey 预告片的 YouTube key；没有预告片时返回 ("", false, nil)
func (s *TMDBService) TrailerKey(ctx context.Context, id int) (string, bool, error) {
	resp, err := s.Videos(ctx, id)
	if err != nil {
		return "", false, err
	}
	video, ok := selectTrailer(resp.Results)
	if !ok {
		return "", false, nil
	}
	return video.Key, true, nil
}

// TrailerURL 预告片的完整 YouTube 地址
func (s *TMDBService) TrailerURL(ctx context.Context, id int) (string, bool, error) {
	key, ok, err := s.TrailerKey(ctx, id)
	if err != nil || !ok {
		return "", ok, err
	}
	return YouTubeWatchURL + key, true, nil
}

// get 拼接 api_key、language 并请求
func (s *TMDBService) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", s.cfg.APIKey)
	q.Set("language", s.cfg.Language)
	return s.client.GetJSON(ctx, s.cfg.APIBase+path+"?"+q.Encode(), target)
}

// wrap 404 -> ErrNotFound，其余 -> ErrUpstream
func (s *TMDBService) wrap(op string, err error) error {
	var statusErr *utils.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return wrapError(op, ErrNotFound, err)
	}
	return wrapError(op, ErrUpstream, err)
}

// normalizePage 0 视为未指定（第 1 页），负数非法
func normalizePage(op string, page int) (int, error) {
	if page == 0 {
		return 1, nil
	}
	if page < 0 {
		return 0, wrapError(op, ErrValidation, fmt.Errorf("page must be positive, got %d", page))
	}
	return page, nil
}
