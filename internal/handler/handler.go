package handler

import (
	"context"
	"encoding/gob"
	"errors"
	"strconv"
	"time"

	"github.com/Joellzt/movie-cards/internal/auth"
	"github.com/Joellzt/movie-cards/internal/config"
	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/Joellzt/movie-cards/internal/service"
	"github.com/Joellzt/movie-cards/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	// 注册 Session 模型
	gob.Register(model.SessionUser{})
}

// 搜索结果缓存
const (
	searchCacheSize = 256
	searchCacheTTL  = 10 * time.Minute
	heroCacheTTL    = 30 * time.Minute
	maxHeroLimit    = 20
)

// Catalog 电影目录（TMDB）
type Catalog interface {
	Popular(ctx context.Context, page int) ([]model.Movie, error)
	NowPlaying(ctx context.Context, page int) ([]model.Movie, error)
	Search(ctx context.Context, query string, page int) ([]model.Movie, error)
	Details(ctx context.Context, id int) (*model.Movie, error)
	TrailerKey(ctx context.Context, id int) (string, bool, error)
	HeroBackdrops(ctx context.Context, limit int) ([]model.HeroBackdrop, error)
}

// Handler HTTP 处理器
type Handler struct {
	Config  *config.Config
	Catalog Catalog
	Library *service.LibraryService
	Auth    *auth.Service

	log         *zap.Logger
	searchCache *utils.TTLCache[[]model.Movie]
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, catalog Catalog, library *service.LibraryService, authSvc *auth.Service, log *zap.Logger) *Handler {
	return &Handler{
		Config:      cfg,
		Catalog:     catalog,
		Library:     library,
		Auth:        authSvc,
		log:         log.With(zap.String("service", "http")),
		searchCache: utils.NewTTLCache[[]model.Movie](searchCacheSize, searchCacheTTL),
	}
}

// respondError 按错误类型返回状态码
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c, "")
	case errors.Is(err, service.ErrUpstream):
		h.log.Warn("上游错误", zap.String("path", c.Request.URL.Path), zap.Error(err))
		utils.BadGateway(c, "")
	default:
		h.log.Error("内部错误", zap.String("path", c.Request.URL.Path), zap.Error(err))
		utils.InternalServerError(c, "")
	}
}

// movieIDParam 解析路径中的电影 ID
func movieIDParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.BadRequest(c, "无效的电影 ID")
		return 0, false
	}
	return id, true
}

// pageQuery 解析 page 参数：缺省为 0（由服务层视为第 1 页），显式传入时必须是正整数
func pageQuery(c *gin.Context) (int, bool) {
	raw, exists := c.GetQuery("page")
	if !exists {
		return 0, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		utils.BadRequest(c, "无效的页码")
		return 0, false
	}
	return page, true
}

// bindAndValidate 解析 JSON 并校验
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequest(c, "请求格式错误")
		return false
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		utils.BadRequest(c, utils.FormatValidationErrors(errs))
		return false
	}
	return true
}
