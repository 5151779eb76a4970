package router

import (
	"net/http"

	"github.com/Joellzt/movie-cards/internal/handler"
	"github.com/Joellzt/movie-cards/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sessionName Session Cookie 名称
const sessionName = "moviecards_session"

// New 创建 Gin 引擎并挂载通用中间件
func New(h *handler.Handler, log *zap.Logger) *gin.Engine {
	if h.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(h.Config.CORSOrigins))

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 设置 Session 中间件
	store := cookie.NewStore([]byte(h.Config.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(h.Auth.Expiry().Seconds()),
		HttpOnly: true,
		Secure:   h.Config.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	optional := middleware.OptionalAuth(h.Auth)
	required := middleware.RequireAuth(h.Auth)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 认证 ====================
	authGroup := r.Group("/auth")
	authGroup.Use(optional)
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.Me)
	}

	api := r.Group("/api")
	api.Use(optional)

	// ==================== 电影目录 ====================
	movies := api.Group("/movies")
	{
		movies.GET("/popular", h.Popular)
		movies.GET("/now-playing", h.NowPlaying)
		movies.GET("/search", h.Search)
		movies.GET("/hero", h.Hero)
		movies.GET("/:id", h.MovieDetail)
		movies.GET("/:id/trailer", h.Trailer)
		movies.GET("/:id/reviews", h.MovieReviews)
		movies.GET("/:id/reviews/mine", h.MyMovieReview)
		movies.POST("/:id/reviews", required, h.SubmitReview)
	}

	// ==================== 我的片单 ====================
	library := api.Group("/library")
	{
		library.GET("/saved", h.ListSaved)
		library.GET("/saved/:movieId", h.IsSaved)
		library.POST("/saved", required, h.SaveMovie)
		library.DELETE("/saved/:movieId", required, h.Unsave)
		library.GET("/reviews", h.MyReviews)
	}

	reviews := api.Group("/reviews")
	reviews.Use(required)
	{
		reviews.PUT("/:id", h.UpdateReview)
		reviews.DELETE("/:id", h.DeleteReview)
	}
}
