package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Joellzt/movie-cards/internal/auth"
	"github.com/Joellzt/movie-cards/internal/config"
	"github.com/Joellzt/movie-cards/internal/handler"
	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/Joellzt/movie-cards/internal/repository"
	"github.com/Joellzt/movie-cards/internal/router"
	"github.com/Joellzt/movie-cards/internal/service"
	"github.com/Joellzt/movie-cards/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubCatalog 固定返回值的目录服务
type stubCatalog struct {
	mu          sync.Mutex
	searchCalls int
	heroCalls   int
	lastPage    int
	lastLimit   int
	detailsErr  error
	trailerErr  error
	trailer     string
}

func (s *stubCatalog) movies() []model.Movie {
	poster := "https://image.tmdb.org/t/p/w500/p.jpg"
	return []model.Movie{{ID: 1, Title: "Uno", PosterPath: &poster, Source: model.SourceTMDB}}
}

func (s *stubCatalog) Popular(_ context.Context, page int) ([]model.Movie, error) {
	if page < 0 {
		return nil, &service.Error{Op: "popular", Kind: service.ErrValidation}
	}
	s.mu.Lock()
	s.lastPage = page
	s.mu.Unlock()
	return s.movies(), nil
}

func (s *stubCatalog) NowPlaying(_ context.Context, page int) ([]model.Movie, error) {
	return nil, &service.Error{Op: "nowPlaying", Kind: service.ErrUpstream}
}

func (s *stubCatalog) Search(_ context.Context, query string, page int) ([]model.Movie, error) {
	s.mu.Lock()
	s.searchCalls++
	s.mu.Unlock()
	return s.movies(), nil
}

func (s *stubCatalog) Details(_ context.Context, id int) (*model.Movie, error) {
	if s.detailsErr != nil {
		return nil, s.detailsErr
	}
	return &model.Movie{ID: id, Title: "Detalle", GenreNames: []string{"Drama"}}, nil
}

func (s *stubCatalog) TrailerKey(_ context.Context, id int) (string, bool, error) {
	if id == 404 {
		return "", false, &service.Error{Op: "videos", Kind: service.ErrNotFound}
	}
	if s.trailerErr != nil {
		return "", false, s.trailerErr
	}
	return s.trailer, s.trailer != "", nil
}

func (s *stubCatalog) HeroBackdrops(_ context.Context, limit int) ([]model.HeroBackdrop, error) {
	s.mu.Lock()
	s.heroCalls++
	s.lastLimit = limit
	s.mu.Unlock()
	return []model.HeroBackdrop{{URL: "u", Title: "t", Avg: 8}}, nil
}

type testEnv struct {
	engine  *gin.Engine
	catalog *stubCatalog
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	utils.InitCache()

	db, err := repository.InitSQLite(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))
	repos := repository.NewRepositories(db)
	t.Cleanup(func() { _ = repos.Close(context.Background()) })

	cfg := &config.Config{Env: "test", AppSecret: "handler-secret", JWTExpiry: time.Hour, CORSOrigins: []string{"*"}}
	log := zap.NewNop()
	authSvc := auth.NewService(repos.User, cfg.AppSecret, cfg.JWTExpiry, log)
	t.Cleanup(func() { _ = authSvc.Close() })

	catalog := &stubCatalog{trailer: "abc"}
	library := service.NewLibraryService(repos.SavedMovie, repos.Review, authSvc, log)
	h := handler.NewHandler(cfg, catalog, library, authSvc, log)
	return &testEnv{engine: router.New(h, log), catalog: catalog}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w.Code, env
}

func (e *testEnv) register(t *testing.T, email, name string) string {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "secreto", "displayName": name,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var resp handler.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	e := setupEnv(t)
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	e := setupEnv(t)

	code, env := e.do(t, http.MethodGet, "/api/movies/popular", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, 0, e.catalog.lastPage)

	code, _ = e.do(t, http.MethodGet, "/api/movies/popular?page=-2", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodGet, "/api/movies/popular?page=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// 显式传入的页码必须是正整数
	code, _ = e.do(t, http.MethodGet, "/api/movies/popular?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodGet, "/api/movies/popular?page=2", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, e.catalog.lastPage)

	code, _ = e.do(t, http.MethodGet, "/api/movies/now-playing", "", nil)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestSearchCached(t *testing.T) {
	e := setupEnv(t)

	for i := 0; i < 3; i++ {
		code, _ := e.do(t, http.MethodGet, "/api/movies/search?q=matrix&page=1", "", nil)
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 1, e.catalog.searchCalls)

	// 空关键词不缓存
	e.do(t, http.MethodGet, "/api/movies/search?q=", "", nil)
	e.do(t, http.MethodGet, "/api/movies/search?q=", "", nil)
	assert.Equal(t, 3, e.catalog.searchCalls)
}

func TestHeroCached(t *testing.T) {
	e := setupEnv(t)
	e.do(t, http.MethodGet, "/api/movies/hero?limit=5", "", nil)
	code, env := e.do(t, http.MethodGet, "/api/movies/hero?limit=5", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, e.catalog.heroCalls)

	var hero []model.HeroBackdrop
	require.NoError(t, json.Unmarshal(env.Data, &hero))
	require.Len(t, hero, 1)

	// 超过上限的 limit 归到同一个缓存键
	e.do(t, http.MethodGet, "/api/movies/hero?limit=500", "", nil)
	assert.Equal(t, 20, e.catalog.lastLimit)
	e.do(t, http.MethodGet, "/api/movies/hero?limit=9999", "", nil)
	assert.Equal(t, 2, e.catalog.heroCalls)
}

func TestAuthFlow(t *testing.T) {
	e := setupEnv(t)

	code, _ := e.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token := e.register(t, "ana@example.com", "Ana")

	code, env := e.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"displayName":"Ana"`)

	code, _ = e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "ana@example.com", "password": "secreto"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "bad", "password": "secreto"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secreto"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = e.do(t, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestSessionCookieLogin(t *testing.T) {
	e := setupEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(
		`{"email":"eva@example.com","password":"secreto","displayName":"Eva"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var sessionCookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "moviecards_session" {
			sessionCookie = ck
		}
	}
	require.NotNil(t, sessionCookie)

	// 只带 Session Cookie 也能识别当前用户
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(sessionCookie)
	w = httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"displayName":"Eva"`)

	// 登出后 Session 被清空
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(sessionCookie)
	w = httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var cleared *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "moviecards_session" {
			cleared = ck
		}
	}
	require.NotNil(t, cleared)
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cleared)
	w = httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLibraryRoutes(t *testing.T) {
	e := setupEnv(t)

	// 未登录：列表为空，写操作 401
	code, env := e.do(t, http.MethodGet, "/api/library/saved", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	movie := map[string]interface{}{"id": 550, "title": "El club de la pelea", "poster_path": "https://image.tmdb.org/t/p/w500/p.jpg", "vote_average": 8.4}
	code, _ = e.do(t, http.MethodPost, "/api/library/saved", "", movie)
	assert.Equal(t, http.StatusUnauthorized, code)

	token := e.register(t, "ana@example.com", "Ana")

	code, _ = e.do(t, http.MethodPost, "/api/library/saved", token, movie)
	assert.Equal(t, http.StatusCreated, code)

	code, _ = e.do(t, http.MethodPost, "/api/library/saved", token, map[string]interface{}{"title": "sin id"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = e.do(t, http.MethodGet, "/api/library/saved/550", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"saved":true}`, string(env.Data))

	code, env = e.do(t, http.MethodGet, "/api/library/saved", token, nil)
	assert.Equal(t, http.StatusOK, code)
	var saved []model.SavedMovie
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, "El club de la pelea", saved[0].MovieTitle)

	code, _ = e.do(t, http.MethodDelete, "/api/library/saved/550", token, nil)
	assert.Equal(t, http.StatusOK, code)
	_, env = e.do(t, http.MethodGet, "/api/library/saved/550", token, nil)
	assert.JSONEq(t, `{"saved":false}`, string(env.Data))

	code, _ = e.do(t, http.MethodGet, "/api/library/saved/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestReviewRoutes(t *testing.T) {
	e := setupEnv(t)
	token := e.register(t, "ana@example.com", "Ana")

	code, _ := e.do(t, http.MethodPost, "/api/movies/550/reviews", token, map[string]interface{}{"rating": 11, "review": "demasiado alto"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodPost, "/api/movies/550/reviews", token, map[string]interface{}{"rating": 8, "review": "   corta   "})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodPost, "/api/movies/550/reviews", "", map[string]interface{}{"rating": 8, "review": "sin sesión iniciada"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := e.do(t, http.MethodPost, "/api/movies/550/reviews", token, map[string]interface{}{
		"rating": 8, "review": "una película excelente", "movieTitle": "El club de la pelea",
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	var review model.Review
	require.NoError(t, json.Unmarshal(env.Data, &review))
	assert.Equal(t, "Ana", review.UserName)

	code, env = e.do(t, http.MethodGet, "/api/movies/550/reviews", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"averageRating":8`)

	_, env = e.do(t, http.MethodGet, "/api/movies/550/reviews/mine", "", nil)
	assert.JSONEq(t, `null`, string(env.Data))

	code, _ = e.do(t, http.MethodPut, "/api/reviews/"+review.ID, token, map[string]interface{}{"rating": 6, "review": "ya no me gusta tanto"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(t, http.MethodPut, "/api/reviews/missing", token, map[string]interface{}{"rating": 6, "review": "reseña inexistente"})
	assert.Equal(t, http.StatusNotFound, code)

	_, env = e.do(t, http.MethodGet, "/api/library/reviews", token, nil)
	var mine []model.Review
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, 6, mine[0].Rating)
	assert.NotNil(t, mine[0].UpdatedAt)

	code, _ = e.do(t, http.MethodDelete, "/api/reviews/"+review.ID, token, nil)
	assert.Equal(t, http.StatusOK, code)
	_, env = e.do(t, http.MethodGet, "/api/library/reviews", token, nil)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestMovieDetail(t *testing.T) {
	e := setupEnv(t)
	token := e.register(t, "ana@example.com", "Ana")

	e.do(t, http.MethodPost, "/api/library/saved", token, map[string]interface{}{"id": 7, "title": "Siete"})
	e.do(t, http.MethodPost, "/api/movies/7/reviews", token, map[string]interface{}{"rating": 9, "review": "me encantó de verdad"})

	code, env := e.do(t, http.MethodGet, "/api/movies/7", token, nil)
	require.Equal(t, http.StatusOK, code)
	var detail handler.MovieDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, 7, detail.Movie.ID)
	assert.Equal(t, "abc", detail.TrailerKey)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", detail.TrailerURL)
	assert.True(t, detail.IsSaved)
	require.NotNil(t, detail.MyReview)
	assert.Len(t, detail.Reviews, 1)
	assert.Equal(t, 9.0, detail.AverageRating)

	// 预告片失败不影响详情
	e.catalog.trailerErr = &service.Error{Op: "videos", Kind: service.ErrUpstream}
	code, env = e.do(t, http.MethodGet, "/api/movies/7", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.False(t, detail.IsSaved)

	code, _ = e.do(t, http.MethodGet, "/api/movies/7/trailer", "", nil)
	assert.Equal(t, http.StatusBadGateway, code)

	e.catalog.detailsErr = &service.Error{Op: "details", Kind: service.ErrNotFound}
	code, _ = e.do(t, http.MethodGet, "/api/movies/7", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTrailerRoute(t *testing.T) {
	e := setupEnv(t)
	code, env := e.do(t, http.MethodGet, "/api/movies/3/trailer", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"key":"abc","url":"https://www.youtube.com/watch?v=abc"}`, string(env.Data))

	// 没有预告片是正常的空结果
	e.catalog.trailer = ""
	code, env = e.do(t, http.MethodGet, "/api/movies/3/trailer", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"key":null,"url":null}`, string(env.Data))

	// 电影不存在才是 404
	code, env = e.do(t, http.MethodGet, "/api/movies/404/trailer", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestCORSPreflight(t *testing.T) {
	e := setupEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/movies/popular", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:4200", w.Header().Get("Access-Control-Allow-Origin"))
}
