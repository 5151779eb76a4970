package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/Joellzt/movie-cards/internal/repository"
	"go.uber.org/zap"
)

// SessionProvider 从请求上下文获取当前用户
type SessionProvider interface {
	Current(ctx context.Context) (*model.Session, bool)
}

// ReviewInput 提交影评
type ReviewInput struct {
	MovieID     int
	MovieTitle  string
	MoviePoster string
	Rating      int
	Review      string
}

// LibraryService 收藏与影评
// 未登录时所有用户相关操作直接返回空结果，不访问存储
type LibraryService struct {
	saved    repository.SavedMovieStore
	reviews  repository.ReviewStore
	sessions SessionProvider
	now      func() time.Time
	log      *zap.Logger
}

func NewLibraryService(saved repository.SavedMovieStore, reviews repository.ReviewStore, sessions SessionProvider, log *zap.Logger) *LibraryService {
	return &LibraryService{
		saved:    saved,
		reviews:  reviews,
		sessions: sessions,
		now:      time.Now,
		log:      log.With(zap.String("service", "library")),
	}
}

func (s *LibraryService) session(ctx context.Context) (*model.Session, bool) {
	sess, ok := s.sessions.Current(ctx)
	if !ok || sess == nil || sess.UserID == "" {
		return nil, false
	}
	return sess, true
}

func (s *LibraryService) timestamp() model.Timestamp {
	return model.TimestampFromTime(s.now())
}

// SaveMovie 收藏电影，返回记录 ID；不检查是否已收藏
func (s *LibraryService) SaveMovie(ctx context.Context, movie *model.Movie) (string, error) {
	sess, ok := s.session(ctx)
	if !ok || movie == nil {
		return "", nil
	}
	rec := &model.SavedMovieRecord{
		MovieID:     movie.ID,
		MovieTitle:  movie.Title,
		MoviePoster: movie.Poster(),
		Overview:    movie.Overview,
		ReleaseDate: movie.ReleaseDate,
		VoteAverage: movie.VoteAverage,
		SavedAt:     s.timestamp(),
		UserID:      sess.UserID,
	}
	id, err := s.saved.Create(ctx, rec)
	if err != nil {
		s.log.Error("收藏失败", zap.Int("movie_id", movie.ID), zap.String("user_id", sess.UserID), zap.Error(err))
		return "", wrapError("saveMovie", ErrUpstream, err)
	}
	return id, nil
}

// IsSaved 是否已收藏
func (s *LibraryService) IsSaved(ctx context.Context, movieID int) (bool, error) {
	sess, ok := s.session(ctx)
	if !ok {
		return false, nil
	}
	exists, err := s.saved.ExistsByUserAndMovie(ctx, sess.UserID, movieID)
	if err != nil {
		return false, wrapError("isSaved", ErrUpstream, err)
	}
	return exists, nil
}

// ListSaved 我的收藏，按收藏时间倒序
func (s *LibraryService) ListSaved(ctx context.Context) ([]model.SavedMovie, error) {
	sess, ok := s.session(ctx)
	if !ok {
		return []model.SavedMovie{}, nil
	}
	recs, err := s.saved.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, wrapError("listSaved", ErrUpstream, err)
	}
	out := make([]model.SavedMovie, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ToSavedMovie())
	}
	return out, nil
}

// Unsave 取消收藏（删除该电影的所有收藏记录）
func (s *LibraryService) Unsave(ctx context.Context, movieID int) error {
	sess, ok := s.session(ctx)
	if !ok {
		return nil
	}
	recs, err := s.saved.FindByUserAndMovie(ctx, sess.UserID, movieID)
	if err != nil {
		return wrapError("unsave", ErrUpstream, err)
	}
	for _, r := range recs {
		if err := s.saved.Delete(ctx, r.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return wrapError("unsave", ErrUpstream, err)
		}
	}
	return nil
}

// MyReview 当前用户对某部电影的影评，没有时返回 nil
func (s *LibraryService) MyReview(ctx context.Context, movieID int) (*model.Review, error) {
	sess, ok := s.session(ctx)
	if !ok {
		return nil, nil
	}
	recs, err := s.reviews.FindByUserAndMovie(ctx, sess.UserID, movieID)
	if err != nil {
		return nil, wrapError("myReview", ErrUpstream, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	review := recs[0].ToReview()
	return &review, nil
}

// SubmitReview 新增或修改影评：已存在时只更新评分、内容和修改时间
func (s *LibraryService) SubmitReview(ctx context.Context, in ReviewInput) error {
	sess, ok := s.session(ctx)
	if !ok {
		return nil
	}
	existing, err := s.reviews.FindByUserAndMovie(ctx, sess.UserID, in.MovieID)
	if err != nil {
		return wrapError("submitReview", ErrUpstream, err)
	}

	if len(existing) > 0 {
		err = s.reviews.Update(ctx, existing[0].ID, repository.ReviewPatch{
			Rating:    in.Rating,
			Review:    in.Review,
			UpdatedAt: s.timestamp(),
		})
		if err != nil {
			return wrapError("submitReview", ErrUpstream, err)
		}
		s.log.Info("影评已更新", zap.Int("movie_id", in.MovieID), zap.String("user_id", sess.UserID))
		return nil
	}

	_, err = s.reviews.Create(ctx, &model.ReviewRecord{
		MovieID:     in.MovieID,
		MovieTitle:  in.MovieTitle,
		MoviePoster: in.MoviePoster,
		Rating:      in.Rating,
		Review:      in.Review,
		CreatedAt:   s.timestamp(),
		UserID:      sess.UserID,
		UserName:    sess.Name(),
	})
	if err != nil {
		return wrapError("submitReview", ErrUpstream, err)
	}
	s.log.Info("影评已发布", zap.Int("movie_id", in.MovieID), zap.String("user_id", sess.UserID))
	return nil
}

// ReviewsForMovie 某部电影的全部影评，按发布时间倒序（未登录也可查看）
func (s *LibraryService) ReviewsForMovie(ctx context.Context, movieID int) ([]model.Review, error) {
	recs, err := s.reviews.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, wrapError("reviewsForMovie", ErrUpstream, err)
	}
	out := make([]model.Review, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ToReview())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MyReviews 当前用户的全部影评，按发布时间倒序
func (s *LibraryService) MyReviews(ctx context.Context) ([]model.Review, error) {
	sess, ok := s.session(ctx)
	if !ok {
		return []model.Review{}, nil
	}
	recs, err := s.reviews.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, wrapError("myReviews", ErrUpstream, err)
	}
	out := make([]model.Review, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ToReview())
	}
	return out, nil
}

// UpdateReview 按 ID 修改影评（不校验归属）
func (s *LibraryService) UpdateReview(ctx context.Context, id string, rating int, body string) error {
	if _, ok := s.session(ctx); !ok {
		return nil
	}
	err := s.reviews.Update(ctx, id, repository.ReviewPatch{
		Rating:    rating,
		Review:    body,
		UpdatedAt: s.timestamp(),
	})
	if errors.Is(err, repository.ErrNotFound) {
		return wrapError("updateReview", ErrNotFound, err)
	}
	if err != nil {
		return wrapError("updateReview", ErrUpstream, err)
	}
	return nil
}

// DeleteReview 按 ID 删除影评（不校验归属）
func (s *LibraryService) DeleteReview(ctx context.Context, id string) error {
	if _, ok := s.session(ctx); !ok {
		return nil
	}
	err := s.reviews.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return wrapError("deleteReview", ErrNotFound, err)
	}
	if err != nil {
		return wrapError("deleteReview", ErrUpstream, err)
	}
	return nil
}

// AverageRating 平均评分，保留一位小数；没有影评时为 0
func (s *LibraryService) AverageRating(ctx context.Context, movieID int) (float64, error) {
	reviews, err := s.ReviewsForMovie(ctx, movieID)
	if err != nil {
		return 0, err
	}
	return AverageOf(reviews), nil
}

// AverageOf 评分均值，保留一位小数
func AverageOf(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}
