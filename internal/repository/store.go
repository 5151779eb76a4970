package repository

import (
	"context"
	"errors"

	"github.com/Joellzt/movie-cards/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// ErrDuplicate 唯一键冲突
var ErrDuplicate = errors.New("duplicate record")

// SavedMovieStore savedMovies 集合
type SavedMovieStore interface {
	Create(ctx context.Context, rec *model.SavedMovieRecord) (string, error)
	ExistsByUserAndMovie(ctx context.Context, userID string, movieID int) (bool, error)
	FindByUserAndMovie(ctx context.Context, userID string, movieID int) ([]*model.SavedMovieRecord, error)
	// ListByUser 按 savedAt 倒序
	ListByUser(ctx context.Context, userID string) ([]*model.SavedMovieRecord, error)
	Delete(ctx context.Context, id string) error
}

// ReviewPatch 影评局部更新
type ReviewPatch struct {
	Rating    int
	Review    string
	UpdatedAt model.Timestamp
}

// ReviewStore movieReviews 集合
type ReviewStore interface {
	Create(ctx context.Context, rec *model.ReviewRecord) (string, error)
	FindByUserAndMovie(ctx context.Context, userID string, movieID int) ([]*model.ReviewRecord, error)
	// ListByMovie 不保证顺序
	ListByMovie(ctx context.Context, movieID int) ([]*model.ReviewRecord, error)
	// ListByUser 按 createdAt 倒序
	ListByUser(ctx context.Context, userID string) ([]*model.ReviewRecord, error)
	Update(ctx context.Context, id string, patch ReviewPatch) error
	Delete(ctx context.Context, id string) error
}

// UserStore 用户
type UserStore interface {
	Create(ctx context.Context, email, username, password string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	CheckPassword(user *model.User, password string) bool
}
