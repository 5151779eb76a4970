package repository

import (
	"context"

	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SavedMovieRepository struct {
	db *gorm.DB
}

func NewSavedMovieRepository(db *gorm.DB) *SavedMovieRepository {
	return &SavedMovieRepository{db: db}
}

// Create 添加收藏（不做去重，由调用方先查询）
func (r *SavedMovieRepository) Create(ctx context.Context, rec *model.SavedMovieRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", err
	}
	return rec.ID, nil
}

// ExistsByUserAndMovie 检查是否已收藏
func (r *SavedMovieRepository) ExistsByUserAndMovie(ctx context.Context, userID string, movieID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SavedMovieRecord{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error
	return count > 0, err
}

func (r *SavedMovieRepository) FindByUserAndMovie(ctx context.Context, userID string, movieID int) ([]*model.SavedMovieRecord, error) {
	var records []*model.SavedMovieRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Find(&records).Error
	return records, err
}

// ListByUser 获取用户收藏列表
func (r *SavedMovieRepository) ListByUser(ctx context.Context, userID string) ([]*model.SavedMovieRecord, error) {
	var records []*model.SavedMovieRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("saved_at DESC").
		Find(&records).Error
	return records, err
}

// Delete 按 ID 删除，不存在时不报错
func (r *SavedMovieRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SavedMovieRecord{}).Error
}
