package repository

import (
	"context"

	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rec *model.ReviewRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (r *ReviewRepository) FindByUserAndMovie(ctx context.Context, userID string, movieID int) ([]*model.ReviewRecord, error) {
	var records []*model.ReviewRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Find(&records).Error
	return records, err
}

// ListByMovie 电影下所有用户的影评
// 不加 ORDER BY，排序交给调用方
func (r *ReviewRepository) ListByMovie(ctx context.Context, movieID int) ([]*model.ReviewRecord, error) {
	var records []*model.ReviewRecord
	err := r.db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Find(&records).Error
	return records, err
}

// ListByUser 用户的全部影评
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]*model.ReviewRecord, error) {
	var records []*model.ReviewRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// Update 更新评分、内容和修改时间
func (r *ReviewRepository) Update(ctx context.Context, id string, patch ReviewPatch) error {
	res := r.db.WithContext(ctx).Model(&model.ReviewRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating":     patch.Rating,
			"review":     patch.Review,
			"updated_at": patch.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ReviewRecord{}).Error
}
