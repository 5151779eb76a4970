package model

import (
	"time"
)

// Timestamp 存储层时间戳（毫秒）
// 只在 repository 与 service 之间流转，不对外暴露
type Timestamp int64

// TimestampFromTime 转换为存储格式
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time 转换为 time.Time
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts))
}

// IsZero 是否未设置
func (ts Timestamp) IsZero() bool {
	return ts == 0
}

// SavedMovie 收藏的电影
type SavedMovie struct {
	ID          string    `json:"id"`
	MovieID     int       `json:"movieId"`
	MovieTitle  string    `json:"movieTitle"`
	MoviePoster string    `json:"moviePoster"`
	Overview    string    `json:"overview"`
	ReleaseDate string    `json:"releaseDate"`
	VoteAverage float64   `json:"voteAverage"`
	SavedAt     time.Time `json:"savedAt"`
	UserID      string    `json:"userId"`
}

// Review 影评
type Review struct {
	ID          string     `json:"id"`
	MovieID     int        `json:"movieId"`
	MovieTitle  string     `json:"movieTitle"`
	MoviePoster string     `json:"moviePoster"`
	Rating      int        `json:"rating"`
	Review      string     `json:"review"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	UserID      string     `json:"userId"`
	UserName    string     `json:"userName"`
}

// SavedMovieRecord savedMovies 集合中的文档
type SavedMovieRecord struct {
	ID          string    `gorm:"primaryKey;size:64"`
	MovieID     int       `gorm:"not null;index:idx_saved_user_movie"`
	MovieTitle  string    `gorm:"size:255"`
	MoviePoster string    `gorm:"size:512"`
	Overview    string    `gorm:"type:text"`
	ReleaseDate string    `gorm:"size:16"`
	VoteAverage float64   `gorm:"not null"`
	SavedAt     Timestamp `gorm:"not null;index"`
	UserID      string    `gorm:"size:64;index:idx_saved_user_movie"`
}

// TableName 表名
func (SavedMovieRecord) TableName() string {
	return "saved_movies"
}

// ReviewRecord movieReviews 集合中的文档
// UpdatedAt 为 0 表示从未修改
type ReviewRecord struct {
	ID          string    `gorm:"primaryKey;size:64"`
	MovieID     int       `gorm:"not null;index:idx_review_user_movie"`
	MovieTitle  string    `gorm:"size:255"`
	MoviePoster string    `gorm:"size:512"`
	Rating      int       `gorm:"not null"`
	Review      string    `gorm:"type:text"`
	CreatedAt   Timestamp `gorm:"autoCreateTime:false;not null;index"`
	UpdatedAt   Timestamp `gorm:"autoUpdateTime:false"`
	UserID      string    `gorm:"size:64;index:idx_review_user_movie"`
	UserName    string    `gorm:"size:255"`
}

// TableName 表名
func (ReviewRecord) TableName() string {
	return "movie_reviews"
}

// ToSavedMovie 存储文档 -> 领域对象
func (r *SavedMovieRecord) ToSavedMovie() SavedMovie {
	return SavedMovie{
		ID:          r.ID,
		MovieID:     r.MovieID,
		MovieTitle:  r.MovieTitle,
		MoviePoster: r.MoviePoster,
		Overview:    r.Overview,
		ReleaseDate: r.ReleaseDate,
		VoteAverage: r.VoteAverage,
		SavedAt:     r.SavedAt.Time(),
		UserID:      r.UserID,
	}
}

// ToReview 存储文档 -> 领域对象
func (r *ReviewRecord) ToReview() Review {
	review := Review{
		ID:          r.ID,
		MovieID:     r.MovieID,
		MovieTitle:  r.MovieTitle,
		MoviePoster: r.MoviePoster,
		Rating:      r.Rating,
		Review:      r.Review,
		CreatedAt:   r.CreatedAt.Time(),
		UserID:      r.UserID,
		UserName:    r.UserName,
	}
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt.Time()
		review.UpdatedAt = &t
	}
	return review
}
