package handler

import (
	"strings"

	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/Joellzt/movie-cards/internal/service"
	"github.com/Joellzt/movie-cards/internal/utils"
	"github.com/gin-gonic/gin"
)

// SaveMovieRequest 收藏请求（电影卡片）
type SaveMovieRequest struct {
	ID          int     `json:"id" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required"`
	Overview    string  `json:"overview"`
	PosterPath  *string `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average" validate:"gte=0,lte=10"`
}

// ReviewRequest 发布影评
type ReviewRequest struct {
	Rating      int    `json:"rating" validate:"required,min=1,max=10"`
	Review      string `json:"review" validate:"required,min=10"`
	MovieTitle  string `json:"movieTitle"`
	MoviePoster string `json:"moviePoster"`
}

// normalize 去掉首尾空白后再校验长度
func (r *ReviewRequest) normalize() {
	r.Review = strings.TrimSpace(r.Review)
}

// ListSaved 我的收藏（未登录返回空列表）
func (h *Handler) ListSaved(c *gin.Context) {
	list, err := h.Library.ListSaved(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, list)
}

// IsSaved 是否已收藏
func (h *Handler) IsSaved(c *gin.Context) {
	id, ok := movieIDParam(c, "movieId")
	if !ok {
		return
	}
	saved, err := h.Library.IsSaved(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"saved": saved})
}

// SaveMovie 收藏电影
func (h *Handler) SaveMovie(c *gin.Context) {
	var req SaveMovieRequest
	if !bindAndValidate(c, &req) {
		return
	}
	movie := &model.Movie{
		ID:          req.ID,
		Title:       req.Title,
		Overview:    req.Overview,
		PosterPath:  req.PosterPath,
		ReleaseDate: req.ReleaseDate,
		VoteAverage: req.VoteAverage,
	}
	id, err := h.Library.SaveMovie(c.Request.Context(), movie)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, gin.H{"id": id})
}

// Unsave 取消收藏
func (h *Handler) Unsave(c *gin.Context) {
	id, ok := movieIDParam(c, "movieId")
	if !ok {
		return
	}
	if err := h.Library.Unsave(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// MovieReviews 某部电影的全部影评
func (h *Handler) MovieReviews(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		return
	}
	reviews, err := h.Library.ReviewsForMovie(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"reviews":       reviews,
		"averageRating": service.AverageOf(reviews),
	})
}

// MyMovieReview 我对某部电影的影评（没有时 data 为 null）
func (h *Handler) MyMovieReview(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		return
	}
	review, err := h.Library.MyReview(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, review)
}

// SubmitReview 发布或修改影评
func (h *Handler) SubmitReview(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请求格式错误")
		return
	}
	req.normalize()
	if errs := utils.ValidateStruct(&req); errs != nil {
		utils.BadRequest(c, utils.FormatValidationErrors(errs))
		return
	}

	ctx := c.Request.Context()
	err := h.Library.SubmitReview(ctx, service.ReviewInput{
		MovieID:     id,
		MovieTitle:  req.MovieTitle,
		MoviePoster: req.MoviePoster,
		Rating:      req.Rating,
		Review:      req.Review,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	review, err := h.Library.MyReview(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, review)
}

// MyReviews 我的全部影评
func (h *Handler) MyReviews(c *gin.Context) {
	reviews, err := h.Library.MyReviews(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, reviews)
}

// UpdateReview 按 ID 修改影评
func (h *Handler) UpdateReview(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请求格式错误")
		return
	}
	req.normalize()
	if errs := utils.ValidateStruct(&req); errs != nil {
		utils.BadRequest(c, utils.FormatValidationErrors(errs))
		return
	}
	if err := h.Library.UpdateReview(c.Request.Context(), c.Param("id"), req.Rating, req.Review); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// DeleteReview 按 ID 删除影评
func (h *Handler) DeleteReview(c *gin.Context) {
	if err := h.Library.DeleteReview(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, nil)
}
