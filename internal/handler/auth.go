package handler

import (
	"errors"
	"net/http"

	"github.com/Joellzt/movie-cards/internal/auth"
	"github.com/Joellzt/movie-cards/internal/middleware"
	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/Joellzt/movie-cards/internal/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRequest 注册
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"max=50"`
}

// LoginRequest 登录
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse 登录结果
type AuthResponse struct {
	User  *model.Session `json:"user"`
	Token string         `json:"token"`
}

// Register 注册处理
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}

	sess, token, err := h.Auth.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	h.startSession(c, sess, token)
	utils.Created(c, AuthResponse{User: sess, Token: token})
}

// Login 登录处理
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	sess, token, err := h.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	h.startSession(c, sess, token)
	utils.Success(c, AuthResponse{User: sess, Token: token})
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	if sess := middleware.GetSession(c); sess != nil {
		h.Auth.SignOut(c.Request.Context(), sess)
	}
	middleware.SetTokenCookie(c, "", -1)

	// 清理 Session
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		h.log.Warn("清理 session 失败", zap.Error(err))
	}
	utils.Success(c, nil)
}

// Me 当前用户
func (h *Handler) Me(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		utils.Unauthorized(c, "")
		return
	}
	utils.Success(c, gin.H{
		"userId":      sess.UserID,
		"email":       sess.Email,
		"displayName": sess.Name(),
	})
}

func (h *Handler) startSession(c *gin.Context, sess *model.Session, token string) {
	middleware.SetTokenCookie(c, token, int(h.Auth.Expiry().Seconds()))

	// 保存 UserInfo 到 Session
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, model.SessionUser{
		ID:       sess.UserID,
		Email:    sess.Email,
		Username: sess.DisplayName,
	})
	if err := session.Save(); err != nil {
		h.log.Warn("保存 session 失败", zap.Error(err))
	}
}

func (h *Handler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		utils.Unauthorized(c, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		utils.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
		utils.BadRequest(c, err.Error())
	default:
		h.respondError(c, err)
	}
}
