package middleware

import (
	"strings"

	"github.com/Joellzt/movie-cards/internal/auth"
	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/Joellzt/movie-cards/internal/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// TokenCookie JWT 所在的 Cookie
	TokenCookie = "token"
	// SessionUserKey Session 中保存用户信息的键
	SessionUserKey = "userinfo"
)

// Authenticator 校验 Token
type Authenticator interface {
	Authenticate(token string) (*model.Session, *auth.Claims, error)
	Refresh(sess *model.Session) (string, error)
}

// OptionalAuth 可选登录中间件：有合法 Token 时把用户放进请求 context
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, a)
		c.Next()
	}
}

// RequireAuth 必须登录中间件
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.FromContext(c.Request.Context()); !ok && !authenticate(c, a) {
			utils.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, a Authenticator) bool {
	sess, claims, err := a.Authenticate(extractToken(c))
	if err != nil {
		// 没有合法 Token 时退回到 Session
		if sess = sessionUser(c); sess == nil {
			return false
		}
		claims = nil
	}

	c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sess))
	c.Set("user_id", sess.UserID)

	// 滑动续期：有效期消耗超过一半时刷新
	if claims != nil && auth.ShouldRefresh(claims) {
		if newToken, err := a.Refresh(sess); err == nil {
			SetTokenCookie(c, newToken, int(claims.Lifetime().Seconds()))
		}
	}
	return true
}

// sessionUser 读取登录时写入 Session 的用户信息（未挂载 Session 中间件时返回 nil）
func sessionUser(c *gin.Context) *model.Session {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return nil
	}
	user, ok := sessions.Default(c).Get(SessionUserKey).(model.SessionUser)
	if !ok || user.ID == "" {
		return nil
	}
	return &model.Session{UserID: user.ID, Email: user.Email, DisplayName: user.Username}
}

// extractToken 优先从 Cookie 获取，其次是 Authorization Header
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// SetTokenCookie 写入 Token Cookie（maxAge < 0 时删除）
func SetTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetCookie(TokenCookie, token, maxAge, "/", "", false, true)
}

// GetSession 从上下文获取当前用户（未登录返回 nil）
func GetSession(c *gin.Context) *model.Session {
	sess, _ := auth.FromContext(c.Request.Context())
	return sess
}

// GetUserID 从上下文获取用户 ID（未登录返回空串）
func GetUserID(c *gin.Context) string {
	if sess := GetSession(c); sess != nil {
		return sess.UserID
	}
	return ""
}
