package auth

import (
	"context"

	"github.com/Joellzt/movie-cards/internal/model"
)

type sessionKey struct{}

// WithSession 把当前用户放进 context（由 HTTP 中间件调用）
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	if sess == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, sess)
}

// FromContext 取出当前用户
func FromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*model.Session)
	if !ok || sess == nil || sess.UserID == "" {
		return nil, false
	}
	return sess, true
}
