package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gin-gorm-catalog/internal/core/session"
	"gin-gorm-catalog/internal/domain"
)

const (
	keySession = "session"
	keyManager = "session.manager"
	keyUser    = "user"
)

type UserResolver interface {
	CurrentUser(ctx context.Context, s *session.Session) (*domain.User, error)
}

// Sessions 加载会话并解析当前用户；匿名请求不会写 cookie
func Sessions(m *session.Manager, users UserResolver, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		s, err := m.Load(ctx, c.Request)
		if err != nil {
			l.Warn("session load failed", zap.Error(err))
		}
		c.Set(keyManager, m)
		c.Set(keySession, s)

		if s.UserID() != "" {
			u, err := users.CurrentUser(ctx, s)
			switch {
			case err != nil:
				l.Error("resolve session user", zap.String("user_id", s.UserID()), zap.Error(err))
			case u != nil:
				c.Set(keyUser, u)
			}
		}
		c.Next()
	}
}

func SessionFrom(c *gin.Context) *session.Session {
	if v, ok := c.Get(keySession); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// CurrentUser 返回 nil 表示匿名
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(keyUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func Flash(c *gin.Context, category, msg string) {
	if s := SessionFrom(c); s != nil {
		s.AddFlash(category, msg)
	}
}

// SaveSession 必须在写响应体之前调用
func SaveSession(c *gin.Context) error {
	s := SessionFrom(c)
	v, ok := c.Get(keyManager)
	if s == nil || !ok {
		return nil
	}
	return v.(*session.Manager).Save(c.Request.Context(), c.Writer, s)
}
