package service

import (
	"context"
	"net/http"

	"gin-gorm-catalog/internal/core/session"
	"gin-gorm-catalog/internal/domain"
)

// SessionAuth 把密码登录绑定到服务端会话
type SessionAuth struct {
	auth     *AuthService
	sessions *session.Manager
}

func NewSessionAuth(a *AuthService, m *session.Manager) *SessionAuth {
	return &SessionAuth{auth: a, sessions: m}
}

func (a *SessionAuth) Sessions() *session.Manager { return a.sessions }

// Login 成功后更换会话 ID 并绑定用户；调用方负责 Save
func (a *SessionAuth) Login(ctx context.Context, s *session.Session, email, password string) (*domain.User, error) {
	u, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Renew(ctx, s); err != nil {
		return nil, err
	}
	s.SetUser(u.ID)
	return u, nil
}

func (a *SessionAuth) Logout(ctx context.Context, w http.ResponseWriter, s *session.Session) error {
	return a.sessions.Destroy(ctx, w, s)
}

// CurrentUser 返回 nil 表示匿名
func (a *SessionAuth) CurrentUser(ctx context.Context, s *session.Session) (*domain.User, error) {
	if s == nil {
		return nil, nil
	}
	return a.auth.CurrentUser(ctx, s.UserID())
}
