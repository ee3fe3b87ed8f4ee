package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gin-gorm-catalog/internal/core/auth"
	"gin-gorm-catalog/internal/domain"
	"gin-gorm-catalog/pkg/utils"
)

type AuthService struct {
	users domain.UserRepository
	jwt   *auth.JWTer
	log   *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users domain.UserRepository, jwt *auth.JWTer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, jwt: jwt, log: log}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register 创建用户；系统中的第一个用户自动成为 admin
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	u, err := newUser(in)
	if err != nil {
		return nil, err
	}
	if err := s.users.CreateFirstAdmin(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func newUser(in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	switch {
	case name == "":
		return nil, domain.Invalid("name", "is required")
	case email == "":
		return nil, domain.Invalid("email", "is required")
	case in.Password == "":
		return nil, domain.Invalid("password", "is required")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &domain.User{
		ID:           utils.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}, nil
}

// Login 校验邮箱和密码；不区分“用户不存在”和“密码错误”
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		// 仍做一次哈希比较，使响应时间与密码错误时一致
		utils.CheckPassword(password, s.dummy())
		loginTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		loginTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	loginTotal.WithLabelValues("ok").Inc()
	return u, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword("dummy-password")
	})
	return s.dummyHash
}

// CurrentUser 解析会话中的用户 ID；匿名或用户已不存在时返回 nil
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, nil
	}
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) IssueToken(u *domain.User) (string, time.Time, error) {
	return s.jwt.Issue(u.ID)
}

// VerifyToken 无状态校验签名和过期时间，最后按 user_id 查回用户
func (s *AuthService) VerifyToken(ctx context.Context, raw string) (*domain.User, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrTokenMissing
	}
	claims, err := s.jwt.Parse(raw)
	if err != nil {
		tokenTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		tokenTotal.WithLabelValues("unknown_user").Inc()
		return nil, domain.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	tokenTotal.WithLabelValues("ok").Inc()
	return u, nil
}

func (s *AuthService) ListUsers(ctx context.Context, page, size int) (domain.Page[domain.User], error) {
	page, offset := domain.Offset(page, size)
	users, total, err := s.users.List(ctx, offset, size)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	return domain.NewPage(users, page, size, total), nil
}

func (s *AuthService) CountUsers(ctx context.Context) (int64, error) { return s.users.Count(ctx) }

// Bootstrap 仅在没有任何用户时创建管理员；计数与插入在同一事务内
func (s *AuthService) Bootstrap(ctx context.Context, in RegisterInput) (*domain.User, bool, error) {
	u, err := newUser(in)
	if err != nil {
		return nil, false, err
	}
	created, err := s.users.CreateAdminIfEmpty(ctx, u)
	if err != nil || !created {
		return nil, false, err
	}
	s.log.Info("admin bootstrapped", zap.String("user_id", u.ID))
	return u, true, nil
}
