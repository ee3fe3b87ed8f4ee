package repo

import (
	"context"
	"time"

	"gin-gorm-catalog/internal/core/cache"
	"gin-gorm-catalog/internal/domain"
)

// CachedUserRepo 缓存按 ID 查询的用户，供每个请求的会话/令牌解析使用。
// 缓存的数据不含密码哈希，登录仍走 FindByEmail 直连数据库。
type CachedUserRepo struct {
	domain.UserRepository
	c   *cache.Cache
	ttl time.Duration
}

func NewCachedUserRepo(inner domain.UserRepository, c *cache.Cache, ttl time.Duration) *CachedUserRepo {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedUserRepo{UserRepository: inner, c: c, ttl: ttl}
}

func (r *CachedUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return cache.GetOrLoadJSON(r.c, ctx, "user:"+id, r.ttl, func(ctx context.Context) (*domain.User, error) {
		return r.UserRepository.FindByID(ctx, id)
	})
}
