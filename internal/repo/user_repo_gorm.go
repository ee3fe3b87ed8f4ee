package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"gin-gorm-catalog/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

var _ domain.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// CreateFirstAdmin 在同一事务内计数并插入：空表时首个用户为 admin
func (r *UserRepo) CreateFirstAdmin(ctx context.Context, u *domain.User) error {
	_, err := r.insertCounted(ctx, u, false)
	return err
}

// CreateAdminIfEmpty 仅在表为空时插入 admin；已有用户时不写入并返回 false
func (r *UserRepo) CreateAdminIfEmpty(ctx context.Context, u *domain.User) (bool, error) {
	return r.insertCounted(ctx, u, true)
}

func (r *UserRepo) insertCounted(ctx context.Context, u *domain.User, onlyIfEmpty bool) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 && onlyIfEmpty {
			return nil
		}
		var dup int64
		if err := tx.Model(&domain.User{}).Where("email = ?", u.Email).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return domain.ErrDuplicateEmail
		}
		if n == 0 {
			u.Role = domain.RoleAdmin
		} else if u.Role == "" {
			u.Role = domain.RoleUser
		}
		if err := tx.Create(u).Error; err != nil {
			if isDupKey(err) {
				return domain.ErrDuplicateEmail
			}
			return err
		}
		created = true
		return nil
	}, countedTxOptions(r.db)...)
	if err != nil {
		return false, err
	}
	return created, nil
}

// countedTxOptions 计数后插入需要串行化；sqlite 已限制为单连接，且驱动不接受其他隔离级别
func countedTxOptions(db *gorm.DB) []*sql.TxOptions {
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var users []domain.User
	tx := r.db.WithContext(ctx).Model(&domain.User{}).Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	if err := tx.Offset(offset).Limit(limit).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
