package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"gin-gorm-catalog/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

var _ domain.ProductRepository = (*ProductRepo)(nil)

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

// '!' 作为 LIKE 转义符，各方言通用
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// List 按标题做大小写不敏感的子串匹配，按创建时间倒序；越界页返回空列表
func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter, page, size int) (domain.Page[domain.Product], error) {
	if size <= 0 {
		size = 6
	}
	page, offset := domain.Offset(page, size)

	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if s := strings.TrimSpace(f.Title); s != "" {
		// 两侧都在 SQL 中转小写：sqlite 的 LOWER 只折叠 ASCII，原样大小写的查询仍能命中
		like := "%" + likeEscaper.Replace(s) + "%"
		q = q.Where("LOWER(title) LIKE LOWER(?) ESCAPE '!'", like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return domain.Page[domain.Product]{}, fmt.Errorf("count products: %w", err)
	}
	var items []domain.Product
	if int64(offset) < total {
		if err := q.Order("created_at DESC").Order("id DESC").Limit(size).Offset(offset).Find(&items).Error; err != nil {
			return domain.Page[domain.Product]{}, fmt.Errorf("list products: %w", err)
		}
	}
	return domain.NewPage(items, page, size, total), nil
}

func (r *ProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Update 覆盖 title/description/price/image，created_at 不变；后写者覆盖
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{
			"title":       p.Title,
			"description": p.Description,
			"price":       p.Price,
			"image":       p.Image,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// mysql 对未变化的行返回 0，需再确认是否存在
		var n int64
		if err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", p.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
