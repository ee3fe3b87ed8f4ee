package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"gin-gorm-catalog/internal/core/upload"
	"gin-gorm-catalog/internal/domain"
	"gin-gorm-catalog/pkg/utils"
)

// ProductInput 对应新增/编辑表单；Image 为空表示未提交新图片
type ProductInput struct {
	Title       string
	Description string
	Price       string
	Image       *multipart.FileHeader
}

type ProductService struct {
	repo      domain.ProductRepository
	uploads   *upload.Uploader
	pageSize  int
	urlPrefix string
	log       *zap.Logger
	Now       func() time.Time
}

func NewProductService(repo domain.ProductRepository, uploads *upload.Uploader, pageSize int, urlPrefix string, log *zap.Logger) *ProductService {
	if pageSize <= 0 {
		pageSize = 6
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		repo:      repo,
		uploads:   uploads,
		pageSize:  pageSize,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		log:       log,
		Now:       time.Now,
	}
}

func (s *ProductService) PageSize() int { return s.pageSize }

func (s *ProductService) List(ctx context.Context, q string, page int) (domain.Page[domain.Product], error) {
	return s.repo.List(ctx, domain.ProductFilter{Title: strings.TrimSpace(q)}, page, s.pageSize)
}

func (s *ProductService) Count(ctx context.Context) (int64, error) {
	p, err := s.repo.List(ctx, domain.ProductFilter{}, 1, 1)
	if err != nil {
		return 0, err
	}
	return p.Total, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 先保存图片再写库；写库失败时回收刚保存的文件
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("title", "is required")
	}
	p := &domain.Product{
		ID:          utils.NewID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Price:       ParsePrice(in.Price),
		CreatedAt:   s.Now().UTC(),
	}
	if in.Image != nil {
		name, err := s.uploads.Accept(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		p.Image = name
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if p.Image != "" {
			s.removeImage(ctx, p.Image)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update 总是覆盖标题/描述/价格；只有提交了新图片才替换并删除旧文件
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("title", "is required")
	}

	old := p.Image
	var fresh string
	if in.Image != nil {
		fresh, err = s.uploads.Accept(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		p.Image = fresh
	}
	p.Title = title
	p.Description = strings.TrimSpace(in.Description)
	p.Price = ParsePrice(in.Price)

	if err := s.repo.Update(ctx, p); err != nil {
		if fresh != "" {
			s.removeImage(ctx, fresh)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	if fresh != "" && old != "" {
		s.removeImage(ctx, old)
	}
	return p, nil
}

// Delete 删除记录后尽力删除图片文件
func (s *ProductService) Delete(ctx context.Context, id string) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if p.Image != "" {
		s.removeImage(ctx, p.Image)
	}
	return nil
}

// ImageURL 返回图片的公开地址；没有图片时为 nil
func (s *ProductService) ImageURL(p *domain.Product) *string {
	if p == nil || p.Image == "" {
		return nil
	}
	u := s.urlPrefix + "/" + p.Image
	return &u
}

func (s *ProductService) OpenImage(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := upload.CheckName(name); err != nil {
		return nil, err
	}
	return s.uploads.Store().Open(ctx, name)
}

func (s *ProductService) removeImage(ctx context.Context, name string) {
	if err := s.uploads.Store().Remove(ctx, name); err != nil {
		uploadCleanupFailures.Inc()
		s.log.Warn("remove image failed", zap.String("image", name), zap.Error(err))
	}
}

// ParsePrice 宽松解析：空值、非数字、负数、NaN/Inf 都按 0 处理
func ParsePrice(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
