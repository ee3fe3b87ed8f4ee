package domain

import (
	"context"
	"time"
)

type Product struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"not null;default:0" json:"price"`
	Image       string    `gorm:"size:255" json:"image,omitempty"`
	CreatedAt   time.Time `gorm:"index;<-:create" json:"createdAt"`
}

func (Product) TableName() string { return "products" }

type ProductFilter struct {
	Title string
}

type ProductRepository interface {
	List(ctx context.Context, f ProductFilter, page, size int) (Page[Product], error)
	FindByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
