package repo

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gin-gorm-catalog/internal/core/database"
	"gin-gorm-catalog/internal/domain"
	"gin-gorm-catalog/pkg/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newUser(email string) *domain.User {
	return &domain.User{ID: utils.NewID(), Email: email, Name: "n", PasswordHash: "h"}
}

func TestUserRepo_FirstUserBecomesAdmin(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))

	a := newUser("a@example.com")
	require.NoError(t, r.CreateFirstAdmin(ctx, a))
	assert.Equal(t, domain.RoleAdmin, a.Role)

	b := newUser("b@example.com")
	require.NoError(t, r.CreateFirstAdmin(ctx, b))
	assert.Equal(t, domain.RoleUser, b.Role)

	got, err := r.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))
	require.NoError(t, r.CreateFirstAdmin(ctx, newUser("a@example.com")))

	err := r.CreateFirstAdmin(ctx, newUser("a@example.com"))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	err = r.Create(ctx, newUser("a@example.com"))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserRepo_CreateAdminIfEmpty(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))

	a := newUser("a@example.com")
	created, err := r.CreateAdminIfEmpty(ctx, a)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleAdmin, a.Role)

	created, err = r.CreateAdminIfEmpty(ctx, newUser("b@example.com"))
	require.NoError(t, err)
	assert.False(t, created)
	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserRepo_ConcurrentFirstRegistrationsOneAdmin(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.CreateFirstAdmin(ctx, newUser(fmt.Sprintf("c%d@example.com", i)))
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	users, total, err := r.List(ctx, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 8, total)
	admins := 0
	for _, u := range users {
		if u.IsAdmin() {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestUserRepo_FindMissing(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))
	_, err := r.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.FindByEmail(ctx, "nope@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_List(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))
	for i := 0; i < 3; i++ {
		require.NoError(t, r.CreateFirstAdmin(ctx, newUser(fmt.Sprintf("u%d@example.com", i))))
	}
	users, total, err := r.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 2)
}

func seedProducts(t *testing.T, r *ProductRepo, titles ...string) []*domain.Product {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []*domain.Product
	for i, title := range titles {
		p := &domain.Product{ID: utils.NewID(), Title: title, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, r.Create(context.Background(), p))
		out = append(out, p)
	}
	return out
}

func TestProductRepo_ListNewestFirst(t *testing.T) {
	r := NewProductRepo(newTestDB(t))
	seedProducts(t, r, "one", "two", "three")

	page, err := r.List(context.Background(), domain.ProductFilter{}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages())
	require.Len(t, page.Items, 2)
	assert.Equal(t, "three", page.Items[0].Title)
	assert.Equal(t, "two", page.Items[1].Title)

	page, err = r.List(context.Background(), domain.ProductFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "one", page.Items[0].Title)
}

func TestProductRepo_PageBeyondLast(t *testing.T) {
	r := NewProductRepo(newTestDB(t))
	seedProducts(t, r, "one", "two", "three")

	page, err := r.List(context.Background(), domain.ProductFilter{}, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages())
	assert.Equal(t, 9, page.Page)
}

func TestProductRepo_HugePageIsEmpty(t *testing.T) {
	r := NewProductRepo(newTestDB(t))
	seedProducts(t, r, "one", "two", "three")

	page, err := r.List(context.Background(), domain.ProductFilter{}, math.MaxInt, 6)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 3, page.Total)
	assert.False(t, page.HasNext())
}

func TestProductRepo_TitleFilterCaseInsensitive(t *testing.T) {
	r := NewProductRepo(newTestDB(t))
	seedProducts(t, r, "Blue Widget", "Red Gadget", "100% cotton", "snake_case")

	for _, q := range []string{"blue", "WIDGET", "e wi"} {
		page, err := r.List(context.Background(), domain.ProductFilter{Title: q}, 1, 6)
		require.NoError(t, err)
		require.Len(t, page.Items, 1, q)
		assert.Equal(t, "Blue Widget", page.Items[0].Title)
	}

	page, err := r.List(context.Background(), domain.ProductFilter{Title: "%"}, 1, 6)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "100% cotton", page.Items[0].Title)

	page, err = r.List(context.Background(), domain.ProductFilter{Title: "_"}, 1, 6)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "snake_case", page.Items[0].Title)

	// 非 ASCII 标题：按原样大小写查询必须命中
	seedProducts(t, r, "Ärger Stuhl")
	for _, q := range []string{"Ärger", "Ärger Stuhl", "STUHL"} {
		page, err = r.List(context.Background(), domain.ProductFilter{Title: q}, 1, 6)
		require.NoError(t, err)
		require.Len(t, page.Items, 1, q)
		assert.Equal(t, "Ärger Stuhl", page.Items[0].Title)
	}
}

func TestProductRepo_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	r := NewProductRepo(newTestDB(t))
	p := seedProducts(t, r, "Chair")[0]

	upd := *p
	upd.Price = 59.99
	upd.CreatedAt = time.Now()
	require.NoError(t, r.Update(ctx, &upd))

	got, err := r.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 59.99, got.Price)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))

	// 无变化的更新仍然成功
	require.NoError(t, r.Update(ctx, got))

	missing := domain.Product{ID: "missing", Title: "x"}
	assert.ErrorIs(t, r.Update(ctx, &missing), domain.ErrNotFound)
}

func TestProductRepo_Delete(t *testing.T) {
	ctx := context.Background()
	r := NewProductRepo(newTestDB(t))
	p := seedProducts(t, r, "Chair")[0]

	require.NoError(t, r.Delete(ctx, p.ID))
	_, err := r.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, p.ID), domain.ErrNotFound)
}
