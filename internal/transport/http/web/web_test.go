package web

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gin-gorm-catalog/internal/core/session"
	"gin-gorm-catalog/internal/domain"
)

func TestTemplates_RenderPages(t *testing.T) {
	tpl, err := Templates()
	require.NoError(t, err)

	admin := &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}
	type item struct {
		domain.Product
		ImageURL string
	}
	items := []item{{
		Product:  domain.Product{ID: "p1", Title: "Chair <b>", Price: 49.99, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		ImageURL: "/uploads/1_chair.png",
	}}

	pages := map[string]map[string]any{
		"index.html":     {"Title": "Home"},
		"login.html":     {"Title": "Log in", "Flashes": []session.Flash{{Category: "danger", Message: "Invalid email or password."}}},
		"register.html":  {"Title": "Register", "Form": map[string]string{"Name": "n", "Email": "e"}},
		"dashboard.html": {"Title": "Dashboard", "User": admin, "ProductTotal": int64(3)},
		"products.html": {
			"Title": "Products", "User": admin, "Q": "cha", "Items": items,
			"Page": domain.NewPage(items, 1, 1, 2),
		},
		"product_form.html": {"Title": "Edit product", "User": admin, "Action": "/products/edit/p1", "Form": map[string]string{"Title": "Chair"}},
		"admin.html":        {"Title": "Admin", "User": admin, "Users": domain.NewPage([]domain.User{*admin}, 1, 20, 1)},
		"error.html":        {"Title": "Not found", "Message": "image unavailable"},
	}
	for name, data := range pages {
		var buf bytes.Buffer
		require.NoError(t, tpl.ExecuteTemplate(&buf, name, data), name)
		assert.Contains(t, buf.String(), "</html>", name)
	}

	var buf bytes.Buffer
	require.NoError(t, tpl.ExecuteTemplate(&buf, "products.html", pages["products.html"]))
	out := buf.String()
	assert.Contains(t, out, "Chair &lt;b&gt;")
	assert.Contains(t, out, "49.99")
	assert.Contains(t, out, `/products?page=2&amp;q=cha`)
	assert.Contains(t, out, `href="/admin"`)
}
