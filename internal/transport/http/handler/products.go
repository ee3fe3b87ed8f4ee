package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gin-gorm-catalog/internal/domain"
	"gin-gorm-catalog/internal/service"
	mdw "gin-gorm-catalog/internal/transport/http/middleware"
)

type productView struct {
	domain.Product
	ImageURL string
}

func (h *Handler) view(p *domain.Product) productView {
	v := productView{Product: *p}
	if u := h.products.ImageURL(p); u != nil {
		v.ImageURL = *u
	}
	return v
}

func (h *Handler) ListProducts(c *gin.Context, u *domain.User) {
	q := c.Query("q")
	page, err := h.products.List(c.Request.Context(), q, atoiDefault(c.Query("page"), 1))
	if err != nil {
		h.internal(c, err)
		return
	}
	items := make([]productView, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, h.view(&page.Items[i]))
	}
	h.render(c, http.StatusOK, "products.html", gin.H{
		"Title": "Products", "User": u, "Q": q, "Items": items, "Page": page,
	})
}

func (h *Handler) AddProductForm(c *gin.Context, u *domain.User) {
	h.renderForm(c, http.StatusOK, u, "Add product", "/products/add", gin.H{}, "")
}

func (h *Handler) AddProduct(c *gin.Context, u *domain.User) {
	in, ok := h.bindProduct(c, u, "Add product", "/products/add", "")
	if !ok {
		return
	}
	_, err := h.products.Create(c.Request.Context(), in)
	if err != nil {
		h.productError(c, u, err, "Add product", "/products/add", in, "")
		return
	}
	mdw.Flash(c, "success", "Product added.")
	h.redirect(c, "/products")
}

func (h *Handler) EditProductForm(c *gin.Context, u *domain.User) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.internal(c, err)
		return
	}
	v := h.view(p)
	h.renderForm(c, http.StatusOK, u, "Edit product", "/products/edit/"+p.ID, gin.H{
		"Title":       p.Title,
		"Description": p.Description,
		"Price":       strconv.FormatFloat(p.Price, 'f', -1, 64),
	}, v.ImageURL)
}

func (h *Handler) EditProduct(c *gin.Context, u *domain.User) {
	id := c.Param("id")
	action := "/products/edit/" + id
	in, ok := h.bindProduct(c, u, "Edit product", action, "")
	if !ok {
		return
	}
	_, err := h.products.Update(c.Request.Context(), id, in)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.NotFound(c)
			return
		}
		var cur string
		if p, e := h.products.Get(c.Request.Context(), id); e == nil {
			cur = h.view(p).ImageURL
		}
		h.productError(c, u, err, "Edit product", action, in, cur)
		return
	}
	mdw.Flash(c, "success", "Product updated.")
	h.redirect(c, "/products")
}

func (h *Handler) DeleteProduct(c *gin.Context, _ *domain.User) {
	err := h.products.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.internal(c, err)
		return
	}
	mdw.Flash(c, "success", "Product deleted.")
	h.redirect(c, "/products")
}

// Image 只按生成的文件名读取；文件缺失时返回 404 页面
func (h *Handler) Image(c *gin.Context) {
	name := c.Param("name")
	rc, err := h.products.OpenImage(c.Request.Context(), name)
	if err != nil {
		h.fail(c, http.StatusNotFound, "Image unavailable", "image unavailable")
		return
	}
	defer rc.Close()
	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, -1, ctype, rc, nil)
}

// bindProduct 读取表单和可选图片；未选择文件时 Image 为 nil
func (h *Handler) bindProduct(c *gin.Context, u *domain.User, title, action, imageURL string) (service.ProductInput, bool) {
	in := service.ProductInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
	}
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		in.Image = fh
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case mdw.IsTooLarge(err):
		mdw.Flash(c, "danger", "The uploaded file is too large.")
		h.renderForm(c, http.StatusRequestEntityTooLarge, u, title, action, formOf(in), imageURL)
		return in, false
	default:
		mdw.Flash(c, "danger", "Could not read the submitted form.")
		h.renderForm(c, http.StatusBadRequest, u, title, action, formOf(in), imageURL)
		return in, false
	}
	return in, true
}

func (h *Handler) productError(c *gin.Context, u *domain.User, err error, title, action string, in service.ProductInput, imageURL string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		mdw.Flash(c, "danger", "Title is required.")
	case errors.Is(err, domain.ErrUnsupportedFileType):
		mdw.Flash(c, "danger", fmt.Sprintf("File type not allowed. Allowed types: %s.", strings.Join(h.allowedExts, ", ")))
	default:
		h.internal(c, err)
		return
	}
	h.renderForm(c, http.StatusBadRequest, u, title, action, formOf(in), imageURL)
}

func (h *Handler) renderForm(c *gin.Context, status int, u *domain.User, title, action string, form gin.H, imageURL string) {
	h.render(c, status, "product_form.html", gin.H{
		"Title": title, "User": u, "Action": action, "Form": form, "ImageURL": imageURL,
	})
}

func formOf(in service.ProductInput) gin.H {
	return gin.H{"Title": in.Title, "Description": in.Description, "Price": in.Price}
}
