package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gin-gorm-catalog/internal/domain"
	"gin-gorm-catalog/internal/service"
	mdw "gin-gorm-catalog/internal/transport/http/middleware"
)

func (h *Handler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, "index.html", gin.H{"Title": "Home"})
}

func (h *Handler) RegisterForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", gin.H{"Title": "Register", "Form": gin.H{}})
}

func (h *Handler) Register(c *gin.Context) {
	in := service.RegisterInput{
		Name:     c.PostForm("name"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	}
	_, err := h.auth.Register(c.Request.Context(), in)
	var ve *domain.ValidationError
	switch {
	case err == nil:
		mdw.Flash(c, "success", "Registration successful. Please log in.")
		h.redirect(c, "/login")
		return
	case errors.As(err, &ve):
		mdw.Flash(c, "danger", "Please fill in all fields.")
		h.rerenderRegister(c, http.StatusBadRequest, in)
	case errors.Is(err, domain.ErrDuplicateEmail):
		mdw.Flash(c, "danger", "Email already registered.")
		h.rerenderRegister(c, http.StatusConflict, in)
	default:
		h.internal(c, err)
	}
}

func (h *Handler) rerenderRegister(c *gin.Context, status int, in service.RegisterInput) {
	h.render(c, status, "register.html", gin.H{
		"Title": "Register",
		"Form":  gin.H{"Name": in.Name, "Email": in.Email},
	})
}

func (h *Handler) LoginForm(c *gin.Context) {
	if mdw.CurrentUser(c) != nil {
		h.redirect(c, "/dashboard")
		return
	}
	h.render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in"})
}

func (h *Handler) Login(c *gin.Context) {
	email := c.PostForm("email")
	_, err := h.sessions.Login(c.Request.Context(), mdw.SessionFrom(c), email, c.PostForm("password"))
	switch {
	case err == nil:
		mdw.Flash(c, "success", "Logged in successfully.")
		h.redirect(c, "/dashboard")
	case errors.Is(err, domain.ErrInvalidCredentials):
		mdw.Flash(c, "danger", "Invalid email or password.")
		h.render(c, http.StatusUnauthorized, "login.html", gin.H{"Title": "Log in", "Email": email})
	default:
		h.internal(c, err)
	}
}

func (h *Handler) Logout(c *gin.Context, _ *domain.User) {
	s := mdw.SessionFrom(c)
	if err := h.sessions.Logout(c.Request.Context(), c.Writer, s); err != nil {
		// 服务端会话删除失败时 cookie 已失效，仍视为登出
		h.log.Warn("destroy session", zap.Error(err))
	}
	mdw.Flash(c, "info", "You have been logged out.")
	h.redirect(c, "/login")
}

func (h *Handler) Dashboard(c *gin.Context, u *domain.User) {
	total, err := h.products.Count(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	h.render(c, http.StatusOK, "dashboard.html", gin.H{"Title": "Dashboard", "User": u, "ProductTotal": total})
}

func (h *Handler) Admin(c *gin.Context, u *domain.User) {
	users, err := h.auth.ListUsers(c.Request.Context(), atoiDefault(c.Query("page"), 1), h.AdminPageSize)
	if err != nil {
		h.internal(c, err)
		return
	}
	h.render(c, http.StatusOK, "admin.html", gin.H{"Title": "Admin", "User": u, "Users": users})
}
