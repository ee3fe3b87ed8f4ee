package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gin-gorm-catalog/internal/service"
	mdw "gin-gorm-catalog/internal/transport/http/middleware"
)

// Handler 页面处理器；会话与闪存消息在写响应前落库
type Handler struct {
	auth        *service.AuthService
	sessions    *service.SessionAuth
	products    *service.ProductService
	log         *zap.Logger
	allowedExts []string

	AdminPageSize int
}

func New(auth *service.AuthService, sessions *service.SessionAuth, products *service.ProductService, allowedExts []string, l *zap.Logger) *Handler {
	if l == nil {
		l = zap.NewNop()
	}
	return &Handler{
		auth:          auth,
		sessions:      sessions,
		products:      products,
		log:           l,
		allowedExts:   allowedExts,
		AdminPageSize: 20,
	}
}

func (h *Handler) saveSession(c *gin.Context) {
	if err := mdw.SaveSession(c); err != nil {
		h.log.Error("save session", zap.Error(err))
	}
}

func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["User"]; !ok {
		data["User"] = mdw.CurrentUser(c)
	}
	if s := mdw.SessionFrom(c); s != nil {
		data["Flashes"] = s.PopFlashes()
	}
	h.saveSession(c)
	c.HTML(status, name, data)
}

func (h *Handler) redirect(c *gin.Context, loc string) {
	h.saveSession(c)
	c.Redirect(http.StatusFound, loc)
}

func (h *Handler) fail(c *gin.Context, status int, title, msg string) {
	h.render(c, status, "error.html", gin.H{"Title": title, "Message": msg})
}

func (h *Handler) internal(c *gin.Context, err error) {
	_ = c.Error(err)
	h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	h.fail(c, http.StatusInternalServerError, "Something went wrong", "Please try again later.")
}

func (h *Handler) NotFound(c *gin.Context) {
	h.fail(c, http.StatusNotFound, "Not found", "The page you requested does not exist.")
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v > 0 {
		return v
	}
	return def
}
