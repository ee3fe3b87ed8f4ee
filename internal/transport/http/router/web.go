package router

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gin-gorm-catalog/internal/transport/http/handler"
	mdw "gin-gorm-catalog/internal/transport/http/middleware"
)

// mountWeb 挂载页面路由；会话只在页面分组上加载
func mountWeb(r *gin.Engine, gate *mdw.Gate, h *handler.Handler, d Deps) {
	web := r.Group("", mdw.Sessions(d.Sessions.Sessions(), d.Sessions, d.Log))

	web.GET("/", h.Index)
	web.GET("/register", h.RegisterForm)
	web.POST("/register", h.Register)
	web.GET("/login", h.LoginForm)
	web.POST("/login", h.Login)
	web.GET("/logout", gate.Session(h.Logout))
	web.GET("/dashboard", gate.Session(h.Dashboard))

	web.GET("/products", gate.Session(h.ListProducts))
	web.GET("/products/add", gate.Session(h.AddProductForm))
	web.POST("/products/add", gate.Session(h.AddProduct))
	web.GET("/products/edit/:id", gate.Session(h.EditProductForm))
	web.POST("/products/edit/:id", gate.Session(h.EditProduct))
	web.POST("/products/delete/:id", gate.Session(h.DeleteProduct))

	web.GET("/admin", gate.Admin(h.Admin))

	prefix := "/" + strings.Trim(d.Upload.URLPrefix, "/")
	if prefix == "/" {
		prefix = "/uploads"
	}
	web.GET(prefix+"/:name", h.Image)
}
