package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gin-gorm-catalog/internal/domain"
	httpez "gin-gorm-catalog/internal/transport/http/ez"
	mdw "gin-gorm-catalog/internal/transport/http/middleware"
)

type productOut struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type userOut struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func mountAPI(api *gin.RouterGroup, gate *mdw.Gate, d Deps) {
	ez := httpez.New(api, gate, d.Log)

	// --- POST /api/auth/login  邮箱密码换取 Bearer 令牌 ---
	type loginIn struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	type loginOut struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	httpez.RegisterAction(ez, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		// 请求体缺失或格式错误同样视为凭据无效
		BindError: func(error) error { return domain.ErrInvalidCredentials },
		Handler: func(c *gin.Context, _ *domain.User, in *loginIn) (loginOut, error) {
			u, err := d.Auth.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			tok, exp, err := d.Auth.IssueToken(u)
			if err != nil {
				return loginOut{}, httpez.Internal("issue token failed", err)
			}
			return loginOut{Token: tok, ExpiresAt: exp}, nil
		},
	})

	// --- GET /api/products?q=&page=  令牌鉴权的商品列表 ---
	type listQ struct {
		Q    string `form:"q"`
		Page string `form:"page"`
	}
	type listOut struct {
		Products []productOut `json:"products"`
		Page     int          `json:"page"`
		Pages    int          `json:"pages"`
		Total    int64        `json:"total"`
	}
	httpez.RegisterAction(ez, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/products",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, _ *domain.User, in *listQ) (listOut, error) {
			page := 1
			if n, err := strconv.Atoi(strings.TrimSpace(in.Page)); err == nil && n > 0 {
				page = n
			}
			p, err := d.Products.List(c.Request.Context(), in.Q, page)
			if err != nil {
				return listOut{}, httpez.Internal("list products failed", err)
			}
			out := listOut{Products: make([]productOut, 0, len(p.Items)), Page: p.Page, Pages: p.Pages(), Total: p.Total}
			for i := range p.Items {
				it := &p.Items[i]
				out.Products = append(out.Products, productOut{
					ID:          it.ID,
					Title:       it.Title,
					Description: it.Description,
					Price:       it.Price,
					ImageURL:    absURL(c, d.Products.ImageURL(it)),
					CreatedAt:   it.CreatedAt,
				})
			}
			return out, nil
		},
	})

	// --- GET /api/me  当前令牌对应的用户 ---
	httpez.RegisterAction(ez, httpez.Action[struct{}, userOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(_ *gin.Context, u *domain.User, _ *struct{}) (userOut, error) {
			return userOut{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}, nil
		},
	})
}

// absURL 把站内路径补全为带 scheme/host 的地址
func absURL(c *gin.Context, path *string) *string {
	if path == nil {
		return nil
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	u := scheme + "://" + c.Request.Host + *path
	return &u
}
