package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gin-gorm-catalog/internal/domain"
	resp "gin-gorm-catalog/internal/transport/http/response"
)

// UserHandler 接收已通过校验的用户，不再从上下文里取
type UserHandler func(c *gin.Context, u *domain.User)

// Check 是一个前置条件；返回 *Denial 时中断后续检查
type Check func(u *domain.User) error

type Denial struct {
	Category string
	Message  string
}

func (d *Denial) Error() string { return d.Message }

func LoggedIn(u *domain.User) error {
	if u == nil {
		return &Denial{Category: "info", Message: "Please log in to access this page."}
	}
	return nil
}

func HasRole(role domain.Role) Check {
	return func(u *domain.User) error {
		switch role {
		case domain.RoleAdmin:
			if u.IsAdmin() {
				return nil
			}
			return &Denial{Category: "danger", Message: "Admin access required."}
		case domain.RoleUser:
			if u != nil {
				return nil
			}
		}
		return &Denial{Category: "danger", Message: "Access denied."}
	}
}

type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (*domain.User, error)
}

type Gate struct {
	tokens    TokenVerifier
	log       *zap.Logger
	LoginPath string
}

func NewGate(tokens TokenVerifier, l *zap.Logger) *Gate {
	if l == nil {
		l = zap.NewNop()
	}
	return &Gate{tokens: tokens, log: l, LoginPath: "/login"}
}

// Session 依次执行 LoggedIn 和 checks，全部通过才调用 h
func (g *Gate) Session(h UserHandler, checks ...Check) gin.HandlerFunc {
	all := append([]Check{LoggedIn}, checks...)
	return func(c *gin.Context) {
		u := CurrentUser(c)
		for _, check := range all {
			if err := check(u); err != nil {
				g.deny(c, err)
				return
			}
		}
		h(c, u)
	}
}

func (g *Gate) Admin(h UserHandler) gin.HandlerFunc {
	return g.Session(h, HasRole(domain.RoleAdmin))
}

func (g *Gate) deny(c *gin.Context, err error) {
	var d *Denial
	if !errors.As(err, &d) {
		d = &Denial{Category: "danger", Message: err.Error()}
	}
	Flash(c, d.Category, d.Message)
	if e := SaveSession(c); e != nil {
		g.log.Warn("save session", zap.Error(e))
	}
	c.Redirect(http.StatusFound, g.LoginPath)
	c.Abort()
}

// Token 校验 Bearer 令牌；失败时返回 401 JSON 而不是跳转
func (g *Gate) Token(h UserHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := g.tokens.VerifyToken(c.Request.Context(), BearerToken(c.GetHeader("Authorization")))
		switch {
		case errors.Is(err, domain.ErrTokenMissing):
			resp.Abort(c, resp.CodeUnauthorized, domain.ErrTokenMissing.Error())
			return
		case errors.Is(err, domain.ErrTokenInvalid):
			resp.Abort(c, resp.CodeUnauthorized, domain.ErrTokenInvalid.Error())
			return
		case err != nil:
			g.log.Error("verify token", zap.Error(err))
			resp.Abort(c, resp.CodeServerError, "")
			return
		}
		c.Set(keyUID, u.ID)
		h(c, u)
	}
}

func BearerToken(header string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
