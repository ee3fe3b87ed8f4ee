package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gin-gorm-catalog/internal/domain"
	mdw "gin-gorm-catalog/internal/transport/http/middleware"
	resp "gin-gorm-catalog/internal/transport/http/response"
)

// EZ 在分组上注册 JSON 动作；需要鉴权的动作走 Token 网关
type EZ struct {
	g    *gin.RouterGroup
	gate *mdw.Gate
	log  *zap.Logger
}

func New(g *gin.RouterGroup, gate *mdw.Gate, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, gate: gate, log: l}
}

type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 统一错误对象，Code 同时作为 HTTP 状态码
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// FromError 把领域错误映射为 AErr；未知错误归为 500
func FromError(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return &AErr{Code: resp.CodeBadRequest, Msg: ve.Error(), Err: err}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return &AErr{Code: resp.CodeUnauthorized, Msg: domain.ErrInvalidCredentials.Error(), Err: err}
	case errors.Is(err, domain.ErrTokenMissing):
		return &AErr{Code: resp.CodeUnauthorized, Msg: domain.ErrTokenMissing.Error(), Err: err}
	case errors.Is(err, domain.ErrTokenInvalid):
		return &AErr{Code: resp.CodeUnauthorized, Msg: domain.ErrTokenInvalid.Error(), Err: err}
	case errors.Is(err, domain.ErrNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: "not found", Err: err}
	case errors.Is(err, domain.ErrDuplicateEmail):
		return &AErr{Code: resp.CodeConflict, Msg: domain.ErrDuplicateEmail.Error(), Err: err}
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return &AErr{Code: resp.CodeBadRequest, Msg: domain.ErrUnsupportedFileType.Error(), Err: err}
	}
	return &AErr{Code: resp.CodeServerError, Err: err}
}

// Action 动作定义：I 入参，O 出参。Auth 为 true 时 Handler 收到令牌解析出的用户
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool
	Handler func(c *gin.Context, u *domain.User, in *I) (O, error)
	// BindError 为空时绑定失败返回 400 和绑定错误；否则按其返回的错误映射
	BindError func(err error) error
}

// RegisterAction 成功时直接输出 O，失败时输出 {code,msg,data} 信封
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	run := func(c *gin.Context, u *domain.User) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			if a.BindError == nil {
				resp.Abort(c, resp.CodeBadRequest, bindErr.Error())
				return
			}
			_ = c.Error(bindErr)
			ae := FromError(a.BindError(bindErr))
			resp.Abort(c, ae.Code, ae.Error())
			return
		}

		out, err := a.Handler(c, u, &in)
		if err != nil {
			ae := FromError(err)
			if ae.Code >= resp.CodeServerError {
				e.log.Error("action failed", zap.String("path", c.FullPath()), zap.Error(err))
				// 不把内部错误细节暴露给客户端
				resp.Abort(c, ae.Code, ae.Msg)
				return
			}
			_ = c.Error(err)
			resp.Abort(c, ae.Code, ae.Error())
			return
		}
		c.JSON(http.StatusOK, out)
	}

	var h gin.HandlerFunc
	if a.Auth {
		h = e.gate.Token(run)
	} else {
		h = func(c *gin.Context) { run(c, nil) }
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
