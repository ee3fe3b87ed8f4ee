package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	resp "gin-gorm-catalog/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小（含上传的图片）
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.CodeTooLarge, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// IsTooLarge 判断表单解析失败是否由大小限制引起
func IsTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
