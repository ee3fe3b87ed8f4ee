package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"gin-gorm-catalog/internal/domain"
)

var ErrInvalidName = errors.New("invalid stored file name")

// Store persists uploaded files under generated names only.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

type Uploader struct {
	store   Store
	allowed map[string]struct{}
	Now     func() time.Time
}

func NewUploader(store Store, allowedExts []string) *Uploader {
	allowed := make(map[string]struct{}, len(allowedExts))
	for _, e := range allowedExts {
		allowed[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return &Uploader{store: store, allowed: allowed, Now: time.Now}
}

func (u *Uploader) Store() Store { return u.store }

// Allowed 仅按扩展名判断（大小写不敏感），不做内容嗅探
func (u *Uploader) Allowed(filename string) bool {
	ext := Ext(filename)
	if ext == "" {
		return false
	}
	_, ok := u.allowed[ext]
	return ok
}

// Accept 校验扩展名并以 "<纳秒时间戳>_<安全文件名>" 保存，返回生成的文件名
func (u *Uploader) Accept(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh == nil || !u.Allowed(fh.Filename) {
		name := ""
		if fh != nil {
			name = fh.Filename
		}
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, name)
	}
	safe := SecureFilename(fh.Filename)
	if !u.Allowed(safe) {
		// 清洗后丢失了主体，只保留扩展名
		safe = "upload." + Ext(fh.Filename)
	}
	name := fmt.Sprintf("%d_%s", u.Now().UnixNano(), safe)

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	if err := u.store.Save(ctx, name, f, fh.Size); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return name, nil
}

// Ext 返回小写且不带点的扩展名
func Ext(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename 去掉路径与非 ASCII 字符，空白折叠为下划线
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if r == '/' || r == '\\' {
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// CheckName 拒绝任何带路径成分的名字
func CheckName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
