package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Data 是服务端保存的会话内容
type Data struct {
	UserID  string  `json:"uid,omitempty"`
	Flashes []Flash `json:"flashes,omitempty"`
}

func (d *Data) clone() *Data {
	out := &Data{UserID: d.UserID}
	if len(d.Flashes) > 0 {
		out.Flashes = append([]Flash(nil), d.Flashes...)
	}
	return out
}

type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, d *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type Session struct {
	id    string
	data  Data
	isNew bool
	dirty bool
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.data.UserID }
func (s *Session) IsNew() bool    { return s.isNew }

func (s *Session) SetUser(id string) {
	s.data.UserID = id
	s.dirty = true
}

func (s *Session) AddFlash(category, msg string) {
	s.data.Flashes = append(s.data.Flashes, Flash{Category: category, Message: msg})
	s.dirty = true
}

// PopFlashes 取出并清空闪存消息
func (s *Session) PopFlashes() []Flash {
	out := s.data.Flashes
	if len(out) > 0 {
		s.data.Flashes = nil
		s.dirty = true
	}
	return out
}

type Options struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	Secure     bool
}

type Manager struct {
	store Store
	opt   Options
}

func NewManager(store Store, opt Options) *Manager {
	if opt.CookieName == "" {
		opt.CookieName = "session"
	}
	if opt.TTL <= 0 {
		opt.TTL = 7 * 24 * time.Hour
	}
	return &Manager{store: store, opt: opt}
}

func newSession() *Session { return &Session{id: uuid.NewString(), isNew: true} }

// Load 读取请求中的会话；cookie 缺失或签名错误时返回新会话。
// 存储出错时同样返回新会话，并带回错误供调用方记录。
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.opt.CookieName)
	if err != nil {
		return newSession(), nil
	}
	id, ok := m.verify(c.Value)
	if !ok {
		return newSession(), nil
	}
	d, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return newSession(), nil
	}
	if err != nil {
		return newSession(), err
	}
	return &Session{id: id, data: *d}, nil
}

// Save 持久化会话并写 cookie；未修改的空新会话不落库
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.isNew && !s.dirty {
		return nil
	}
	if err := m.store.Save(ctx, s.id, s.data.clone(), m.opt.TTL); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opt.CookieName,
		Value:    m.sign(s.id),
		Path:     "/",
		MaxAge:   int(m.opt.TTL / time.Second),
		HttpOnly: true,
		Secure:   m.opt.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.isNew, s.dirty = false, false
	return nil
}

// Destroy 删除服务端会话并让 cookie 过期；s 随后变为一个空的新会话
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	var err error
	if !s.isNew {
		err = m.store.Delete(ctx, s.id)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opt.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opt.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	*s = *newSession()
	return err
}

// Renew 更换会话 ID（登录时防止会话固定），保留数据
func (m *Manager) Renew(ctx context.Context, s *Session) error {
	var err error
	if !s.isNew {
		err = m.store.Delete(ctx, s.id)
	}
	s.id = uuid.NewString()
	s.isNew = true
	s.dirty = true
	return err
}

func (m *Manager) mac(id string) string {
	h := hmac.New(sha256.New, m.opt.Secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (m *Manager) sign(id string) string { return id + "." + m.mac(id) }

func (m *Manager) verify(v string) (string, bool) {
	id, sig, ok := strings.Cut(v, ".")
	if !ok || id == "" {
		return "", false
	}
	return id, hmac.Equal([]byte(sig), []byte(m.mac(id)))
}
