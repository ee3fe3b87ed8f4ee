package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	MaxBodyBytes    int64

	// 限流与并发保护
	RateLimitRPS      float64
	RateLimitBurst    int
	PerIPRPS          float64
	PerIPBurst        int
	MaxConcurrent     int64
	RequestTimeoutSec int
	AllowOrigins      []string
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret   string
	Issuer   string
	TTLHours int
}

func (j JWT) TTL() time.Duration { return time.Duration(j.TTLHours) * time.Hour }

type Session struct {
	Secret     string
	CookieName string
	TTLHours   int
	Secure     bool
}

func (s Session) TTL() time.Duration { return time.Duration(s.TTLHours) * time.Hour }

// Redis 为空地址时使用进程内会话存储，且不缓存用户
type Redis struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	UserCacheSec int    `mapstructure:"usercachesec"`
}

func (r Redis) UserCacheTTL() time.Duration { return time.Duration(r.UserCacheSec) * time.Second }

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Upload struct {
	Backend           string // local | minio
	Dir               string
	URLPrefix         string
	AllowedExtensions []string
}

type Minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Catalog struct {
	PageSize int
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	Session Session
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Upload  Upload
	Minio   Minio
	Catalog Catalog
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "catalog")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 10)
	v.SetDefault("app.http.writetimeoutsec", 30)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.maxbodybytes", 16<<20)
	v.SetDefault("app.http.ratelimitrps", 200)
	v.SetDefault("app.http.ratelimitburst", 400)
	v.SetDefault("app.http.peripps", 20)
	v.SetDefault("app.http.peripburst", 40)
	v.SetDefault("app.http.maxconcurrent", 300)
	v.SetDefault("app.http.requesttimeoutsec", 10)
	v.SetDefault("app.http.alloworigins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.compress", false)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxsizemb", 100)
	v.SetDefault("log.rotate.maxbackups", 7)
	v.SetDefault("log.rotate.maxagedays", 30)

	v.SetDefault("jwt.secret", "change_this_too")
	v.SetDefault("jwt.issuer", "catalog")
	v.SetDefault("jwt.ttlhours", 24)

	v.SetDefault("session.secret", "change_this_to_a_random_secret")
	v.SetDefault("session.cookiename", "session")
	v.SetDefault("session.ttlhours", 24*7)
	v.SetDefault("session.secure", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.usercachesec", 60)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "app.db")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("upload.backend", "local")
	v.SetDefault("upload.dir", "static/uploads")
	v.SetDefault("upload.urlprefix", "/uploads")
	v.SetDefault("upload.allowedextensions", []string{"png", "jpg", "jpeg", "gif"})

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.accesskey", "")
	v.SetDefault("minio.secretkey", "")
	v.SetDefault("minio.bucket", "catalog-uploads")
	v.SetDefault("minio.usessl", false)

	v.SetDefault("catalog.pagesize", 6)
}

// Read 读取 yaml + 环境变量；文件不存在时仅使用默认值
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 兼容旧的环境变量名
	_ = v.BindEnv("session.secret", "APP_SESSION_SECRET", "SECRET_KEY")
	_ = v.BindEnv("db.dsn", "APP_DB_DSN", "DATABASE_URL")
	_ = v.BindEnv("jwt.secret", "APP_JWT_SECRET", "JWT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.Upload.AllowedExtensions = normalizeExts(c.Upload.AllowedExtensions)
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 6
	}
	return &c, nil
}

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("read config: %v", err)
	}
	return c
}

// normalizeExts 支持 "png,jpg" 形式的环境变量
func normalizeExts(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			p = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p), "."))
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
