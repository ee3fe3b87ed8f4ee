package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gin-gorm-catalog/internal/domain"
)

func TestNewGorm_SQLiteAndMigrate(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "t.db"), LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&domain.User{}))
	assert.True(t, db.Migrator().HasTable(&domain.Product{}))
	assert.True(t, db.Migrator().HasIndex(&domain.User{}, "Email"))
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{"native dsn untouched", "u:p@tcp(db:3306)/app", "", "", "u:p@tcp(db:3306)/app"},
		{"url form", "mysql://u:p@db:3306/app", "", "", "u:p@tcp(db:3306)/app?charset=utf8mb4&parseTime=true"},
		{"jdbc with overrides", "jdbc:mysql://db:3306/app?useSSL=false&characterEncoding=utf8", "root", "pw", "root:pw@tcp(db:3306)/app?charset=utf8&parseTime=true&tls=false"},
		{"empty", "  ", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "app.db?_busy_timeout=5000", sqliteDSN(""))
	assert.Equal(t, "/tmp/a.db?_busy_timeout=5000", sqliteDSN("sqlite:////tmp/a.db"))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN("file::memory:?cache=shared"))
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "u:****@tcp(db)/app", MaskDSN("u:secret@tcp(db)/app"))
	assert.Equal(t, "postgres://u:****@h/db", MaskDSN("postgres://u:secret@h/db"))
	assert.Equal(t, "app.db", MaskDSN("app.db"))
}
