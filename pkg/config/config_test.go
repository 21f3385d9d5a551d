package config

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("MEDIA_DRIVER", "local")

	cfg, err := Load("visitcard")
	require.NoError(t, err)

	assert.Equal(t, "visitcard", cfg.ServiceName)
	assert.Equal(t, 168, cfg.JWT.ExpirationHours)
	assert.Equal(t, 12, cfg.Card.ValidityMonths)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, "v1", cfg.Server.APIVersion)
	assert.True(t, cfg.Server.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("MEDIA_DRIVER", "local")
	t.Setenv("JWT_EXPIRATION_HOURS", "24")
	t.Setenv("CARD_BACKFILL_INTERVAL", "15m")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("SCAN_RATE_LIMIT_RPS", "2.5")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7")

	cfg, err := Load("visitcard")
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, 15*time.Minute, cfg.Card.BackfillInterval)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.InDelta(t, 2.5, cfg.RateLimit.ScanRPS, 0.0001)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.7"}, cfg.Server.TrustedProxies)
	assert.False(t, cfg.Server.IsDevelopment())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Env: "production"},
			JWT:    JWTConfig{SigningKey: "s3cret", ExpirationHours: 1},
			Card:   CardConfig{ValidityMonths: 12},
			Media:  MediaConfig{Driver: "local"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("default key in production", func(t *testing.T) {
		cfg := base()
		cfg.JWT.SigningKey = defaultSigningKey
		assert.Error(t, cfg.Validate())
	})

	t.Run("firebase without bucket", func(t *testing.T) {
		cfg := base()
		cfg.Media.Driver = "firebase"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad trusted proxy", func(t *testing.T) {
		cfg := base()
		cfg.Server.TrustedProxies = []string{"not-an-ip"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.Media.Driver = "s3"
		assert.Error(t, cfg.Validate())
	})
}

func TestTrustedProxyRanges(t *testing.T) {
	s := ServerConfig{TrustedProxies: []string{"10.0.0.0/8", "192.0.2.7", "2001:db8::1"}}
	ranges, err := s.TrustedProxyRanges()
	require.NoError(t, err)
	require.Len(t, ranges, 3)

	assert.True(t, ranges[0].Contains(net.ParseIP("10.1.2.3")))
	assert.True(t, ranges[1].Contains(net.ParseIP("192.0.2.7")))
	assert.False(t, ranges[1].Contains(net.ParseIP("192.0.2.8")))
	assert.True(t, ranges[2].Contains(net.ParseIP("2001:db8::1")))
}

func TestGetDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.GetDSN())
}
