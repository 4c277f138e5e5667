package config_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/breakingmathclub/backend/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	c := qt.New(t)

	cfg := config.Load()

	c.Assert(cfg.DBHost, qt.Equals, "localhost")
	c.Assert(cfg.DBPort, qt.Equals, "5432")
	c.Assert(cfg.Port, qt.Equals, "8080")
	c.Assert(cfg.CORSOrigins, qt.Equals, "*")
	c.Assert(cfg.JWTAccessExpiry, qt.Equals, 15*time.Minute)
	c.Assert(cfg.UpstreamTimeout, qt.Equals, 5*time.Second)
	c.Assert(cfg.ClassroomScope, qt.Contains, "classroom.announcements.readonly")
}

func TestLoadFromEnv(t *testing.T) {
	c := qt.New(t)

	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_ACCESS_EXPIRY", "30m")
	t.Setenv("UPSTREAM_BASE_URL", "https://store.example.com")
	t.Setenv("UPSTREAM_TIMEOUT", "2s")

	cfg := config.Load()

	c.Assert(cfg.DBHost, qt.Equals, "db.internal")
	c.Assert(cfg.JWTSecret, qt.Equals, "test-secret")
	c.Assert(cfg.JWTAccessExpiry, qt.Equals, 30*time.Minute)
	c.Assert(cfg.UpstreamBaseURL, qt.Equals, "https://store.example.com")
	c.Assert(cfg.UpstreamTimeout, qt.Equals, 2*time.Second)
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	c := qt.New(t)

	t.Setenv("JWT_ACCESS_EXPIRY", "not-a-duration")

	cfg := config.Load()

	c.Assert(cfg.JWTAccessExpiry, qt.Equals, 15*time.Minute)
}

func TestDSN(t *testing.T) {
	c := qt.New(t)

	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_USER", "club")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "clubdb")

	cfg := config.Load()

	c.Assert(cfg.DSN(), qt.Contains, "host=pg")
	c.Assert(cfg.DSN(), qt.Contains, "user=club")
	c.Assert(cfg.DSN(), qt.Contains, "dbname=clubdb")
	c.Assert(cfg.DSN(), qt.Contains, "sslmode=disable")
}
