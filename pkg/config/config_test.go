package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"kafka:9092", "kafka2:9092"}, CSV(" kafka:9092, ,kafka2:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "value")
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BAD_INT", "forty")
	t.Setenv("CFG_TEST_BOOL", "false")
	t.Setenv("CFG_TEST_DUR", "90s")

	assert.Equal(t, "value", EnvDefault("CFG_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("CFG_TEST_MISSING", "def"))
	assert.Equal(t, 42, EnvIntDefault("CFG_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("CFG_TEST_BAD_INT", 1))
	assert.False(t, EnvBoolDefault("CFG_TEST_BOOL", true))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("CFG_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("CFG_TEST_MISSING", time.Second))
}

func TestLoad(t *testing.T) {
	t.Setenv("SERVICE_NAME", "shop")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("JWT_SECRET", "secret")

	cfg := Load()
	assert.Equal(t, "shop", cfg.ServiceName)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.KafkaBrokers)
	assert.Equal(t, []byte("secret"), cfg.JWTAccessSecret)
	assert.Equal(t, "read_committed", cfg.TxIsolation)
}

func TestMissing(t *testing.T) {
	got := missing([]Setting{
		Str("DATABASE_URL", "postgres://db"),
		Str("AUTH_URL", ""),
		Bytes("JWT_SECRET", nil),
		Bytes("JWT_REFRESH_SECRET", []byte("r")),
	})
	assert.Equal(t, []string{"AUTH_URL", "JWT_SECRET"}, got)
	assert.Empty(t, missing([]Setting{Str("X", "1")}))
}
