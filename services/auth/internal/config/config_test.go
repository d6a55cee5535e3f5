package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/restaurant_orders/pkg/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "PAGE_SIZE_DEFAULT", "PAGE_SIZE_MAX", "ADMIN_USERNAME"} {
		t.Setenv(k, "")
	}

	sc := FromEnv(config.Config{})
	assert.Equal(t, 15*time.Minute, sc.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, sc.RefreshTTL)
	assert.Empty(t, sc.AdminUsername)
	assert.Equal(t, 10, sc.Pagination().DefaultSize)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "bogus")
	t.Setenv("PAGE_SIZE_DEFAULT", "20")
	t.Setenv("PAGE_SIZE_MAX", "50")
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD", "rootpass1")

	sc := FromEnv(config.Config{ServiceName: "auth"})
	assert.Equal(t, 5*time.Minute, sc.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, sc.RefreshTTL)
	assert.Equal(t, 20, sc.Pagination().DefaultSize)
	assert.Equal(t, 50, sc.Pagination().MaxSize)
	assert.Equal(t, "root", sc.AdminUsername)
	assert.Equal(t, "auth", sc.ServiceName)
}
