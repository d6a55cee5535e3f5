package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/service"
)

func TestRedis_Unreachable(t *testing.T) {
	c := NewRedis(NewRedisClient("127.0.0.1:1"))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := c.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrCacheMiss)
}

func TestRedis_Commands(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewRedis(rdb)
	ctx := context.Background()

	mock.ExpectGet("shop:info").RedisNil()
	_, err := c.Get(ctx, "info")
	assert.ErrorIs(t, err, service.ErrCacheMiss)

	mock.ExpectSet("shop:info", []byte(`{"count":1}`), time.Minute).SetVal("OK")
	require.NoError(t, c.Set(ctx, "info", []byte(`{"count":1}`), time.Minute))

	mock.ExpectGet("shop:info").SetVal(`{"count":1}`)
	got, err := c.Get(ctx, "info")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":1}`, string(got))

	mock.ExpectDel("shop:info").SetVal(1)
	require.NoError(t, c.Delete(ctx, "info"))

	mock.ExpectGet("shop:info").SetErr(errors.New("connection reset"))
	_, err = c.Get(ctx, "info")
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrCacheMiss)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_RoundTrip(t *testing.T) {
	if os.Getenv("SHOP_INTEGRATION") == "" {
		t.Skip("set SHOP_INTEGRATION=1 to run against a redis container")
	}
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	endpoint, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)

	c := NewRedis(NewRedisClient(endpoint))
	defer c.Close()
	require.NoError(t, c.Ping(ctx))

	_, err = c.Get(ctx, "info")
	assert.ErrorIs(t, err, service.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "info", []byte(`{"count":1}`), time.Minute))
	got, err := c.Get(ctx, "info")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":1}`, string(got))

	require.NoError(t, c.Delete(ctx, "info"))
	_, err = c.Get(ctx, "info")
	assert.ErrorIs(t, err, service.ErrCacheMiss)
}
