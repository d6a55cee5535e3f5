package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/restaurant_orders/pkg/db"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/repo"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/service"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("AUTH_INTEGRATION") == "" {
		t.Skip("set AUTH_INTEGRATION=1 to run against a postgres container")
	}
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "auth",
				"POSTGRES_PASSWORD": "auth",
				"POSTGRES_DB":       "auth",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := pkgdb.Open(ctx, fmt.Sprintf("postgres://auth:auth@%s:%s/auth?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type PostgresSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *service.AuthService
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.db = setupPostgres(s.T())
	opts, err := pkgdb.TxOptions("read_committed")
	s.Require().NoError(err)
	s.svc = &service.AuthService{
		Repo:          repo.New(s.db, opts),
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func (s *PostgresSuite) TearDownTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE refresh_tokens, users CASCADE").Error)
}

func (s *PostgresSuite) TestRegisterDuplicate() {
	ctx := context.Background()

	_, err := s.svc.Register(ctx, "alice", "secret123")
	s.Require().NoError(err)
	_, err = s.svc.Register(ctx, "alice", "secret123")
	s.ErrorIs(err, service.ErrUserAlreadyExist)
}

func (s *PostgresSuite) TestConcurrentRefreshRotatesOnce() {
	ctx := context.Background()

	_, err := s.svc.Register(ctx, "bob", "secret123")
	s.Require().NoError(err)
	login, err := s.svc.Login(ctx, "bob", "secret123")
	s.Require().NoError(err)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		rejected int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Refresh(ctx, login.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, service.ErrInvalidRefresh):
				rejected++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, success)
	s.Equal(workers-1, rejected)

	var live int64
	s.Require().NoError(s.db.Model(&models.RefreshToken{}).Where("revoked = ?", false).Count(&live).Error)
	s.EqualValues(1, live)
}
