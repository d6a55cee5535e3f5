package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/restaurant_orders/pkg/db/dbtest"
	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/access"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/repo"
)

type published struct {
	Topic string
	Key   string
	Env   events.Envelope
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{Topic: topic, Key: key, Env: env})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, e := range p.sent {
		out = append(out, e.Env.Type)
	}
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	return dbtest.New(t, models.All()...)
}

func newOrderService(t *testing.T) (*OrderService, *gorm.DB, *recordingPublisher) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	return &OrderService{Repo: repo.New(db, nil), Pricing: models.PriceSnapshot, Events: pub}, db, pub
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock uint) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock, IsAvailable: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func newCaller() *access.Caller {
	return &access.Caller{UserID: uuid.New()}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// failNthLineInsert makes the n-th order line insert on db fail.
func failNthLineInsert(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	var seen int
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_line_insert", func(tx *gorm.DB) {
		if tx.Statement.Table != "order_lines" {
			return
		}
		seen++
		if seen == n {
			_ = tx.AddError(errors.New("injected line insert failure"))
		}
	})
	require.NoError(t, err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
