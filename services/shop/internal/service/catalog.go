package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/access"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/query"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/repo"
)

const infoCacheKey = "catalog:products:info"

// ErrCacheMiss is returned by Cache implementations when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type ProductIndex interface {
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, q string, offset, limit int) (int64, []uint, error)
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	IsAvailable *bool
}

type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	IsAvailable *bool
}

type ProductsInfo struct {
	Products []models.Product `json:"products"`
	Count    int64            `json:"count"`
	MaxPrice decimal.Decimal  `json:"max_price"`
}

type CatalogService struct {
	Repo     *repo.GormRepo
	Events   events.Publisher
	Cache    Cache
	CacheTTL time.Duration
	Index    ProductIndex

	infoGroup singleflight.Group
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, ErrProductNotFound)
	}
	return p, nil
}

func (s *CatalogService) GetProducts(ctx context.Context, f query.ProductFilter, page pagination.Page) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, f, page)
}

func (s *CatalogService) CreateProduct(ctx context.Context, caller *access.Caller, in ProductInput) (*models.Product, error) {
	if err := authorize(caller, access.Catalog, access.Create, uuid.Nil); err != nil {
		return nil, err
	}
	if err := validateProduct(in.Name, in.Price, in.Stock); err != nil {
		return nil, err
	}

	prod := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       uint(in.Stock),
		IsAvailable: true,
	}
	if in.IsAvailable != nil {
		prod.IsAvailable = *in.IsAvailable
	}

	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, mapRepoError(err, ErrProductNotFound)
	}

	s.afterWrite(ctx, "product_created", prod)
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, caller *access.Caller, id uint, patch ProductPatch) (*models.Product, error) {
	if err := authorize(caller, access.Catalog, access.Update, uuid.Nil); err != nil {
		return nil, err
	}

	prod, err := s.Repo.PatchProduct(ctx, id, func(p *models.Product) error {
		name, price, stock := p.Name, p.Price, int(p.Stock)
		if patch.Name != nil {
			name = strings.TrimSpace(*patch.Name)
		}
		if patch.Price != nil {
			price = *patch.Price
		}
		if patch.Stock != nil {
			stock = *patch.Stock
		}
		if err := validateProduct(name, price, stock); err != nil {
			return err
		}

		p.Name, p.Price, p.Stock = name, price, uint(stock)
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.IsAvailable != nil {
			p.IsAvailable = *patch.IsAvailable
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, ErrProductNotFound)
	}

	s.afterWrite(ctx, "product_updated", prod)
	return prod, nil
}

// DeleteProduct fails with ErrConflict while order lines still reference
// the product.
func (s *CatalogService) DeleteProduct(ctx context.Context, caller *access.Caller, id uint) error {
	if err := authorize(caller, access.Catalog, access.Delete, uuid.Nil); err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return mapRepoError(err, ErrProductNotFound)
	}

	s.invalidateInfo(ctx)
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search_index_delete_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProductEvents, strconv.FormatUint(uint64(id), 10), "product_deleted", map[string]any{"product_id": id})
	return nil
}

// GetProductsInfo returns every product with the count and the highest
// price. Results are cached when a cache is configured and concurrent misses
// share a single database read.
func (s *CatalogService) GetProductsInfo(ctx context.Context) (*ProductsInfo, error) {
	l := logging.FromContext(ctx)

	if s.Cache != nil {
		raw, err := s.Cache.Get(ctx, infoCacheKey)
		if err == nil {
			var info ProductsInfo
			if err := json.Unmarshal(raw, &info); err == nil {
				return &info, nil
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			l.Warn("products_info_cache_get_failed", "error", err)
		}
	}

	// The load is shared by every waiting caller, so it must outlive the
	// request that started it.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.infoGroup.Do(infoCacheKey, func() (any, error) {
		info, err := s.Repo.GetProductsInfo(loadCtx)
		if err != nil {
			return nil, err
		}
		out := &ProductsInfo{Products: info.Products, Count: info.Count, MaxPrice: info.MaxPrice}
		if out.Products == nil {
			out.Products = []models.Product{}
		}

		if s.Cache != nil {
			if raw, err := json.Marshal(out); err == nil {
				if err := s.Cache.Set(loadCtx, infoCacheKey, raw, s.CacheTTL); err != nil {
					l.Warn("products_info_cache_set_failed", "error", err)
				}
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProductsInfo), nil
}

// SearchProducts uses the search index when one is configured and falls back
// to the database text filter otherwise.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, page pagination.Page) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fieldErr("q", "search query is required")
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, page.Offset(), page.Size)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_query_failed", "error", err)
	}

	return s.Repo.GetProducts(ctx, query.ProductFilter{Search: q}, page)
}

func validateProduct(name string, price decimal.Decimal, stock int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fieldErr("name", "required")
	}
	if len([]rune(name)) > 200 {
		return fieldErr("name", "at most 200 characters")
	}
	if !price.IsPositive() {
		return fieldErr("price", "must be greater than 0")
	}
	if !price.Equal(price.Round(2)) {
		return fieldErr("price", "at most 2 decimal places")
	}
	if price.GreaterThanOrEqual(decimal.New(1, 8)) {
		return fieldErr("price", "at most 8 integer digits")
	}
	if stock < 0 {
		return fieldErr("stock", "must not be negative")
	}
	return nil
}

func (s *CatalogService) afterWrite(ctx context.Context, eventType string, p *models.Product) {
	s.invalidateInfo(ctx)
	if s.Index != nil {
		if err := s.Index.Index(ctx, *p); err != nil {
			logging.FromContext(ctx).Error("search_index_put_failed", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProductEvents, strconv.FormatUint(uint64(p.ID), 10), eventType, map[string]any{
		"product_id": p.ID,
		"name":       p.Name,
		"price":      p.Price,
		"stock":      p.Stock,
	})
}

func (s *CatalogService) invalidateInfo(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, infoCacheKey); err != nil {
		logging.FromContext(ctx).Warn("products_info_cache_invalidate_failed", "error", err)
	}
}
