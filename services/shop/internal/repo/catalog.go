package repo

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/query"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, f query.ProductFilter, page pagination.Page) (int64, []models.Product, error) {
	var total int64
	if err := f.Scope(r.DB.WithContext(ctx).Model(&models.Product{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, page.Size)
	q := f.Order(f.Scope(r.DB.WithContext(ctx).Model(&models.Product{})))
	if err := q.Offset(page.Offset()).Limit(page.Size).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// GetProductsByIDs returns the products in the order of ids, skipping the
// ones that no longer exist.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

// PatchProduct loads the product, lets apply mutate it and saves the result
// in one transaction.
func (r *GormRepo) PatchProduct(ctx context.Context, id uint, apply func(*models.Product) error) (*models.Product, error) {
	var prod models.Product
	err := r.InTx(ctx, func(tx *GormRepo) error {
		if err := tx.DB.First(&prod, id).Error; err != nil {
			return err
		}
		if err := apply(&prod); err != nil {
			return err
		}
		return tx.DB.Save(&prod).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type ProductsInfo struct {
	Products []models.Product
	Count    int64
	MaxPrice decimal.Decimal
}

func (r *GormRepo) GetProductsInfo(ctx context.Context) (*ProductsInfo, error) {
	var products []models.Product
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	info := &ProductsInfo{Products: products, Count: int64(len(products)), MaxPrice: decimal.Zero}
	for _, p := range products {
		if p.Price.GreaterThan(info.MaxPrice) {
			info.MaxPrice = p.Price
		}
	}
	return info, nil
}
