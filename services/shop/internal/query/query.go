// Package query turns list query strings into gorm scopes for products and
// orders. Parsing is strict: a value that cannot be interpreted is reported
// as a *FilterError instead of being ignored.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
)

const DateLayout = "2006-01-02"

type FilterError struct {
	Param  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

type Sort struct {
	Field string
	Desc  bool
}

var productSortable = map[string]string{
	"name":  "name",
	"price": "price",
	"stock": "stock",
}

type ProductFilter struct {
	Name         *string
	NameContains string
	Price        *decimal.Decimal
	PriceLT      *decimal.Decimal
	PriceGT      *decimal.Decimal
	PriceRange   *[2]decimal.Decimal
	InStock      *bool
	Search       string
	Ordering     []Sort
}

func ParseProductFilter(v url.Values) (ProductFilter, error) {
	var f ProductFilter
	var err error

	if v.Has("name") {
		name := v.Get("name")
		f.Name = &name
	}
	f.NameContains = strings.TrimSpace(v.Get("name__icontains"))
	f.Search = strings.TrimSpace(v.Get("search"))

	if f.Price, err = decimalParam(v, "price"); err != nil {
		return f, err
	}
	if f.PriceLT, err = decimalParam(v, "price__lt"); err != nil {
		return f, err
	}
	if f.PriceGT, err = decimalParam(v, "price__gt"); err != nil {
		return f, err
	}
	if raw := v.Get("price__range"); raw != "" {
		parts := strings.Split(raw, ",")
		if len(parts) != 2 {
			return f, &FilterError{Param: "price__range", Reason: "expected lo,hi"}
		}
		lo, errLo := decimal.NewFromString(strings.TrimSpace(parts[0]))
		hi, errHi := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if errLo != nil || errHi != nil {
			return f, &FilterError{Param: "price__range", Reason: "bounds must be decimals"}
		}
		if lo.GreaterThan(hi) {
			return f, &FilterError{Param: "price__range", Reason: "lower bound exceeds upper bound"}
		}
		f.PriceRange = &[2]decimal.Decimal{lo, hi}
	}
	if raw := v.Get("in_stock"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, &FilterError{Param: "in_stock", Reason: "expected true or false"}
		}
		f.InStock = &b
	}
	if f.Ordering, err = parseOrdering(v.Get("ordering"), productSortable); err != nil {
		return f, err
	}
	return f, nil
}

func (f ProductFilter) Scope(db *gorm.DB) *gorm.DB {
	if f.Name != nil {
		db = db.Where("name = ?", *f.Name)
	}
	if f.NameContains != "" {
		db = db.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(f.NameContains))
	}
	if f.Price != nil {
		db = db.Where("price = ?", *f.Price)
	}
	if f.PriceLT != nil {
		db = db.Where("price < ?", *f.PriceLT)
	}
	if f.PriceGT != nil {
		db = db.Where("price > ?", *f.PriceGT)
	}
	if f.PriceRange != nil {
		db = db.Where("price BETWEEN ? AND ?", f.PriceRange[0], f.PriceRange[1])
	}
	if f.InStock != nil {
		if *f.InStock {
			db = db.Where("stock > 0")
		} else {
			db = db.Where("stock = 0")
		}
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		db = db.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", p, p)
	}
	return db
}

// Order applies the requested ordering and always finishes with the primary
// key so pages are stable.
func (f ProductFilter) Order(db *gorm.DB) *gorm.DB {
	for _, s := range f.Ordering {
		db = db.Order(orderClause(s))
	}
	return db.Order("id ASC")
}

type OrderFilter struct {
	Status        *models.OrderStatus
	CreatedOn     *time.Time
	CreatedBefore *time.Time
	CreatedAfter  *time.Time
}

func ParseOrderFilter(v url.Values) (OrderFilter, error) {
	var f OrderFilter
	var err error

	if raw := v.Get("status"); raw != "" {
		s := models.OrderStatus(raw)
		if !s.Valid() {
			return f, &FilterError{Param: "status", Reason: "unknown status"}
		}
		f.Status = &s
	}
	if f.CreatedOn, err = dateParam(v, "created_at"); err != nil {
		return f, err
	}
	if f.CreatedBefore, err = dateParam(v, "created_at__lt"); err != nil {
		return f, err
	}
	if f.CreatedAfter, err = dateParam(v, "created_at__gt"); err != nil {
		return f, err
	}
	return f, nil
}

// Scope compares calendar dates only: created_at__gt=2024-01-01 matches
// orders created on 2024-01-02 or later, never later on the 1st.
func (f OrderFilter) Scope(db *gorm.DB) *gorm.DB {
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.CreatedOn != nil {
		db = db.Where("created_at >= ? AND created_at < ?", *f.CreatedOn, f.CreatedOn.AddDate(0, 0, 1))
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", f.CreatedAfter.AddDate(0, 0, 1))
	}
	return db
}

func decimalParam(v url.Values, key string) (*decimal.Decimal, error) {
	raw := v.Get(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, &FilterError{Param: key, Reason: "not a decimal"}
	}
	return &d, nil
}

func dateParam(v url.Values, key string) (*time.Time, error) {
	raw := v.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, &FilterError{Param: key, Reason: "expected YYYY-MM-DD"}
	}
	return &t, nil
}

func parseOrdering(raw string, allowed map[string]string) ([]Sort, error) {
	if raw == "" {
		return nil, nil
	}
	var out []Sort
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		desc := strings.HasPrefix(term, "-")
		col, ok := allowed[strings.TrimPrefix(term, "-")]
		if !ok {
			return nil, &FilterError{Param: "ordering", Reason: fmt.Sprintf("cannot order by %q", term)}
		}
		out = append(out, Sort{Field: col, Desc: desc})
	}
	return out, nil
}

func orderClause(s Sort) string {
	if s.Desc {
		return s.Field + " DESC"
	}
	return s.Field + " ASC"
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
