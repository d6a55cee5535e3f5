package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"         json:"id"`
	Name        string          `gorm:"size:200;not null;index"          json:"name"`
	Description string          `gorm:"not null;default:''"              json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"      json:"price"`
	Stock       uint            `gorm:"not null;default:0"               json:"stock"`
	IsAvailable bool            `gorm:"not null;default:true"            json:"is_available"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime"          json:"created_at"`
	InStock     bool            `gorm:"-"                                json:"in_stock"`
}

func (p *Product) AfterFind(*gorm.DB) error {
	p.InStock = p.Stock > 0
	return nil
}

func (p *Product) AfterSave(*gorm.DB) error {
	p.InStock = p.Stock > 0
	return nil
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// CanTransition reports whether an order in status s may move to next.
// Staying in the same status is always allowed.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	return s == StatusPending
}

type Order struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"                              json:"order_id"`
	UserID    uuid.UUID   `gorm:"type:uuid;index;not null"                          json:"user_id"`
	Status    OrderStatus `gorm:"type:varchar(16);not null;default:pending;index"  json:"status"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime;index"                     json:"created_at"`
	Lines     []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"    json:"items"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderLine struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"                            json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"                            json:"-"`
	ProductID uint            `gorm:"index;not null"                                      json:"product_id"`
	Product   Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"   json:"product"`
	Quantity  uint            `gorm:"not null;check:quantity > 0"                         json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null"                         json:"unit_price"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime"                             json:"created_at"`
}

type PriceSource string

const (
	PriceSnapshot PriceSource = "snapshot"
	PriceLive     PriceSource = "live"
)

// Subtotal is quantity times the unit price picked by src. Live pricing
// needs the product preloaded and falls back to the captured price otherwise.
func (l OrderLine) Subtotal(src PriceSource) decimal.Decimal {
	price := l.UnitPrice
	if src == PriceLive && l.Product.ID != 0 {
		price = l.Product.Price
	}
	return price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (o *Order) TotalPrice(src PriceSource) decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal(src))
	}
	return total
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                               json:"id"`
	ProductID uint      `gorm:"index;not null"                                         json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"       json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"                               json:"user_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"            json:"rating"`
	Comment   string    `gorm:"not null;default:''"                                    json:"comment"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"                                json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"                                json:"updated_at"`
}

func All() []any {
	return []any{&Product{}, &Order{}, &OrderLine{}, &Review{}}
}
