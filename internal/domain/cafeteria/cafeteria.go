// Package cafeteria models the menu, kitchen inventory and orders.
package cafeteria

import (
	"time"

	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Collection names
const (
	CollectionMenu      = "menuItems"
	CollectionInventory = "inventory"
	CollectionOrders    = "cafeteriaOrders"
)

// OrderStatus is exactly pending or paid.
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
)

// IsValid reports whether s is one of the closed set of values.
func (s OrderStatus) IsValid() bool {
	return s == OrderPending || s == OrderPaid
}

// MenuItem is something the cafeteria sells.
type MenuItem struct {
	shared.BaseRecord
	Name      string  `json:"name" validate:"required"`
	Category  string  `json:"category,omitempty"`
	Price     float64 `json:"price" validate:"gte=0"`
	Available *bool   `json:"available,omitempty"`
}

// InventoryItem is a kitchen stock line.
type InventoryItem struct {
	shared.BaseRecord
	Name        string  `json:"name" validate:"required"`
	Unit        string  `json:"unit,omitempty"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	MinQuantity float64 `json:"minQuantity" validate:"gte=0"`
	CostPerUnit float64 `json:"costPerUnit" validate:"gte=0"`
}

// LowStock reports whether the quantity is at or below the reorder level.
func (i InventoryItem) LowStock() bool {
	return i.Quantity <= i.MinQuantity
}

// Order buys a quantity of one menu item.
type Order struct {
	shared.BaseRecord
	ItemID    string      `json:"itemId" validate:"required"`
	StudentID string      `json:"studentId,omitempty"`
	Quantity  int         `json:"quantity" validate:"gte=1"`
	Status    OrderStatus `json:"status,omitempty" validate:"omitempty,oneof=pending paid"`
	PaidAt    *time.Time  `json:"paidAt,omitempty"`
}

// EffectiveDate is the creation date.
func (o Order) EffectiveDate() string {
	return o.CreatedDate()
}

// Total is price × quantity of the referenced item. It is never stored.
// An order whose item no longer exists totals zero.
func (o Order) Total(item *MenuItem) decimal.Decimal {
	if item == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// PaidPatch is the field-level update marking an order paid.
func PaidPatch(now time.Time) shared.Document {
	return shared.Document{
		"status": string(OrderPaid),
		"paidAt": now.UTC(),
	}
}
