package report

import (
	"cmp"
	"slices"

	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/shopspring/decimal"
)

// CafeteriaData is the cached input of the cafeteria report.
type CafeteriaData struct {
	Menu      []cafeteria.MenuItem
	Inventory []cafeteria.InventoryItem
	Orders    []cafeteria.Order
	Students  []school.Student
}

// ItemSales ranks a menu item by quantity sold.
type ItemSales struct {
	ItemID   string          `json:"itemId"`
	Name     string          `json:"name"`
	Orders   int             `json:"orders"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// CafeteriaReport is the derived cafeteria view for a date range.
type CafeteriaReport struct {
	Range          DateRange                 `json:"range"`
	TotalOrders    int                       `json:"totalOrders"`
	OrdersByStatus []Bucket                  `json:"ordersByStatus"`
	Revenue        decimal.Decimal           `json:"revenue"`
	PendingAmount  decimal.Decimal           `json:"pendingAmount"`
	TopItems       []ItemSales               `json:"topItems"`
	MenuItems      int                       `json:"menuItems"`
	MenuByCategory []Bucket                  `json:"menuByCategory"`
	InventoryValue decimal.Decimal           `json:"inventoryValue"`
	LowStock       []cafeteria.InventoryItem `json:"lowStock"`

	OrderRecords []cafeteria.Order              `json:"-"`
	Inventory    []cafeteria.InventoryItem      `json:"-"`
	MenuIndex    map[string]*cafeteria.MenuItem `json:"-"`
}

// OrderDataset builds the order dataset over a menu index; an order's
// amount is its derived price × quantity total.
func OrderDataset(menu map[string]*cafeteria.MenuItem) Dataset[cafeteria.Order] {
	return Dataset[cafeteria.Order]{
		Name:   cafeteria.CollectionOrders,
		Date:   cafeteria.Order.EffectiveDate,
		Amount: func(o cafeteria.Order) decimal.Decimal { return o.Total(menu[o.ItemID]) },
	}
}

// BuildCafeteria derives the cafeteria report.
func BuildCafeteria(data CafeteriaData, r DateRange) *CafeteriaReport {
	menu := make(map[string]*cafeteria.MenuItem, len(data.Menu))
	for i := range data.Menu {
		menu[data.Menu[i].ID] = &data.Menu[i]
	}
	orders := OrderDataset(menu)
	filtered := orders.Filter(data.Orders, r)

	rep := &CafeteriaReport{
		Range:        r,
		TotalOrders:  len(filtered),
		MenuItems:    len(data.Menu),
		OrderRecords: filtered,
		Inventory:    data.Inventory,
		MenuIndex:    menu,
		LowStock:     []cafeteria.InventoryItem{},
	}

	byStatus := orders.GroupBy(filtered, func(o cafeteria.Order) string { return string(o.Status) }, Unknown)
	byStatus.Ensure(string(cafeteria.OrderPending), string(cafeteria.OrderPaid))
	rep.OrdersByStatus = byStatus.Buckets()
	rep.Revenue = byStatus.Get(string(cafeteria.OrderPaid)).Sum
	rep.PendingAmount = byStatus.Get(string(cafeteria.OrderPending)).Sum

	rep.TopItems = topItems(filtered, menu, orders, 10)

	catalogue := Dataset[cafeteria.MenuItem]{
		Name:   cafeteria.CollectionMenu,
		Amount: func(m cafeteria.MenuItem) decimal.Decimal { return Amount(m.Price) },
	}
	rep.MenuByCategory = catalogue.GroupBy(data.Menu, func(m cafeteria.MenuItem) string { return m.Category }, Uncategorized).ByCountDesc()

	value := decimal.Zero
	for _, it := range data.Inventory {
		value = value.Add(Amount(it.Quantity).Mul(Amount(it.CostPerUnit)))
		if it.LowStock() {
			rep.LowStock = append(rep.LowStock, it)
		}
	}
	rep.InventoryValue = value
	return rep
}

func topItems(orders []cafeteria.Order, menu map[string]*cafeteria.MenuItem, d Dataset[cafeteria.Order], n int) []ItemSales {
	index := make(map[string]int)
	var sales []ItemSales
	for _, o := range orders {
		i, ok := index[o.ItemID]
		if !ok {
			name := o.ItemID
			if m := menu[o.ItemID]; m != nil {
				name = m.Name
			}
			i = len(sales)
			index[o.ItemID] = i
			sales = append(sales, ItemSales{ItemID: o.ItemID, Name: name, Revenue: decimal.Zero})
		}
		sales[i].Orders++
		sales[i].Quantity += o.Quantity
		sales[i].Revenue = sales[i].Revenue.Add(d.Amount(o))
	}
	slices.SortFunc(sales, func(x, y ItemSales) int {
		if c := cmp.Compare(y.Quantity, x.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	if len(sales) > n {
		sales = sales[:n]
	}
	return sales
}

// Summary implements Summarizer.
func (r *CafeteriaReport) Summary() []Metric {
	var m metrics
	m.int("Total Orders", r.TotalOrders)
	m.buckets("Orders", r.OrdersByStatus)
	m.dec("Revenue", r.Revenue)
	m.dec("Pending Amount", r.PendingAmount)
	m.int("Menu Items", r.MenuItems)
	m.dec("Inventory Value", r.InventoryValue)
	m.int("Low Stock Items", len(r.LowStock))
	for _, it := range r.TopItems {
		m.int("Top Item: "+it.Name, it.Quantity)
	}
	return m
}
