// Package reports derives read-only aggregates from a state snapshot.
// Everything here is a pure function: recomputed on demand, no caching,
// no side effects on domain state.
package reports

import (
	"time"

	"github.com/lababil/lababil-pos/internal/pos"
)

// Summary aggregates the report cards shown on the dashboard.
type Summary struct {
	TotalRevenue   float64       `json:"totalRevenue"`
	MonthlyRevenue float64       `json:"monthlyRevenue"`
	TotalCOGS      float64       `json:"totalCOGS"`
	Profit         float64       `json:"profit"`
	TopProduct     string        `json:"topProduct"`
	LowStock       []pos.Product `json:"lowStock"`
}

// Build computes the full summary at the given instant.
func Build(snap pos.Snapshot, now time.Time) Summary {
	cogs := TotalCOGS(snap.Sales, snap.Products)
	revenue := TotalRevenue(snap.Sales)
	return Summary{
		TotalRevenue:   revenue,
		MonthlyRevenue: MonthlyRevenue(snap.Sales, now),
		TotalCOGS:      cogs,
		Profit:         revenue - cogs,
		TopProduct:     TopProduct(snap.Sales),
		LowStock:       LowStock(snap.Products),
	}
}

// TotalRevenue sums every sale total.
func TotalRevenue(sales []pos.Sale) float64 {
	var total float64
	for _, sale := range sales {
		total += sale.Total
	}
	return total
}

// MonthlyRevenue sums sale totals dated in now's calendar month and year.
// Sales with unparsable dates count toward total revenue only.
func MonthlyRevenue(sales []pos.Sale, now time.Time) float64 {
	var total float64
	for _, sale := range sales {
		date, err := time.Parse(pos.DateLayout, sale.Date)
		if err != nil {
			continue
		}
		if date.Month() == now.Month() && date.Year() == now.Year() {
			total += sale.Total
		}
	}
	return total
}

// TotalCOGS sums qty times the current cost price of the product matching
// each line item by name. This is a current-cost figure, not a historical
// snapshot: line items of deleted products contribute nothing.
func TotalCOGS(sales []pos.Sale, products []pos.Product) float64 {
	costByName := make(map[string]float64, len(products))
	for _, product := range products {
		costByName[product.Name] = product.CostPrice
	}
	var total float64
	for _, sale := range sales {
		for _, item := range sale.Items {
			if cost, ok := costByName[item.Name]; ok && cost > 0 {
				total += float64(item.Qty) * cost
			}
		}
	}
	return total
}

// TopProduct returns the product name with the highest cumulative sold
// quantity. Ties break lexicographically on name so the answer is stable
// across runs. Empty when there are no sales.
func TopProduct(sales []pos.Sale) string {
	qtyByName := make(map[string]int)
	for _, sale := range sales {
		for _, item := range sale.Items {
			qtyByName[item.Name] += item.Qty
		}
	}
	var top string
	var best int
	for name, qty := range qtyByName {
		if qty > best || (qty == best && best > 0 && name < top) {
			top = name
			best = qty
		}
	}
	return top
}

// LowStock lists products at or below their minimum stock. Advisory
// only; it never gates a transaction.
func LowStock(products []pos.Product) []pos.Product {
	var out []pos.Product
	for _, product := range products {
		if product.Stock <= product.MinStock {
			out = append(out, product)
		}
	}
	return out
}
