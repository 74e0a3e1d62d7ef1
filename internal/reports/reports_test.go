package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lababil/lababil-pos/internal/pos"
)

func TestBuildSummary(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	snap := pos.Snapshot{
		Products: []pos.Product{
			{ID: "p1", Name: "Laptop", CostPrice: 600, Stock: 2, MinStock: 5},
			{ID: "p2", Name: "Mouse", CostPrice: 20, Stock: 50, MinStock: 5},
		},
		Sales: []pos.Sale{
			{ID: "s1", Date: "2026-08-10", Total: 2000, Items: []pos.SaleItem{{ProductID: "p1", Name: "Laptop", Qty: 2, Price: 1000}}},
			{ID: "s2", Date: "2026-07-01", Total: 50, Items: []pos.SaleItem{{ProductID: "p2", Name: "Mouse", Qty: 1, Price: 50}}},
		},
	}

	summary := Build(snap, now)
	require.Equal(t, float64(2050), summary.TotalRevenue)
	require.Equal(t, float64(2000), summary.MonthlyRevenue)
	require.Equal(t, float64(1220), summary.TotalCOGS)
	require.Equal(t, float64(830), summary.Profit)
	require.Equal(t, "Laptop", summary.TopProduct)
	require.Len(t, summary.LowStock, 1)
	require.Equal(t, "p1", summary.LowStock[0].ID)
}

func TestMonthlyRevenueSkipsBadDates(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	sales := []pos.Sale{
		{Date: "2026-08-01", Total: 100},
		{Date: "garbage", Total: 500},
	}
	require.Equal(t, float64(100), MonthlyRevenue(sales, now))
	require.Equal(t, float64(600), TotalRevenue(sales))
}

func TestTotalCOGSIgnoresDeletedAndZeroCost(t *testing.T) {
	products := []pos.Product{
		{ID: "p1", Name: "Laptop", CostPrice: 600},
		{ID: "p2", Name: "Sticker", CostPrice: 0},
	}
	sales := []pos.Sale{
		{Items: []pos.SaleItem{
			{Name: "Laptop", Qty: 1},
			{Name: "Sticker", Qty: 10},
			{Name: "Deleted Product", Qty: 3},
		}},
	}
	require.Equal(t, float64(600), TotalCOGS(sales, products))
}

func TestTopProductTieBreaksLexicographically(t *testing.T) {
	sales := []pos.Sale{
		{Items: []pos.SaleItem{{Name: "Zebra", Qty: 3}}},
		{Items: []pos.SaleItem{{Name: "Apple", Qty: 3}}},
	}
	require.Equal(t, "Apple", TopProduct(sales))
	require.Equal(t, "", TopProduct(nil))
}

func TestTopProductAccumulatesAcrossSales(t *testing.T) {
	sales := []pos.Sale{
		{Items: []pos.SaleItem{{Name: "Mouse", Qty: 2}, {Name: "Laptop", Qty: 3}}},
		{Items: []pos.SaleItem{{Name: "Mouse", Qty: 2}}},
	}
	require.Equal(t, "Mouse", TopProduct(sales))
}

func TestLowStockBoundary(t *testing.T) {
	products := []pos.Product{
		{ID: "p1", Stock: 5, MinStock: 5},
		{ID: "p2", Stock: 6, MinStock: 5},
		{ID: "p3", Stock: 0, MinStock: 5},
	}
	low := LowStock(products)
	require.Len(t, low, 2)
	require.Equal(t, "p1", low[0].ID)
	require.Equal(t, "p3", low[1].ID)
}
