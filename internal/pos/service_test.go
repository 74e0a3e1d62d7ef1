package pos

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lababil/lababil-pos/internal/docstore"
	"github.com/lababil/lababil-pos/internal/localstore"
	"github.com/lababil/lababil-pos/internal/shared"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func adminCtx() context.Context {
	return shared.ContextWithIdentity(context.Background(), shared.Identity{Username: "admin", Role: shared.RoleAdmin})
}

func newTestService(t *testing.T) (*Service, *docstore.Memory, *localstore.Memory) {
	t.Helper()
	store := docstore.NewMemory()
	cache := localstore.NewMemory()
	state := NewState(cache, NewBroker(), testLogger())
	service := NewService(store, state, cache, nil, testLogger())
	return service, store, cache
}

func seedProduct(t *testing.T, service *Service, store *docstore.Memory, product Product) {
	t.Helper()
	require.NoError(t, store.CreateWithID(context.Background(), docstore.CollectionProducts, product.ID, product))
	service.State().AddProduct(context.Background(), product)
}

func TestCommitSaleDecrementsStockAndPrepends(t *testing.T) {
	service, store, cache := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 5, Category: "Electronics", MinStock: 5})

	sale, err := service.CommitSale(adminCtx(), SaleInput{
		Customer: "Budi Santoso",
		Items:    []SaleItemInput{{ProductID: "p1", Qty: 3, Price: 1000}},
	})
	require.NoError(t, err)
	require.Equal(t, float64(3000), sale.Total)
	require.Equal(t, StatusCompleted, sale.Status)
	require.Equal(t, "admin", sale.CreatedBy)

	product, ok := service.State().Product("p1")
	require.True(t, ok)
	require.Equal(t, 2, product.Stock)

	sales := service.State().Sales()
	require.Len(t, sales, 1)
	require.Equal(t, sale.ID, sales[0].ID)

	docs, err := store.ReadAll(context.Background(), docstore.CollectionSales)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	raw, ok := cache.Get(localstore.KeyData)
	require.True(t, ok)
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	require.Len(t, snap.Sales, 1)
	require.Equal(t, 2, snap.Products[0].Stock)
}

func TestCommitSaleRejectsInsufficientStock(t *testing.T) {
	service, store, _ := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 5})

	_, err := service.CommitSale(adminCtx(), SaleInput{
		Customer: "Budi Santoso",
		Items:    []SaleItemInput{{ProductID: "p1", Qty: 6, Price: 1000}},
	})
	require.True(t, shared.IsValidation(err))

	product, _ := service.State().Product("p1")
	require.Equal(t, 5, product.Stock)
	require.Empty(t, service.State().Sales())
}

func TestCommitSaleRejectsAggregateOverStock(t *testing.T) {
	service, store, _ := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 5})

	// individually each line fits, together they exceed stock
	_, err := service.CommitSale(adminCtx(), SaleInput{
		Customer: "Budi Santoso",
		Items: []SaleItemInput{
			{ProductID: "p1", Qty: 3, Price: 1000},
			{ProductID: "p1", Qty: 3, Price: 1000},
		},
	})
	require.True(t, shared.IsValidation(err))

	product, _ := service.State().Product("p1")
	require.Equal(t, 5, product.Stock)
	require.Empty(t, service.State().Sales())

	// the exact remaining stock split across two lines still commits
	_, err = service.CommitSale(adminCtx(), SaleInput{
		Customer: "Budi Santoso",
		Items: []SaleItemInput{
			{ProductID: "p1", Qty: 3, Price: 1000},
			{ProductID: "p1", Qty: 2, Price: 1000},
		},
	})
	require.NoError(t, err)
	product, _ = service.State().Product("p1")
	require.Equal(t, 0, product.Stock)
}

func TestCommitSaleValidation(t *testing.T) {
	service, store, _ := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 5})

	cases := []struct {
		name  string
		input SaleInput
	}{
		{"short customer", SaleInput{Customer: "B", Items: []SaleItemInput{{ProductID: "p1", Qty: 1, Price: 10}}}},
		{"no items", SaleInput{Customer: "Budi"}},
		{"zero qty", SaleInput{Customer: "Budi", Items: []SaleItemInput{{ProductID: "p1", Qty: 0, Price: 10}}}},
		{"negative price", SaleInput{Customer: "Budi", Items: []SaleItemInput{{ProductID: "p1", Qty: 1, Price: -1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CommitSale(adminCtx(), tc.input)
			require.True(t, shared.IsValidation(err))
		})
	}
}

func TestCommitSaleUnknownProduct(t *testing.T) {
	service, _, _ := newTestService(t)
	_, err := service.CommitSale(adminCtx(), SaleInput{
		Customer: "Budi",
		Items:    []SaleItemInput{{ProductID: "missing", Qty: 1, Price: 10}},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCommitSalePersistFailureLeavesStateUntouched(t *testing.T) {
	service, store, cache := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 5})
	before := service.State().Snapshot()
	cachedBefore, _ := cache.Get(localstore.KeyData)

	store.FailNext = errors.New("connection reset")
	_, err := service.CommitSale(adminCtx(), SaleInput{
		Customer: "Budi",
		Items:    []SaleItemInput{{ProductID: "p1", Qty: 1, Price: 1000}},
	})
	require.True(t, shared.IsPersistence(err))

	require.Equal(t, before, service.State().Snapshot())
	cachedAfter, _ := cache.Get(localstore.KeyData)
	require.Equal(t, cachedBefore, cachedAfter)
}

func TestCommitSaleRoleGating(t *testing.T) {
	service, store, _ := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 10})

	input := SaleInput{Customer: "Budi", Items: []SaleItemInput{{ProductID: "p1", Qty: 1, Price: 1000}}}

	demoCtx := shared.ContextWithIdentity(context.Background(), shared.Identity{Username: "demo", Role: shared.RoleDemo})
	_, err := service.CommitSale(demoCtx, input)
	require.ErrorIs(t, err, shared.ErrForbidden)

	kasirCtx := shared.ContextWithIdentity(context.Background(), shared.Identity{Username: "kasir", Role: shared.RoleKasir})
	_, err = service.CommitSale(kasirCtx, input)
	require.NoError(t, err)

	// kasir cannot record purchases
	_, err = service.CommitPurchase(kasirCtx, PurchaseInput{
		Supplier: "PT Maju",
		Items:    []PurchaseItemInput{{ProductID: "p1", Qty: 1, CostPrice: 500}},
	})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCommitPurchaseIncrementsStockAndRaisesCost(t *testing.T) {
	service, store, _ := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, CostPrice: 300, Stock: 2})

	purchase, err := service.CommitPurchase(adminCtx(), PurchaseInput{
		Supplier: "PT Maju Jaya",
		Items:    []PurchaseItemInput{{ProductID: "p1", Qty: 4, CostPrice: 500}},
	})
	require.NoError(t, err)
	require.Equal(t, 4, purchase.TotalItems)
	require.Equal(t, float64(2000), purchase.TotalCost)

	product, _ := service.State().Product("p1")
	require.Equal(t, 6, product.Stock)
	require.Equal(t, float64(500), product.CostPrice)

	// a cheaper purchase never lowers the recorded cost
	_, err = service.CommitPurchase(adminCtx(), PurchaseInput{
		Supplier: "PT Maju Jaya",
		Items:    []PurchaseItemInput{{ProductID: "p1", Qty: 1, CostPrice: 200}},
	})
	require.NoError(t, err)
	product, _ = service.State().Product("p1")
	require.Equal(t, 7, product.Stock)
	require.Equal(t, float64(500), product.CostPrice)
}

func TestCommitPurchaseValidation(t *testing.T) {
	service, store, _ := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 2})

	_, err := service.CommitPurchase(adminCtx(), PurchaseInput{
		Supplier: "P",
		Items:    []PurchaseItemInput{{ProductID: "p1", Qty: 1, CostPrice: 100}},
	})
	require.True(t, shared.IsValidation(err))

	_, err = service.CommitPurchase(adminCtx(), PurchaseInput{
		Supplier: "PT Maju",
		Items:    []PurchaseItemInput{{ProductID: "p1", Qty: 1, CostPrice: 0}},
	})
	require.True(t, shared.IsValidation(err))
}

func TestAddProductDefaultsMinStock(t *testing.T) {
	service, _, _ := newTestService(t)
	product, err := service.AddProduct(adminCtx(), ProductInput{
		Name: "Mouse", Price: 50, Stock: 10, Category: "Electronics",
	})
	require.NoError(t, err)
	require.Equal(t, 5, product.MinStock)
	require.NotEmpty(t, product.ID)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	service, store, _ := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 5, Category: "Electronics", MinStock: 5})

	updated := Product{ID: "p1", Name: "Laptop Pro", Price: 1500, Stock: 5, Category: "Electronics", MinStock: 5}
	require.NoError(t, service.UpdateProduct(adminCtx(), updated))
	product, _ := service.State().Product("p1")
	require.Equal(t, "Laptop Pro", product.Name)

	require.NoError(t, service.DeleteProduct(adminCtx(), "p1"))
	_, ok := service.State().Product("p1")
	require.False(t, ok)

	require.ErrorIs(t, service.DeleteProduct(adminCtx(), "p1"), shared.ErrNotFound)
	require.ErrorIs(t, service.UpdateProduct(adminCtx(), updated), shared.ErrNotFound)
}

func TestAddCategoryCaseInsensitiveDedupe(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.AddCategory(adminCtx(), "Books")
	require.NoError(t, err)

	_, err = service.AddCategory(adminCtx(), "books")
	require.ErrorIs(t, err, shared.ErrDuplicate)

	require.Len(t, service.State().Categories(), 1)
}

func TestSaveSettingsUpserts(t *testing.T) {
	service, store, _ := newTestService(t)

	settings := DefaultSettings()
	settings.TaxRate = 12
	require.NoError(t, service.SaveSettings(adminCtx(), settings))
	require.Equal(t, float64(12), service.State().Settings().TaxRate)

	settings.TaxRate = 10
	require.NoError(t, service.SaveSettings(adminCtx(), settings))
	require.Equal(t, float64(10), service.State().Settings().TaxRate)

	docs, err := store.ReadAll(context.Background(), docstore.CollectionSettings)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestSaveSettingsValidation(t *testing.T) {
	service, _, _ := newTestService(t)

	bad := DefaultSettings()
	bad.CompanyName = "  "
	require.True(t, shared.IsValidation(service.SaveSettings(adminCtx(), bad)))

	bad = DefaultSettings()
	bad.TaxRate = 120
	require.True(t, shared.IsValidation(service.SaveSettings(adminCtx(), bad)))
}

func TestNextTxIDAvoidsCollisions(t *testing.T) {
	service, store, _ := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 10})

	fixed := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	input := SaleInput{Customer: "Budi", Items: []SaleItemInput{{ProductID: "p1", Qty: 1, Price: 1000}}}
	first, err := service.CommitSale(adminCtx(), input)
	require.NoError(t, err)
	second, err := service.CommitSale(adminCtx(), input)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestMigrateLocalToRemoteRunsOnce(t *testing.T) {
	service, store, cache := newTestService(t)

	blob, err := json.Marshal(Snapshot{
		Products:   []Product{{ID: "p1", Name: "Laptop", Price: 1000, Stock: 5}},
		Categories: []Category{{ID: "Books", Name: "Books"}},
		Settings:   DefaultSettings(),
	})
	require.NoError(t, err)
	require.NoError(t, cache.Set(localstore.KeyData, string(blob)))

	require.NoError(t, service.MigrateLocalToRemote(adminCtx()))

	docs, err := store.ReadAll(context.Background(), docstore.CollectionProducts)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, done := cache.Get(localstore.KeyMigrationDone)
	require.True(t, done)

	// second run is a no-op even with new local data
	require.NoError(t, service.MigrateLocalToRemote(adminCtx()))
	docs, err = store.ReadAll(context.Background(), docstore.CollectionProducts)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestExportCarriesProvenance(t *testing.T) {
	service, store, _ := newTestService(t)
	seedProduct(t, service, store, Product{ID: "p1", Name: "Laptop", Price: 1000, Stock: 5})

	export, err := service.Export(adminCtx())
	require.NoError(t, err)
	require.Equal(t, ExportVersion, export.Version)
	require.Equal(t, "admin", export.ExportedBy)
	require.Len(t, export.Products, 1)
}
