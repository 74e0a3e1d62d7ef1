package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lababil/lababil-pos/internal/docstore"
	"github.com/lababil/lababil-pos/internal/localstore"
	"github.com/lababil/lababil-pos/internal/shared"
)

// AuditPort records audit entries; a nil port disables auditing.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service validates and commits mutations against State, persisting to
// the remote store first so a failed persist leaves no trace in memory or
// cache. All errors surface as result values; nothing here is fatal.
type Service struct {
	store  docstore.Store
	state  *State
	cache  localstore.KV
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the Service.
func NewService(store docstore.Store, state *State, cache localstore.KV, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		state:  state,
		cache:  cache,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// State exposes the read model.
func (s *Service) State() *State { return s.state }

// CommitSale validates the sale, persists it remotely, and only then
// applies stock deltas and prepends it to the in-memory list. A remote
// failure aborts the whole operation with no state change.
func (s *Service) CommitSale(ctx context.Context, input SaleInput) (Sale, error) {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionSales); err != nil {
		return Sale{}, err
	}

	customer := strings.TrimSpace(input.Customer)
	if len(customer) < 2 {
		return Sale{}, shared.NewValidationError("customer", "name must be at least 2 characters")
	}
	if len(input.Items) == 0 {
		return Sale{}, shared.NewValidationError("items", "add at least one item")
	}

	items := make([]SaleItem, 0, len(input.Items))
	// Stock is checked against the sum requested across line items, so two
	// lines for the same product cannot slip past a per-line check.
	requested := make(map[string]int, len(input.Items))
	var total float64
	for _, in := range input.Items {
		if in.Qty <= 0 {
			return Sale{}, shared.NewValidationError("items", "quantity must be a positive integer")
		}
		if in.Price < 0 {
			return Sale{}, shared.NewValidationError("items", "price cannot be negative")
		}
		product, ok := s.state.Product(in.ProductID)
		if !ok {
			return Sale{}, fmt.Errorf("sale item product %s: %w", in.ProductID, shared.ErrNotFound)
		}
		requested[product.ID] += in.Qty
		if requested[product.ID] > product.Stock {
			return Sale{}, shared.NewValidationError("items",
				fmt.Sprintf("insufficient stock for %s (have %d, requested %d)", product.Name, product.Stock, requested[product.ID]))
		}
		items = append(items, SaleItem{
			ProductID: product.ID,
			Name:      product.Name,
			Qty:       in.Qty,
			Price:     in.Price,
		})
		total += float64(in.Qty) * in.Price
	}

	now := s.now().UTC()
	sale := Sale{
		ID:        s.nextTxID(s.state.HasSale),
		Date:      now.Format(DateLayout),
		Customer:  customer,
		Phone:     strings.TrimSpace(input.Phone),
		Items:     items,
		Total:     total,
		Status:    StatusCompleted,
		CreatedAt: now,
		CreatedBy: identity.Username,
	}

	if err := s.store.CreateWithID(ctx, docstore.CollectionSales, sale.ID, sale); err != nil {
		return Sale{}, shared.NewPersistenceError("create", docstore.CollectionSales, err)
	}

	touched := s.state.ApplySale(ctx, sale)
	s.syncProducts(ctx, touched)
	s.record(ctx, identity, "sale:commit", "sale", sale.ID, map[string]any{
		"customer": sale.Customer,
		"total":    sale.Total,
		"items":    len(sale.Items),
	})
	return sale, nil
}

// CommitPurchase is the inbound counterpart of CommitSale: stock goes up
// and the product cost price follows the highest cost seen.
func (s *Service) CommitPurchase(ctx context.Context, input PurchaseInput) (Purchase, error) {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionPurchases); err != nil {
		return Purchase{}, err
	}

	supplier := strings.TrimSpace(input.Supplier)
	if len(supplier) < 2 {
		return Purchase{}, shared.NewValidationError("supplier", "name must be at least 2 characters")
	}
	if len(input.Items) == 0 {
		return Purchase{}, shared.NewValidationError("items", "add at least one item")
	}

	items := make([]PurchaseItem, 0, len(input.Items))
	var totalItems int
	var totalCost float64
	for _, in := range input.Items {
		if in.Qty <= 0 {
			return Purchase{}, shared.NewValidationError("items", "quantity must be a positive integer")
		}
		if in.CostPrice <= 0 {
			return Purchase{}, shared.NewValidationError("items", "cost price must be greater than 0")
		}
		product, ok := s.state.Product(in.ProductID)
		if !ok {
			return Purchase{}, fmt.Errorf("purchase item product %s: %w", in.ProductID, shared.ErrNotFound)
		}
		items = append(items, PurchaseItem{
			ProductID: product.ID,
			Name:      product.Name,
			Qty:       in.Qty,
			CostPrice: in.CostPrice,
		})
		totalItems += in.Qty
		totalCost += float64(in.Qty) * in.CostPrice
	}

	now := s.now().UTC()
	purchase := Purchase{
		ID:         s.nextTxID(s.state.HasPurchase),
		Date:       now.Format(DateLayout),
		Supplier:   supplier,
		Phone:      strings.TrimSpace(input.Phone),
		Items:      items,
		TotalItems: totalItems,
		TotalCost:  totalCost,
		Status:     StatusCompleted,
		CreatedAt:  now,
		CreatedBy:  identity.Username,
	}

	if err := s.store.CreateWithID(ctx, docstore.CollectionPurchases, purchase.ID, purchase); err != nil {
		return Purchase{}, shared.NewPersistenceError("create", docstore.CollectionPurchases, err)
	}

	touched := s.state.ApplyPurchase(ctx, purchase)
	s.syncProducts(ctx, touched)
	s.record(ctx, identity, "purchase:commit", "purchase", purchase.ID, map[string]any{
		"supplier":  purchase.Supplier,
		"totalCost": purchase.TotalCost,
		"items":     len(purchase.Items),
	})
	return purchase, nil
}

// AddProduct creates a catalog entry.
func (s *Service) AddProduct(ctx context.Context, input ProductInput) (Product, error) {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionProducts); err != nil {
		return Product{}, err
	}
	if err := validateProduct(input); err != nil {
		return Product{}, err
	}

	minStock := input.MinStock
	if minStock <= 0 {
		minStock = 5
	}
	product := Product{
		ID: s.nextTxID(func(id string) bool {
			_, ok := s.state.Product(id)
			return ok
		}),
		Name:     strings.TrimSpace(input.Name),
		Price:    input.Price,
		Stock:    input.Stock,
		Category: input.Category,
		MinStock: minStock,
		Supplier: strings.TrimSpace(input.Supplier),
	}

	if err := s.store.CreateWithID(ctx, docstore.CollectionProducts, product.ID, product); err != nil {
		return Product{}, shared.NewPersistenceError("create", docstore.CollectionProducts, err)
	}
	s.state.AddProduct(ctx, product)
	s.record(ctx, identity, "product:add", "product", product.ID, map[string]any{"name": product.Name})
	return product, nil
}

// UpdateProduct replaces an existing catalog entry.
func (s *Service) UpdateProduct(ctx context.Context, product Product) error {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionProducts); err != nil {
		return err
	}
	if _, ok := s.state.Product(product.ID); !ok {
		return fmt.Errorf("product %s: %w", product.ID, shared.ErrNotFound)
	}
	if err := validateProduct(ProductInput{
		Name:     product.Name,
		Price:    product.Price,
		Stock:    product.Stock,
		Category: product.Category,
	}); err != nil {
		return err
	}

	if err := s.store.Update(ctx, docstore.CollectionProducts, product.ID, product); err != nil {
		return shared.NewPersistenceError("update", docstore.CollectionProducts, err)
	}
	s.state.UpdateProduct(ctx, product)
	s.record(ctx, identity, "product:update", "product", product.ID, map[string]any{"name": product.Name})
	return nil
}

// DeleteProduct removes the product from the active catalog. Historical
// line items keep their snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionProducts); err != nil {
		return err
	}
	if _, ok := s.state.Product(id); !ok {
		return fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}

	if err := s.store.Delete(ctx, docstore.CollectionProducts, id); err != nil {
		return shared.NewPersistenceError("delete", docstore.CollectionProducts, err)
	}
	s.state.RemoveProduct(ctx, id)
	s.record(ctx, identity, "product:delete", "product", id, nil)
	return nil
}

// AddCategory adds a category name. Comparison against the active set is
// case-insensitive, so adding "Books" then "books" keeps one category.
func (s *Service) AddCategory(ctx context.Context, name string) (Category, error) {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionProducts); err != nil {
		return Category{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, shared.NewValidationError("category", "name cannot be empty")
	}
	if s.state.HasCategory(name) {
		return Category{}, fmt.Errorf("category %q: %w", name, shared.ErrDuplicate)
	}

	category := Category{ID: name, Name: name}
	if err := s.store.CreateWithID(ctx, docstore.CollectionCategories, category.ID, category); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			// Another instance won the race; treat like a local duplicate.
			return Category{}, fmt.Errorf("category %q: %w", name, shared.ErrDuplicate)
		}
		return Category{}, shared.NewPersistenceError("create", docstore.CollectionCategories, err)
	}
	s.state.AddCategory(ctx, category)
	s.record(ctx, identity, "category:add", "category", category.ID, nil)
	return category, nil
}

// settingsDocID is the fixed ID of the settings singleton document.
const settingsDocID = "settings"

// SaveSettings validates and persists the singleton settings.
func (s *Service) SaveSettings(ctx context.Context, settings Settings) error {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionSettings); err != nil {
		return err
	}
	if strings.TrimSpace(settings.CompanyName) == "" {
		return shared.NewValidationError("companyName", "company name cannot be empty")
	}
	if settings.TaxRate < 0 || settings.TaxRate > 100 {
		return shared.NewValidationError("taxRate", "tax rate must be between 0 and 100")
	}
	if settings.LowStockThreshold < 0 {
		return shared.NewValidationError("lowStockThreshold", "threshold cannot be negative")
	}

	err := s.store.Update(ctx, docstore.CollectionSettings, settingsDocID, settings)
	if errors.Is(err, shared.ErrNotFound) {
		err = s.store.CreateWithID(ctx, docstore.CollectionSettings, settingsDocID, settings)
	}
	if err != nil {
		return shared.NewPersistenceError("update", docstore.CollectionSettings, err)
	}
	s.state.SetSettings(ctx, settings)
	s.record(ctx, identity, "settings:save", "settings", settingsDocID, nil)
	return nil
}

// Export returns the full snapshot wrapped with provenance.
func (s *Service) Export(ctx context.Context) (Export, error) {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionSettings); err != nil {
		return Export{}, err
	}
	return Export{
		Snapshot:   s.state.Snapshot(),
		ExportDate: s.now().UTC(),
		Version:    ExportVersion,
		ExportedBy: identity.Username,
	}, nil
}

// Import merges a snapshot document over the current state. A malformed
// document aborts with ImportFormatError and prior state is retained;
// per-key shape problems skip that key only.
func (s *Service) Import(ctx context.Context, raw []byte) error {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionSettings); err != nil {
		return err
	}
	next, err := MergeImport(s.state.Snapshot(), raw)
	if err != nil {
		return err
	}
	s.state.Replace(ctx, next)
	s.record(ctx, identity, "snapshot:import", "snapshot", "", nil)
	return nil
}

// MigrateLocalToRemote seeds the remote store from the local cache blob
// once, mirroring the original migration from browser storage. Documents
// that already exist remotely are left alone.
func (s *Service) MigrateLocalToRemote(ctx context.Context) error {
	identity := shared.IdentityFromContext(ctx)
	if err := identity.Require(shared.SectionSettings); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	if _, done := s.cache.Get(localstore.KeyMigrationDone); done {
		return nil
	}
	raw, ok := s.cache.Get(localstore.KeyData)
	if !ok || raw == "" {
		return s.cache.Set(localstore.KeyMigrationDone, "true")
	}

	snap, err := MergeImport(Snapshot{Settings: DefaultSettings()}, []byte(raw))
	if err != nil {
		return err
	}

	migrated := 0
	for _, p := range snap.Products {
		if s.seed(ctx, docstore.CollectionProducts, p.ID, p) {
			migrated++
		}
	}
	for _, sale := range snap.Sales {
		if s.seed(ctx, docstore.CollectionSales, sale.ID, sale) {
			migrated++
		}
	}
	for _, purchase := range snap.Purchases {
		if s.seed(ctx, docstore.CollectionPurchases, purchase.ID, purchase) {
			migrated++
		}
	}
	for _, c := range snap.Customers {
		if s.seed(ctx, docstore.CollectionCustomers, c.ID, c) {
			migrated++
		}
	}
	for _, c := range snap.Categories {
		if s.seed(ctx, docstore.CollectionCategories, c.ID, c) {
			migrated++
		}
	}
	s.seed(ctx, docstore.CollectionSettings, settingsDocID, snap.Settings)

	s.logger.Info("migration completed", slog.Int("documents", migrated))
	return s.cache.Set(localstore.KeyMigrationDone, "true")
}

func (s *Service) seed(ctx context.Context, collection, id string, data any) bool {
	if id == "" {
		return false
	}
	err := s.store.CreateWithID(ctx, collection, id, data)
	if err == nil {
		return true
	}
	if !errors.Is(err, shared.ErrDuplicate) {
		s.logger.Warn("migration: seed failed",
			slog.String("collection", collection), slog.String("id", id), slog.Any("error", err))
	}
	return false
}

// nextTxID returns a timestamp-derived identifier guaranteed not to
// collide with any record visible in this session.
func (s *Service) nextTxID(exists func(string) bool) string {
	ts := s.now().UnixMilli()
	id := strconv.FormatInt(ts, 10)
	for exists(id) {
		ts++
		id = strconv.FormatInt(ts, 10)
	}
	return id
}

// syncProducts pushes updated stock back to the remote store. Failures
// are logged rather than unwound: the committed transaction is already
// durable, and the next full reload reconciles product stock.
func (s *Service) syncProducts(ctx context.Context, products []Product) {
	for _, product := range products {
		if err := s.store.Update(ctx, docstore.CollectionProducts, product.ID, product); err != nil {
			s.logger.Warn("product stock sync failed",
				slog.String("product_id", product.ID), slog.Any("error", err))
		}
	}
}

func (s *Service) record(ctx context.Context, identity shared.Identity, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		Actor:    identity.Username,
		Role:     identity.Role,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func validateProduct(input ProductInput) error {
	if len(strings.TrimSpace(input.Name)) < 2 {
		return shared.NewValidationError("name", "product name must be at least 2 characters")
	}
	if input.Price <= 0 {
		return shared.NewValidationError("price", "price must be greater than 0")
	}
	if input.Stock < 0 {
		return shared.NewValidationError("stock", "stock cannot be negative")
	}
	if strings.TrimSpace(input.Category) == "" {
		return shared.NewValidationError("category", "select a category")
	}
	return nil
}
