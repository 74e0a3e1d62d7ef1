package pos

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lababil/lababil-pos/internal/localstore"
)

// State is the authoritative in-memory snapshot for the session: the
// single read model for every surface and the write target for every
// transaction. Each mutation updates memory, the local cache blob and the
// change notifier in the same call.
type State struct {
	mu         sync.RWMutex
	products   []Product
	sales      []Sale // most-recent-first
	purchases  []Purchase // most-recent-first
	customers  []Customer
	categories []Category
	settings   Settings

	cache    localstore.KV
	notifier Notifier
	logger   *slog.Logger
}

// NewState constructs an empty State around the given cache and notifier.
func NewState(cache localstore.KV, notifier Notifier, logger *slog.Logger) *State {
	return &State{
		cache:    cache,
		notifier: notifier,
		settings: DefaultSettings(),
		logger:   logger,
	}
}

// Snapshot returns a deep copy of every collection.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Products:   append([]Product(nil), s.products...),
		Sales:      copySales(s.sales),
		Purchases:  copyPurchases(s.purchases),
		Customers:  append([]Customer(nil), s.customers...),
		Categories: append([]Category(nil), s.categories...),
		Settings:   s.settings,
	}
}

func copySales(sales []Sale) []Sale {
	out := make([]Sale, len(sales))
	for i, sale := range sales {
		sale.Items = append([]SaleItem(nil), sale.Items...)
		out[i] = sale
	}
	return out
}

func copyPurchases(purchases []Purchase) []Purchase {
	out := make([]Purchase, len(purchases))
	for i, purchase := range purchases {
		purchase.Items = append([]PurchaseItem(nil), purchase.Items...)
		out[i] = purchase
	}
	return out
}

// Products returns the active catalog.
func (s *State) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...)
}

// Product looks up a catalog entry by ID.
func (s *State) Product(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Sales returns all sales, most recent first.
func (s *State) Sales() []Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySales(s.sales)
}

// Sale looks up a sale by ID.
func (s *State) Sale(id string) (Sale, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sale := range s.sales {
		if sale.ID == id {
			sale.Items = append([]SaleItem(nil), sale.Items...)
			return sale, true
		}
	}
	return Sale{}, false
}

// RecentSales returns at most n of the latest sales.
func (s *State) RecentSales(n int) []Sale {
	sales := s.Sales()
	if len(sales) > n {
		sales = sales[:n]
	}
	return sales
}

// Purchases returns all purchases, most recent first.
func (s *State) Purchases() []Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPurchases(s.purchases)
}

// RecentPurchases returns at most n of the latest purchases.
func (s *State) RecentPurchases(n int) []Purchase {
	purchases := s.Purchases()
	if len(purchases) > n {
		purchases = purchases[:n]
	}
	return purchases
}

// HasSale reports whether a sale with the ID exists in the session.
func (s *State) HasSale(id string) bool {
	_, ok := s.Sale(id)
	return ok
}

// HasPurchase reports whether a purchase with the ID exists.
func (s *State) HasPurchase(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, purchase := range s.purchases {
		if purchase.ID == id {
			return true
		}
	}
	return false
}

// Customers returns the address book sorted by name.
func (s *State) Customers() []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Customer(nil), s.customers...)
}

// Categories returns the active category set in display order.
func (s *State) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category(nil), s.categories...)
}

// HasCategory reports whether name exists, compared case-insensitively.
func (s *State) HasCategory(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// Settings returns the current singleton settings.
func (s *State) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// ApplySale prepends the sale and subtracts line quantities from stock.
// Called only after the record persisted remotely; stock is re-read here,
// immediately before decrementing (last-write-wins, see design notes).
// Returns the products whose stock changed.
func (s *State) ApplySale(ctx context.Context, sale Sale) []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	var touched []Product
	for _, item := range sale.Items {
		for i := range s.products {
			if s.products[i].ID == item.ProductID {
				s.products[i].Stock -= item.Qty
				touched = append(touched, s.products[i])
				break
			}
		}
	}
	s.sales = append([]Sale{sale}, s.sales...)
	s.flushLocked(ctx, "sales")
	return touched
}

// ApplyPurchase prepends the purchase, adds line quantities to stock and
// raises the product cost price when the purchase cost exceeds it
// (highest-cost-seen policy). Returns the products that changed.
func (s *State) ApplyPurchase(ctx context.Context, purchase Purchase) []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	var touched []Product
	for _, item := range purchase.Items {
		for i := range s.products {
			if s.products[i].ID == item.ProductID {
				s.products[i].Stock += item.Qty
				if item.CostPrice > s.products[i].CostPrice {
					s.products[i].CostPrice = item.CostPrice
				}
				touched = append(touched, s.products[i])
				break
			}
		}
	}
	s.purchases = append([]Purchase{purchase}, s.purchases...)
	s.flushLocked(ctx, "purchases")
	return touched
}

// AddProduct appends the product to the catalog.
func (s *State) AddProduct(ctx context.Context, product Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, product)
	s.flushLocked(ctx, "products")
}

// UpdateProduct replaces the catalog entry with the same ID.
func (s *State) UpdateProduct(ctx context.Context, product Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == product.ID {
			s.products[i] = product
			s.flushLocked(ctx, "products")
			return true
		}
	}
	return false
}

// RemoveProduct drops the product from the active catalog. Historical
// transactions keep their snapshots.
func (s *State) RemoveProduct(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			s.flushLocked(ctx, "products")
			return true
		}
	}
	return false
}

// AddCategory appends the category and re-sorts the set for display.
func (s *State) AddCategory(ctx context.Context, category Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, category)
	sortCategories(s.categories)
	s.flushLocked(ctx, "categories")
}

// SetSettings replaces the singleton settings.
func (s *State) SetSettings(ctx context.Context, settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.flushLocked(ctx, "settings")
}

// Replace swaps in a complete snapshot, used by import and by the loader
// after a full reload.
func (s *State) Replace(ctx context.Context, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]Product(nil), snap.Products...)
	s.sales = copySales(snap.Sales)
	s.purchases = copyPurchases(snap.Purchases)
	s.customers = append([]Customer(nil), snap.Customers...)
	s.categories = append([]Category(nil), snap.Categories...)
	sortCategories(s.categories)
	s.settings = snap.Settings
	s.flushLocked(ctx, "all")
}

// flushLocked writes the snapshot blob to the local cache and publishes a
// change event. Cache failures are logged, never fatal: the remote store
// already holds the data and the cache is fallback only.
func (s *State) flushLocked(ctx context.Context, collection string) {
	raw, err := json.Marshal(s.snapshotLocked())
	if err != nil {
		s.logger.Error("state: marshal snapshot", slog.Any("error", err))
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(localstore.KeyData, string(raw)); err != nil {
			s.logger.Warn("state: cache flush", slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		s.notifier.Publish(ctx, Event{Collection: collection, At: time.Now().UTC()})
	}
}

// sortCategories orders names for display using Indonesian collation,
// matching the locale the UI formats in.
func sortCategories(categories []Category) {
	c := collate.New(language.Indonesian, collate.IgnoreCase)
	sort.SliceStable(categories, func(i, j int) bool {
		return c.CompareString(categories[i].Name, categories[j].Name) < 0
	})
}
