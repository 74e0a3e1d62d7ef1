package pos

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lababil/lababil-pos/internal/docstore"
	"github.com/lababil/lababil-pos/internal/localstore"
)

// Loader populates State from the remote store with an explicit fallback
// policy: any collection that fails to load remotely, or comes back
// empty, is taken from the local cache blob instead. Loading never fails;
// the caller always receives a usable, possibly empty, state.
type Loader struct {
	store  docstore.Store
	cache  localstore.KV
	logger *slog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(store docstore.Store, cache localstore.KV, logger *slog.Logger) *Loader {
	return &Loader{store: store, cache: cache, logger: logger}
}

// LoadAll fetches every collection concurrently and replaces the state in
// one step, which also refreshes the cache blob.
func (l *Loader) LoadAll(ctx context.Context, state *State) {
	fallback := l.cachedSnapshot()
	var snap Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Products = loadCollection(gctx, l, docstore.CollectionProducts, fallback.Products)
		return nil
	})
	g.Go(func() error {
		sales := loadCollection(gctx, l, docstore.CollectionSales, fallback.Sales)
		sort.SliceStable(sales, func(i, j int) bool { return laterTransaction(sales[i].Date, sales[i].ID, sales[j].Date, sales[j].ID) })
		snap.Sales = sales
		return nil
	})
	g.Go(func() error {
		purchases := loadCollection(gctx, l, docstore.CollectionPurchases, fallback.Purchases)
		sort.SliceStable(purchases, func(i, j int) bool {
			return laterTransaction(purchases[i].Date, purchases[i].ID, purchases[j].Date, purchases[j].ID)
		})
		snap.Purchases = purchases
		return nil
	})
	g.Go(func() error {
		customers := loadCollection(gctx, l, docstore.CollectionCustomers, fallback.Customers)
		sort.SliceStable(customers, func(i, j int) bool {
			return strings.ToLower(customers[i].Name) < strings.ToLower(customers[j].Name)
		})
		snap.Customers = customers
		return nil
	})
	g.Go(func() error {
		categories := loadCollection(gctx, l, docstore.CollectionCategories, fallback.Categories)
		if len(categories) == 0 {
			categories = DefaultCategories()
		}
		snap.Categories = categories
		return nil
	})
	g.Go(func() error {
		snap.Settings = l.loadSettings(gctx, fallback.Settings)
		return nil
	})
	_ = g.Wait()

	state.Replace(ctx, snap)
}

// cachedSnapshot reads the local blob. Same cached bytes always yield the
// same entities; a missing or corrupt blob yields an empty snapshot.
func (l *Loader) cachedSnapshot() Snapshot {
	snap := Snapshot{Settings: DefaultSettings()}
	if l.cache == nil {
		return snap
	}
	raw, ok := l.cache.Get(localstore.KeyData)
	if !ok || raw == "" {
		return snap
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		l.logger.Warn("loader: corrupt cache blob", slog.Any("error", err))
		return Snapshot{Settings: DefaultSettings()}
	}
	if snap.Settings == (Settings{}) {
		snap.Settings = DefaultSettings()
	}
	return snap
}

// loadCollection fetches one collection, falling back to the cached slice
// on error or empty result.
func loadCollection[T any](ctx context.Context, l *Loader, collection string, cached []T) []T {
	docs, err := l.store.ReadAll(ctx, collection)
	if err != nil {
		l.logger.Warn("loader: remote read failed, using cache",
			slog.String("collection", collection), slog.Any("error", err))
		return cached
	}
	entities := decodeDocs[T](l.logger, collection, docs)
	if len(entities) == 0 {
		return cached
	}
	return entities
}

// loadSettings takes the first settings document, merged over defaults.
func (l *Loader) loadSettings(ctx context.Context, cached Settings) Settings {
	docs, err := l.store.ReadAll(ctx, docstore.CollectionSettings)
	if err != nil || len(docs) == 0 {
		return cached
	}
	settings := DefaultSettings()
	if err := json.Unmarshal(docs[0].Data, &settings); err != nil {
		l.logger.Warn("loader: corrupt settings document", slog.Any("error", err))
		return cached
	}
	return settings
}

// decodeDocs unmarshals documents, skipping malformed ones so a single
// bad record never hides the rest of the collection.
func decodeDocs[T any](logger *slog.Logger, collection string, docs []docstore.Document) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var entity T
		if err := json.Unmarshal(doc.Data, &entity); err != nil {
			logger.Warn("loader: skip malformed document",
				slog.String("collection", collection), slog.String("id", doc.ID), slog.Any("error", err))
			continue
		}
		out = append(out, entity)
	}
	return out
}

// laterTransaction orders most-recent-first by calendar date, with the
// timestamp-derived ID as a deterministic tie-break within a day. IDs
// compare numerically so differing digit counts cannot misorder them;
// non-numeric IDs (imported data) fall back to string order.
func laterTransaction(dateA, idA, dateB, idB string) bool {
	if dateA != dateB {
		return dateA > dateB
	}
	numA, errA := strconv.ParseInt(idA, 10, 64)
	numB, errB := strconv.ParseInt(idB, 10, 64)
	if errA == nil && errB == nil {
		return numA > numB
	}
	return idA > idB
}
