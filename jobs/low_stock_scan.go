package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lababil/lababil-pos/internal/docstore"
	"github.com/lababil/lababil-pos/internal/pos"
	"github.com/lababil/lababil-pos/internal/shared"
)

// StockNotification is the document written for every low-stock finding.
type StockNotification struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Product   string `json:"product"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"minStock"`
	Date      string `json:"date"`
}

// LowStockScanJob records a notification per product at or below its
// minimum stock. One notification per product per day: the document ID
// encodes both, so re-runs are no-ops.
type LowStockScanJob struct {
	Store  docstore.Store
	State  *pos.State
	Logger *slog.Logger
	clock  func() time.Time
}

// NewLowStockScanJob initialises the scan handler.
func NewLowStockScanJob(store docstore.Store, state *pos.State, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{
		Store:  store,
		State:  state,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil || j.State == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	day := j.now().Format(pos.DateLayout)
	var found, written int
	for _, product := range j.State.Products() {
		min := product.MinStock
		if payload.Threshold > 0 {
			min = payload.Threshold
		}
		if product.Stock > min {
			continue
		}
		found++
		note := StockNotification{
			ID:        fmt.Sprintf("lowstock:%s:%s", product.ID, day),
			ProductID: product.ID,
			Product:   product.Name,
			Stock:     product.Stock,
			MinStock:  min,
			Date:      day,
		}
		err := j.Store.CreateWithID(ctx, docstore.CollectionNotifications, note.ID, note)
		if errors.Is(err, shared.ErrDuplicate) {
			continue
		}
		if err != nil {
			logger.Error("write notification",
				slog.String("product_id", product.ID),
				slog.Any("error", err))
			return err
		}
		written++
		logger.Warn("low stock",
			slog.String("product", product.Name),
			slog.Int("stock", product.Stock),
			slog.Int("min_stock", min))
	}

	logger.Info("completed low stock scan",
		slog.Int("low", found),
		slog.Int("notified", written))
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}

func (j *LowStockScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
