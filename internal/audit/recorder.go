// Package audit appends audit entries to the document store.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lababil/lababil-pos/internal/docstore"
	"github.com/lababil/lababil-pos/internal/shared"
)

// Recorder writes audit entries to the audit collection.
type Recorder struct {
	store docstore.Store
	now   func() time.Time
}

// NewRecorder constructs a Recorder.
func NewRecorder(store docstore.Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record assigns an ID and timestamp and persists the entry.
func (r *Recorder) Record(ctx context.Context, entry shared.AuditLog) error {
	entry.ID = uuid.NewString()
	entry.At = r.now().UTC()
	return r.store.CreateWithID(ctx, docstore.CollectionAudit, entry.ID, entry)
}
