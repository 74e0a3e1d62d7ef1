// Package docstore provides the remote document store contract the state
// layer persists through. Documents are schemaless JSON values keyed by
// collection name and string ID.
package docstore

import "context"

// Collection names used by the application.
const (
	CollectionProducts      = "products"
	CollectionSales         = "sales"
	CollectionPurchases     = "purchases"
	CollectionCustomers     = "customers"
	CollectionCategories    = "categories"
	CollectionSettings      = "settings"
	CollectionAudit         = "audit"
	CollectionNotifications = "notifications"
)

// Document is a raw record as stored: the JSON-encoded body plus its ID.
type Document struct {
	ID   string
	Data []byte
}

// Operator is a comparison operator for QueryByField.
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
)

// Store is the contract the core depends on. Implementations must be safe
// for concurrent use.
type Store interface {
	// CreateWithID stores data under the given ID. It fails with
	// shared.ErrDuplicate when the ID already exists in the collection.
	CreateWithID(ctx context.Context, collection, id string, data any) error
	// ReadAll returns every document in the collection.
	ReadAll(ctx context.Context, collection string) ([]Document, error)
	// Update replaces the document body. It fails with shared.ErrNotFound
	// when the ID is absent.
	Update(ctx context.Context, collection, id string, data any) error
	// Delete removes the document. Deleting an absent ID is not an error.
	Delete(ctx context.Context, collection, id string) error
	// QueryByField returns documents whose top-level field matches value
	// under the operator. Ordering comparisons only apply to numbers and
	// strings; mismatched types never match.
	QueryByField(ctx context.Context, collection, field string, op Operator, value any) ([]Document, error)
}
