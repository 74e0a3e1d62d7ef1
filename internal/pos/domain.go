// Package pos holds the in-memory domain state and the transaction logic
// that reconciles it with the remote document store and the local cache.
package pos

import "time"

// DateLayout is the calendar-date form transaction dates are recorded in.
const DateLayout = "2006-01-02"

// Status tracks the lifecycle of a committed transaction. Committed
// records are immutable apart from this field; the void transition is an
// extension point and has no operation yet.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusVoid      Status = "void"
)

// Product is an active catalog entry. Stock never goes negative through a
// committed sale; deleting a product removes it from the catalog only,
// historical line items keep their snapshots.
type Product struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	CostPrice float64 `json:"costPrice"`
	Stock     int     `json:"stock"`
	Category  string  `json:"category"`
	MinStock  int     `json:"minStock"`
	Supplier  string  `json:"supplier"`
}

// SaleItem is a line item with name and unit price captured at sale time.
type SaleItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}

// Sale is a committed sales transaction.
type Sale struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	Customer  string     `json:"customer"`
	Phone     string     `json:"phone"`
	Items     []SaleItem `json:"items"`
	Total     float64    `json:"total"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy string     `json:"createdBy"`
}

// PurchaseItem is a line item with name and unit cost captured at
// purchase time.
type PurchaseItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	CostPrice float64 `json:"costPrice"`
}

// Purchase is a committed purchase transaction.
type Purchase struct {
	ID         string         `json:"id"`
	Date       string         `json:"date"`
	Supplier   string         `json:"supplier"`
	Phone      string         `json:"phone"`
	Items      []PurchaseItem `json:"items"`
	TotalItems int            `json:"totalItems"`
	TotalCost  float64        `json:"totalCost"`
	Status     Status         `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
	CreatedBy  string         `json:"createdBy"`
}

// Customer is an address-book entry. Sales reference customers by name
// only; the collection itself is read-only for now.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Category names are unique case-insensitively within the active set.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Settings is the per-tenant singleton configuration.
type Settings struct {
	CompanyName       string  `json:"companyName"`
	TaxRate           float64 `json:"taxRate"`
	LowStockThreshold int     `json:"lowStockThreshold"`
	Currency          string  `json:"currency"`
	DarkMode          bool    `json:"darkMode"`
}

// DefaultSettings returns the settings used before any are persisted.
func DefaultSettings() Settings {
	return Settings{
		CompanyName:       "Lababil Solution",
		TaxRate:           11,
		LowStockThreshold: 10,
		Currency:          "IDR",
	}
}

// DefaultCategories seeds the catalog when both the remote store and the
// local cache are empty.
func DefaultCategories() []Category {
	names := []string{"Electronics", "Clothing", "Books", "Home & Garden", "Sports"}
	out := make([]Category, 0, len(names))
	for _, name := range names {
		out = append(out, Category{ID: name, Name: name})
	}
	return out
}

// SaleInput describes a sale before commit.
type SaleInput struct {
	Customer string
	Phone    string
	Items    []SaleItemInput
}

// SaleItemInput references a product and carries the unit price the
// cashier confirmed, which may differ from the catalog price.
type SaleItemInput struct {
	ProductID string
	Qty       int
	Price     float64
}

// PurchaseInput describes a purchase before commit.
type PurchaseInput struct {
	Supplier string
	Phone    string
	Items    []PurchaseItemInput
}

// PurchaseItemInput references a product and the negotiated unit cost.
type PurchaseItemInput struct {
	ProductID string
	Qty       int
	CostPrice float64
}

// ProductInput describes a new catalog entry.
type ProductInput struct {
	Name     string
	Price    float64
	Stock    int
	Category string
	MinStock int
	Supplier string
}
