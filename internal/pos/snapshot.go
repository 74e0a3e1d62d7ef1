package pos

import (
	"encoding/json"
	"time"

	"github.com/lababil/lababil-pos/internal/shared"
)

// Snapshot is the persisted local blob: one JSON object with a top-level
// key per entity collection, verbatim. It doubles as the export/import
// format and the offline fallback payload.
type Snapshot struct {
	Products   []Product  `json:"products"`
	Sales      []Sale     `json:"sales"`
	Purchases  []Purchase `json:"purchases"`
	Customers  []Customer `json:"customers"`
	Categories []Category `json:"categories"`
	Settings   Settings   `json:"settings"`
}

// ExportVersion identifies the snapshot layout.
const ExportVersion = "2.0.0"

// Export wraps a Snapshot with provenance for backup files.
type Export struct {
	Snapshot
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
	ExportedBy string    `json:"exportedBy"`
}

// MergeImport parses raw into snapshot fields layered over prior.
// A document that is not a JSON object aborts with ImportFormatError and
// prior is returned untouched. A known key whose value has the wrong
// container shape is skipped, as are unknown keys.
func MergeImport(prior Snapshot, raw []byte) (Snapshot, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return prior, shared.NewImportFormatError("document is not a JSON object")
	}
	if body == nil {
		return prior, shared.NewImportFormatError("document is empty")
	}

	next := prior
	if rawProducts, ok := body["products"]; ok {
		var products []Product
		if err := json.Unmarshal(rawProducts, &products); err == nil && products != nil {
			next.Products = products
		}
	}
	if rawSales, ok := body["sales"]; ok {
		var sales []Sale
		if err := json.Unmarshal(rawSales, &sales); err == nil && sales != nil {
			next.Sales = sales
		}
	}
	if rawPurchases, ok := body["purchases"]; ok {
		var purchases []Purchase
		if err := json.Unmarshal(rawPurchases, &purchases); err == nil && purchases != nil {
			next.Purchases = purchases
		}
	}
	if rawCustomers, ok := body["customers"]; ok {
		var customers []Customer
		if err := json.Unmarshal(rawCustomers, &customers); err == nil && customers != nil {
			next.Customers = customers
		}
	}
	if rawCategories, ok := body["categories"]; ok {
		var categories []Category
		if err := json.Unmarshal(rawCategories, &categories); err == nil && categories != nil {
			next.Categories = categories
		}
	}
	if rawSettings, ok := body["settings"]; ok {
		settings := next.Settings
		if err := json.Unmarshal(rawSettings, &settings); err == nil {
			next.Settings = settings
		}
	}
	return next, nil
}
