package pos

// Receipt carries the figures a receipt renders: the sale, the company
// header and the tax math per current settings. Rendering itself lives
// outside this core.
type Receipt struct {
	Sale        Sale    `json:"sale"`
	CompanyName string  `json:"companyName"`
	Currency    string  `json:"currency"`
	Subtotal    float64 `json:"subtotal"`
	TaxRate     float64 `json:"taxRate"`
	Tax         float64 `json:"tax"`
	GrandTotal  float64 `json:"grandTotal"`
}

// BuildReceipt computes receipt figures for a committed sale.
func BuildReceipt(sale Sale, settings Settings) Receipt {
	tax := sale.Total * settings.TaxRate / 100
	return Receipt{
		Sale:        sale,
		CompanyName: settings.CompanyName,
		Currency:    settings.Currency,
		Subtotal:    sale.Total,
		TaxRate:     settings.TaxRate,
		Tax:         tax,
		GrandTotal:  sale.Total + tax,
	}
}
