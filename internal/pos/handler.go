package pos

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lababil/lababil-pos/internal/platform/httpx"
	"github.com/lababil/lababil-pos/internal/shared"
)

// recentLimit mirrors the dashboard's recent-activity lists.
const recentLimit = 5

// TxMetrics counts committed transactions; nil disables counting.
type TxMetrics interface {
	CountTransaction(kind string)
}

// Handler wires HTTP endpoints for the catalog, transactions, settings
// and the snapshot surface.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	metrics  TxMetrics
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, metrics TxMetrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		metrics:  metrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) countTx(kind string) {
	if h.metrics != nil {
		h.metrics.CountTransaction(kind)
	}
}

// authorize guards read endpoints the same way Service guards mutations:
// the caller's role must grant at least one of the listed sections.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, sections ...shared.Section) bool {
	identity := shared.IdentityFromContext(r.Context())
	for _, section := range sections {
		if identity.Allowed(section) {
			return true
		}
	}
	httpx.RespondError(w, shared.ErrForbidden)
	return false
}

// MountRoutes registers all routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.addProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.addCategory)
	})
	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Get("/recent", h.recentSales)
		r.Post("/", h.commitSale)
		r.Get("/{id}/receipt", h.saleReceipt)
	})
	r.Route("/purchases", func(r chi.Router) {
		r.Get("/", h.listPurchases)
		r.Get("/recent", h.recentPurchases)
		r.Post("/", h.commitPurchase)
	})
	r.Get("/customers", h.listCustomers)
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.getSettings)
		r.Put("/", h.saveSettings)
	})
	r.Route("/snapshot", func(r chi.Router) {
		r.Get("/", h.exportSnapshot)
		r.Post("/", h.importSnapshot)
	})
	r.Post("/migrate", h.migrate)
}

type saleItemRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Qty       int     `json:"qty" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

type saleRequest struct {
	Customer string            `json:"customer" validate:"required,min=2"`
	Phone    string            `json:"phone"`
	Items    []saleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type purchaseItemRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Qty       int     `json:"qty" validate:"required,gt=0"`
	CostPrice float64 `json:"costPrice" validate:"required,gt=0"`
}

type purchaseRequest struct {
	Supplier string                `json:"supplier" validate:"required,min=2"`
	Phone    string                `json:"phone"`
	Items    []purchaseItemRequest `json:"items" validate:"required,min=1,dive"`
}

type productRequest struct {
	Name     string  `json:"name" validate:"required,min=2"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Stock    int     `json:"stock" validate:"gte=0"`
	Category string  `json:"category" validate:"required"`
	MinStock int     `json:"minStock" validate:"gte=0"`
	Supplier string  `json:"supplier"`
}

type categoryRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	// the catalog serves the checkout and receiving flows too
	if !h.authorize(w, r, shared.SectionProducts, shared.SectionSales, shared.SectionPurchases) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State().Products())
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	product, err := h.service.AddProduct(r.Context(), ProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
		MinStock: req.MinStock,
		Supplier: req.Supplier,
	})
	if err != nil {
		h.logger.Warn("add product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	current, ok := h.service.State().Product(id)
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
		return
	}
	current.Name = req.Name
	current.Price = req.Price
	current.Stock = req.Stock
	current.Category = req.Category
	if req.MinStock > 0 {
		current.MinStock = req.MinStock
	}
	current.Supplier = req.Supplier
	if err := h.service.UpdateProduct(r.Context(), current); err != nil {
		h.logger.Warn("update product", slog.String("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, current)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.logger.Warn("delete product", slog.String("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.SectionProducts, shared.SectionSales, shared.SectionPurchases) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State().Categories())
}

func (h *Handler) addCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	category, err := h.service.AddCategory(r.Context(), req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, category)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.SectionSales) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State().Sales())
}

func (h *Handler) recentSales(w http.ResponseWriter, r *http.Request) {
	// recent activity feeds the dashboard, which every role can see
	if !h.authorize(w, r, shared.SectionDashboard) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State().RecentSales(recentLimit))
}

func (h *Handler) commitSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	input := SaleInput{Customer: req.Customer, Phone: req.Phone}
	for _, item := range req.Items {
		input.Items = append(input.Items, SaleItemInput{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			Price:     item.Price,
		})
	}
	sale, err := h.service.CommitSale(r.Context(), input)
	if err != nil {
		h.logger.Warn("commit sale", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.countTx("sale")
	h.logger.Info("sale committed",
		slog.String("id", sale.ID),
		slog.Float64("total", sale.Total),
		slog.Int("items", len(sale.Items)))
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) saleReceipt(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.SectionSales) {
		return
	}
	id := chi.URLParam(r, "id")
	sale, ok := h.service.State().Sale(id)
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "sale not found")
		return
	}
	httpx.JSON(w, http.StatusOK, BuildReceipt(sale, h.service.State().Settings()))
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.SectionPurchases) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State().Purchases())
}

func (h *Handler) recentPurchases(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.SectionDashboard) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State().RecentPurchases(recentLimit))
}

func (h *Handler) commitPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	input := PurchaseInput{Supplier: req.Supplier, Phone: req.Phone}
	for _, item := range req.Items {
		input.Items = append(input.Items, PurchaseItemInput{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			CostPrice: item.CostPrice,
		})
	}
	purchase, err := h.service.CommitPurchase(r.Context(), input)
	if err != nil {
		h.logger.Warn("commit purchase", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.countTx("purchase")
	h.logger.Info("purchase committed",
		slog.String("id", purchase.ID),
		slog.Float64("total_cost", purchase.TotalCost),
		slog.Int("items", len(purchase.Items)))
	httpx.JSON(w, http.StatusCreated, purchase)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.SectionSales) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State().Customers())
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, shared.SectionSettings) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State().Settings())
}

func (h *Handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	var settings Settings
	if err := httpx.DecodeJSON(r, &settings); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.SaveSettings(r.Context(), settings); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) exportSnapshot(w http.ResponseWriter, r *http.Request) {
	export, err := h.service.Export(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, export)
}

func (h *Handler) importSnapshot(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 8<<20))
	if err != nil {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Too Large", "snapshot exceeds size limit")
		return
	}
	if err := h.service.Import(r.Context(), raw); err != nil {
		h.logger.Warn("import snapshot", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (h *Handler) migrate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MigrateLocalToRemote(r.Context()); err != nil {
		h.logger.Warn("migrate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "migrated"})
}
