package transport

import (
	"net/http"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductResponse wraps a single product
type ProductResponse struct {
	Product *domain.Product `json:"product"`
}

// ProductsResponse wraps a list of products
type ProductsResponse struct {
	Products []*domain.Product `json:"products"`
}

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Writes go through adminOnly.
func (h *ProductHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/product", func(r chi.Router) {
		r.Get("/id/{id}", h.GetByID)
		r.Get("/category/{id}", h.ListByCategory)
		r.Get("/text/{query}", h.Search)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.Create)
			r.Put("/id/{id}", h.Update)
			r.Delete("/id/{id}", h.Delete)
		})
	})
}

// GetByID handles GET /product/id/{id}
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetByID(r.Context(), pathParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Product: product})
}

// ListByCategory handles GET /product/category/{id}. price=1 sorts by
// price descending; any other value keeps the ascending default.
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	opts := service.SubtreeOptions{
		SortByPriceDescending: r.URL.Query().Get("price") == "1",
	}

	products, err := h.productService.FindByCategorySubtree(r.Context(), pathParam(r, "id"), opts)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, ProductsResponse{Products: nonNil(products)})
}

// Search handles GET /product/text/{query}
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.SearchByText(r.Context(), pathParam(r, "query"))
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, ProductsResponse{Products: nonNil(products)})
}

// Create handles POST /product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProductInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.Create(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, ProductResponse{Product: product})
}

// Update handles PUT /product/id/{id} with patch semantics
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProductInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.Update(r.Context(), pathParam(r, "id"), req)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Product: product})
}

// Delete handles DELETE /product/id/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.productService.Delete(r.Context(), pathParam(r, "id")); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil keeps empty results encoding as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
