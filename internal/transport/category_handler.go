package transport

import (
	"net/http"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryResponse wraps a single category
type CategoryResponse struct {
	Category *domain.Category `json:"category"`
}

// CategoriesResponse wraps a list of categories
type CategoriesResponse struct {
	Categories []*domain.Category `json:"categories"`
}

// BatchCategoryRequest is the body of POST /category/batch
type BatchCategoryRequest struct {
	Categories []service.CreateCategoryInput `json:"categories"`
}

// BatchItemError reports why one batch item failed
type BatchItemError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BatchCategoryResponse lists created categories and per-item failures
type BatchCategoryResponse struct {
	Categories []*domain.Category `json:"categories"`
	Errors     []BatchItemError   `json:"errors"`
}

// CategoryHandler handles HTTP requests for the category tree
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes. Writes go through adminOnly.
func (h *CategoryHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/category", func(r chi.Router) {
		r.Get("/id/{id}", h.GetByID)
		r.Get("/parent/{id}", h.ListByParent)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.Create)
			r.Post("/batch", h.CreateBatch)
			r.Delete("/id/{id}", h.Delete)
		})
	})
}

// GetByID handles GET /category/id/{id}
func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	category, err := h.categoryService.GetByID(r.Context(), pathParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, CategoryResponse{Category: category})
}

// ListByParent handles GET /category/parent/{id}
func (h *CategoryHandler) ListByParent(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.ListByParent(r.Context(), pathParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, CategoriesResponse{Categories: nonNil(categories)})
}

// Create handles POST /category
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCategoryInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	category, err := h.categoryService.Create(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, CategoryResponse{Category: category})
}

// CreateBatch handles POST /category/batch. Items are created in order and
// each failure is reported against its index.
func (h *CategoryHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	resp := BatchCategoryResponse{
		Categories: []*domain.Category{},
		Errors:     []BatchItemError{},
	}
	for i, result := range h.categoryService.CreateBatch(r.Context(), req.Categories) {
		if result.Err != nil {
			msg := result.Err.Error()
			if !isClientError(result.Err) {
				h.logger.Error("Category batch item failed", zap.Int("index", i), zap.Error(result.Err))
				msg = "internal server error"
			}
			resp.Errors = append(resp.Errors, BatchItemError{Index: i, Error: msg})
			continue
		}
		resp.Categories = append(resp.Categories, result.Category)
	}

	h.logger.Info("Category batch processed",
		zap.Int("created", len(resp.Categories)),
		zap.Int("failed", len(resp.Errors)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /category/id/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.categoryService.Delete(r.Context(), pathParam(r, "id")); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
