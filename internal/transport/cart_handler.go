package transport

import (
	"net/http"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserResponse wraps the caller and its populated cart
type UserResponse struct {
	User *domain.User `json:"user"`
}

// UpdateCartRequest is the body of PUT /me/cart
type UpdateCartRequest struct {
	Data struct {
		Cart []domain.CartItem `json:"cart"`
	} `json:"data"`
}

// CheckoutRequest is the body of POST /checkout
type CheckoutRequest struct {
	StripeToken string `json:"stripeToken" validate:"required"`
}

// CartHandler handles the caller's cart and checkout
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers cart routes behind authMiddleware
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", h.GetMe)
		r.Put("/me/cart", h.UpdateCart)
		r.Post("/checkout", h.Checkout)
	})
}

// GetMe handles GET /me
func (h *CartHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	user, err := h.cartService.GetUser(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{User: user})
}

// UpdateCart handles PUT /me/cart
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var req UpdateCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	user, err := h.cartService.SaveCart(r.Context(), userID, req.Data.Cart)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{User: user})
}

// Checkout handles POST /checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var req CheckoutRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.cartService.Checkout(r.Context(), userID, req.StripeToken)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Checkout succeeded",
		zap.String("user_id", userID),
		zap.String("charge_id", result.ChargeID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, result)
}
