package service

import (
	"context"
	"fmt"
	"math"

	"catalog-api/internal/domain"
	"catalog-api/internal/payment"
	"catalog-api/internal/repository"

	"go.uber.org/zap"
)

// CheckoutCurrency is the currency every checkout is charged in
const CheckoutCurrency = "usd"

// CheckoutResult identifies the charge made for a cart
type CheckoutResult struct {
	ChargeID string `json:"id"`
	Amount   int64  `json:"amount"`
}

// CartService defines the interface for the caller's cart and checkout
type CartService interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	SaveCart(ctx context.Context, userID string, items []domain.CartItem) (*domain.User, error)
	Checkout(ctx context.Context, userID, token string) (*CheckoutResult, error)
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	charger  payment.Charger
	logger   *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	charger payment.Charger,
	logger *zap.Logger,
) CartService {
	return &cartService{
		carts:    carts,
		products: products,
		charger:  charger,
		logger:   logger,
	}
}

// GetUser returns the caller with cart lines populated from the catalog.
// Lines whose product no longer exists are dropped.
func (s *cartService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	populated, err := s.populate(ctx, items)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		ID:   userID,
		Data: domain.UserData{Cart: populated},
	}, nil
}

type cartInput struct {
	Cart []domain.CartItem `json:"cart" validate:"dive"`
}

// SaveCart replaces the caller's cart
func (s *cartService) SaveCart(ctx context.Context, userID string, items []domain.CartItem) (*domain.User, error) {
	if items == nil {
		items = []domain.CartItem{}
	}
	if err := validateStruct(cartInput{Cart: items}); err != nil {
		return nil, err
	}

	if err := s.carts.Save(ctx, userID, items); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return s.GetUser(ctx, userID)
}

// Checkout charges the cart total in USD cents, rounded up, then empties
// the cart. A failed charge leaves the cart untouched.
func (s *cartService) Checkout(ctx context.Context, userID, token string) (*CheckoutResult, error) {
	if token == "" {
		return nil, newFieldError("stripeToken", "required")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Data.Cart) == 0 {
		return nil, newFieldError("data.cart", "min")
	}

	amount := CartTotalCents(user.Data.Cart)

	chargeID, err := s.charger.Charge(ctx, amount, CheckoutCurrency, token)
	if err != nil {
		s.logger.Info("Checkout charge failed",
			zap.String("user_id", userID),
			zap.Int64("amount", amount),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		// The charge went through; report it and keep going.
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("user_id", userID),
			zap.String("charge_id", chargeID),
			zap.Error(err),
		)
	}

	s.logger.Info("Checkout completed",
		zap.String("user_id", userID),
		zap.String("charge_id", chargeID),
		zap.Int64("amount", amount),
	)
	return &CheckoutResult{ChargeID: chargeID, Amount: amount}, nil
}

// CartTotalCents sums approximate USD prices times quantities and rounds
// up to whole cents.
func CartTotalCents(cart []domain.PopulatedCartItem) int64 {
	var total float64
	for _, item := range cart {
		total += item.Product.Internal.ApproximatePriceUSD * float64(item.Quantity)
	}
	return int64(math.Ceil(total * 100))
}

func (s *cartService) populate(ctx context.Context, items []domain.CartItem) ([]domain.PopulatedCartItem, error) {
	populated := make([]domain.PopulatedCartItem, 0, len(items))
	if len(items) == 0 {
		return populated, nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Product)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, item := range items {
		p, ok := byID[item.Product]
		if !ok {
			continue
		}
		populated = append(populated, domain.PopulatedCartItem{Product: p, Quantity: item.Quantity})
	}
	return populated, nil
}
