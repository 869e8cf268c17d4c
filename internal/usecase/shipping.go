package usecase

import (
	"context"
	"errors"
	"log/slog"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
)

const (
	// FreeShippingThreshold is the subtotal at which shipping becomes
	// free regardless of method or weight.
	FreeShippingThreshold int64 = 500_000

	// DefaultShippingFee is the flat fee charged when a checkout names
	// no shipping method at all; the calculator is not consulted then.
	DefaultShippingFee int64 = 30_000
)

// ShippingQuote computes the shipping fee for an order subtotal.
type ShippingQuote struct {
	methods   ShippingMethodRepo
	threshold int64
	log       *slog.Logger
}

func NewShippingQuote(methods ShippingMethodRepo, log *slog.Logger) *ShippingQuote {
	return &ShippingQuote{methods: methods, threshold: FreeShippingThreshold, log: log}
}

// Calculate resolves the method and prices shipping for the subtotal.
// The free-shipping threshold is checked first and short-circuits
// everything else. An unresolvable method id falls back to the first
// available method; the substitution is logged so it is a visible
// policy decision, not a silent one.
func (s *ShippingQuote) Calculate(ctx context.Context, subtotal int64, methodID int64, weightKg float64) (int64, error) {
	if subtotal >= s.threshold {
		return 0, nil
	}

	method, err := s.methods.GetByID(ctx, methodID)
	if errors.Is(err, domain.ErrShippingMethodNotFound) {
		method, err = s.methods.First(ctx)
		if err != nil {
			return 0, err
		}
		s.log.Warn("shipping method not found, falling back to first available",
			"requested_method_id", methodID, "fallback_method_id", method.ID)
	} else if err != nil {
		return 0, err
	}

	return method.FeeFor(weightKg), nil
}
