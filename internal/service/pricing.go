package service

import (
	"context"

	"dinehub/internal/domain"
)

// PricingResolver is the boundary to the discount/tax collaborator. The
// aggregate applies whatever rates come back; it never decides them.
type PricingResolver interface {
	For(ctx context.Context, tenantID string, orderType domain.OrderType) (domain.Pricing, error)
}

// StaticPricing serves fixed rates. Deployments without a discount engine
// run on this.
type StaticPricing struct {
	DiscountRate   float64
	TaxRate        float64
	DeliveryCharge float64 // applied to delivery orders only
}

func (p StaticPricing) For(_ context.Context, _ string, orderType domain.OrderType) (domain.Pricing, error) {
	pr := domain.Pricing{DiscountRate: p.DiscountRate, TaxRate: p.TaxRate}
	if orderType == domain.OrderDelivery {
		pr.DeliveryCharge = p.DeliveryCharge
	}
	return pr, nil
}
