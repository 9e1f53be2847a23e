package sales

import (
	"github.com/perfumery/sales/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PerfumeType classifies catalog items for pricing
type PerfumeType string

const (
	TypePerfume PerfumeType = "PERFUME" // premium category
	TypeCologne PerfumeType = "COLOGNE" // standard category
)

// Pricing constants. Base price is quoted per sizeUnitML milliliters.
var (
	basePrice          = decimal.NewFromInt(50)
	sizeUnitML         = decimal.NewFromInt(100)
	premiumMultiplier  = decimal.NewFromFloat(1.5)
	standardMultiplier = decimal.NewFromInt(1)
	wholesaleFactor    = decimal.NewFromFloat(0.85)
)

// TypeMultiplier returns the pricing multiplier for a perfume type
func TypeMultiplier(itemType PerfumeType) decimal.Decimal {
	if itemType == TypePerfume {
		return premiumMultiplier
	}
	return standardMultiplier
}

// UnitPrice computes the price of a single unit from its attributes and the
// sale channel:
//
//	base = 50 * typeMultiplier * (unitSize / 100)
//	wholesale pays 85% of retail
//
// The result is intentionally unrounded; callers round once, at persistence.
func UnitPrice(itemType PerfumeType, unitSizeML int, channel Channel) valueobject.Money {
	price := basePrice.
		Mul(TypeMultiplier(itemType)).
		Mul(decimal.NewFromInt(int64(unitSizeML)).Div(sizeUnitML))

	if channel == ChannelWholesale {
		price = price.Mul(wholesaleFactor)
	}

	return valueobject.NewMoneyRSD(price)
}

// Total computes the unrounded total for quantity units at the given price
func Total(unitPrice valueobject.Money, quantity int) valueobject.Money {
	return unitPrice.MultiplyByInt(int64(quantity))
}
