package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUnitPrice(t *testing.T) {
	t.Run("retail perfume 100ml", func(t *testing.T) {
		// 50 * 1.5 * (100/100) = 75
		price := UnitPrice(TypePerfume, 100, ChannelRetail)
		assert.Equal(t, "75.00", price.StringFixed(2))
	})

	t.Run("retail cologne 100ml", func(t *testing.T) {
		price := UnitPrice(TypeCologne, 100, ChannelRetail)
		assert.Equal(t, "50.00", price.StringFixed(2))
	})

	t.Run("price scales with unit size", func(t *testing.T) {
		// 50 * 1.5 * (50/100) = 37.5
		price := UnitPrice(TypePerfume, 50, ChannelRetail)
		assert.Equal(t, "37.50", price.StringFixed(2))

		// 50 * 1.0 * (200/100) = 100
		price = UnitPrice(TypeCologne, 200, ChannelRetail)
		assert.Equal(t, "100.00", price.StringFixed(2))
	})

	t.Run("wholesale is 85 percent of retail", func(t *testing.T) {
		cases := []struct {
			itemType PerfumeType
			sizeML   int
		}{
			{TypePerfume, 100},
			{TypePerfume, 35},
			{TypeCologne, 100},
			{TypeCologne, 75},
		}
		factor := decimal.NewFromFloat(0.85)

		for _, tc := range cases {
			retail := UnitPrice(tc.itemType, tc.sizeML, ChannelRetail)
			wholesale := UnitPrice(tc.itemType, tc.sizeML, ChannelWholesale)
			assert.True(t, wholesale.Amount().Equal(retail.Amount().Mul(factor)),
				"type=%s size=%d: wholesale %s != retail %s * 0.85",
				tc.itemType, tc.sizeML, wholesale.Amount(), retail.Amount())
		}
	})

	t.Run("wholesale perfume 100ml", func(t *testing.T) {
		price := UnitPrice(TypePerfume, 100, ChannelWholesale)
		assert.Equal(t, "63.75", price.StringFixed(2))
	})
}

func TestTotal(t *testing.T) {
	unit := UnitPrice(TypePerfume, 100, ChannelRetail)
	total := Total(unit, 7)
	assert.Equal(t, "525.00", total.StringFixed(2))
}

func TestTypeMultiplier(t *testing.T) {
	assert.True(t, TypeMultiplier(TypePerfume).Equal(decimal.NewFromFloat(1.5)))
	assert.True(t, TypeMultiplier(TypeCologne).Equal(decimal.NewFromInt(1)))
	// unknown types price as standard
	assert.True(t, TypeMultiplier(PerfumeType("EAU_DE_TOILETTE")).Equal(decimal.NewFromInt(1)))
}
