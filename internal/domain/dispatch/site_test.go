package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSite(t *testing.T) {
	t.Run("creates site with full capacity", func(t *testing.T) {
		site, err := NewSite("Central DC", "Belgrade", 500, ClassDistribution)
		require.NoError(t, err)

		assert.Equal(t, "Central DC", site.Name)
		assert.Equal(t, 500, site.MaxCapacity)
		assert.Equal(t, 500, site.CurrentCapacity)
		assert.Equal(t, ClassDistribution, site.Class)
		assert.NotEqual(t, site.ID.String(), "00000000-0000-0000-0000-000000000000")
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewSite("", "Novi Sad", 100, ClassWarehouse)
		assert.Error(t, err)
	})

	t.Run("rejects negative capacity", func(t *testing.T) {
		_, err := NewSite("Warehouse", "Novi Sad", -1, ClassWarehouse)
		assert.Error(t, err)
	})

	t.Run("rejects invalid class", func(t *testing.T) {
		_, err := NewSite("Warehouse", "Novi Sad", 100, SiteClass("DEPOT"))
		assert.Error(t, err)
	})
}

func TestSiteAdjustCapacity(t *testing.T) {
	site, err := NewSite("Warehouse", "Nis", 100, ClassWarehouse)
	require.NoError(t, err)

	t.Run("decrement within bounds", func(t *testing.T) {
		site.CurrentCapacity = 100
		site.AdjustCapacity(-30)
		assert.Equal(t, 70, site.CurrentCapacity)
	})

	t.Run("clamps at zero", func(t *testing.T) {
		site.CurrentCapacity = 10
		site.AdjustCapacity(-50)
		assert.Equal(t, 0, site.CurrentCapacity)
	})

	t.Run("clamps at max capacity", func(t *testing.T) {
		site.CurrentCapacity = 95
		site.AdjustCapacity(20)
		assert.Equal(t, 100, site.CurrentCapacity)
	})
}

func TestSiteCanSupply(t *testing.T) {
	site, err := NewSite("Warehouse", "Nis", 100, ClassWarehouse)
	require.NoError(t, err)
	site.CurrentCapacity = 5

	assert.True(t, site.CanSupply(5))
	assert.True(t, site.CanSupply(1))
	assert.False(t, site.CanSupply(6))
}
