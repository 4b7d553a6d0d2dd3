package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShop(t *testing.T) {
	s := Shop()
	require.Len(t, s.Entities(), 3)

	order, ok := s.Entity("Order")
	require.True(t, ok)
	assert.Equal(t, "Orders", order.Table)
	require.Len(t, order.Identity(), 1)

	shipped, ok := order.Column("ShippedAt")
	require.True(t, ok)
	assert.Equal(t, "shipped_at", shipped.Name)

	dep, err := s.Dependency(order, "Referrer")
	require.NoError(t, err)
	assert.Equal(t, "ReferrerId", dep.ForeignKey.Member)
	assert.Equal(t, "Customer", dep.To.Name)
}

func TestShopIsFresh(t *testing.T) {
	assert.NotSame(t, Shop(), Shop())
}
