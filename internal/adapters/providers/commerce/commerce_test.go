package commerce

import (
	"context"
	"testing"
	"time"

	"github.com/maisonvera/concierge/internal/domain/providers"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockOrderAdapter_DeterministicLookup(t *testing.T) {
	orders := NewMockOrderAdapter()
	ctx := context.Background()

	first, err := orders.Lookup(ctx, providers.OrderLookup{OrderID: "MV-1001"})
	require.NoError(t, err)

	second, err := orders.Lookup(ctx, providers.OrderLookup{OrderID: "mv-1001"})
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.Status, second.Status)
}

func TestMockOrderAdapter_UnknownOrderNotFound(t *testing.T) {
	orders := NewMockOrderAdapter()

	_, err := orders.Lookup(context.Background(), providers.OrderLookup{OrderID: "ZZ-42"})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestMockOrderAdapter_EmailZipDerivesStableOrder(t *testing.T) {
	orders := NewMockOrderAdapter()
	ctx := context.Background()
	q := providers.OrderLookup{Email: "ada@example.com", Zip: "75001"}

	first, err := orders.Lookup(ctx, q)
	require.NoError(t, err)
	second, err := orders.Lookup(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, "a***@example.com", first.EmailHint)
}

func TestMockReturnsAdapter_OneRMAPerOrder(t *testing.T) {
	returns := NewMockReturnsAdapter()
	ctx := context.Background()

	result, err := returns.CreateReturn(ctx, providers.ReturnRequest{OrderID: "MV-2002", Reason: "too small"})
	require.NoError(t, err)
	assert.Equal(t, "RMA-MV-2002", result.RMAID)

	_, err = returns.CreateReturn(ctx, providers.ReturnRequest{OrderID: "mv-2002", Reason: "too small"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDuplicate))
}

func TestMockCapsuleAdapter_HoldExpiry(t *testing.T) {
	capsules := NewMockCapsuleAdapter(48 * time.Hour)

	res, err := capsules.Reserve(context.Background(), providers.CapsuleRequest{
		SessionID: "s1",
		ItemIDs:   []string{"mv-r-001", "mv-e-001"},
	})

	require.NoError(t, err)
	assert.Equal(t, "CAP-0001", res.CapsuleID)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), res.ExpiresAt, time.Minute)
}

func TestMockCatalogAdapter_CategoryFilter(t *testing.T) {
	catalog := NewMockCatalogAdapter()

	rings, err := catalog.Search(context.Background(), providers.CatalogFilter{Category: "ring"})
	require.NoError(t, err)
	require.NotEmpty(t, rings)
	for _, p := range rings {
		assert.Equal(t, "ring", p.Category)
	}

	all, err := catalog.Search(context.Background(), providers.CatalogFilter{})
	require.NoError(t, err)
	assert.Greater(t, len(all), len(rings))
}
