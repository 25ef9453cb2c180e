package shipping

import (
	"context"
	"testing"

	"github.com/bazaar-next/internal/constants"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapExternalStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		mapped bool
	}{
		{raw: "delivered", want: constants.OrderStatusDelivered, mapped: true},
		{raw: " Delivered ", want: constants.OrderStatusDelivered, mapped: true},
		{raw: "cancel", want: constants.OrderStatusCancelled, mapped: true},
		{raw: "returned", want: constants.OrderStatusCancelled, mapped: true},
		{raw: "delivering", mapped: false},
		{raw: "", mapped: false},
	}
	for _, tt := range tests {
		got, ok := MapExternalStatus(tt.raw)
		assert.Equal(t, tt.mapped, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParcels(t *testing.T) {
	items := []ParcelItem{
		{Length: 10, Width: 20, Height: 5, Weight: 300, Quantity: 2},
		{Length: 15, Width: 10, Height: 8, Weight: 200, Quantity: 3},
	}
	assert.Equal(t, Parcel{Length: 15, Width: 20, Height: 8, Weight: 300}, PreviewParcel(items))
	assert.Equal(t, Parcel{Length: 15, Width: 20, Height: 8, Weight: 1200}, ShipmentParcel(items))
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(decimal.NewFromInt(20000))
	ctx := context.Background()

	fee, err := r.PreviewFee(ctx, Request{})
	require.NoError(t, err)
	assert.True(t, fee.Total.Equal(decimal.NewFromInt(20000)))

	first, err := r.CreateShipment(ctx, Request{ClientRef: "SO1"})
	require.NoError(t, err)
	second, err := r.CreateShipment(ctx, Request{ClientRef: "SO1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.OrderCode, second.OrderCode)

	status, err := r.ShipmentStatus(ctx, first.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, "delivering", status)
	r.SetStatus("delivered")
	status, _ = r.ShipmentStatus(ctx, first.OrderCode)
	assert.Equal(t, "delivered", status)

	_, err = NewStaticResolver(decimal.Zero).PreviewFee(ctx, Request{})
	require.ErrorIs(t, err, ErrNoFee)
}
