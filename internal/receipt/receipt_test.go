package receipt_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/receipt"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/settings"
)

func sampleSale() receipt.Sale {
	return receipt.Sale{
		InvoiceNumber: "INV-20260901-0001",
		CompletedAt:   time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC),
		CashierName:   "Kasir Satu",
		Items: []receipt.Item{
			{Name: "Aqua Gelas 600ml", Quantity: 2, UnitPrice: 10000, Subtotal: 20000},
		},
		Subtotal:       20000,
		DiscountAmount: 5000,
		TaxAmount:      1650,
		Total:          16650,
		Tendered:       20000,
		Change:         3350,
		PaymentMethod:  "tunai",
	}
}

func TestFormatIDR(t *testing.T) {
	require.Equal(t, "Rp 22.200", receipt.FormatIDR(22200))
	require.Equal(t, "Rp 0", receipt.FormatIDR(0))
	require.Equal(t, "Rp 1.234.567", receipt.FormatIDR(1234567))
}

func TestFormatMapsAllFields(t *testing.T) {
	doc := receipt.Format(sampleSale(), settings.Defaults())

	require.Equal(t, settings.DefaultStoreName, doc.StoreName)
	require.Equal(t, settings.DefaultStoreAddress, doc.StoreAddress)
	require.Equal(t, settings.DefaultStorePhone, doc.StorePhone)
	require.Equal(t, "INV-20260901-0001", doc.InvoiceNumber)
	require.Equal(t, "01/09/2026 14:30", doc.IssuedAt)
	require.Equal(t, "Kasir Satu", doc.CashierName)
	require.Len(t, doc.Lines, 1)
	require.Equal(t, "Rp 10.000", doc.Lines[0].UnitPrice)
	require.Equal(t, "Rp 20.000", doc.Lines[0].Subtotal)
	require.Equal(t, "Rp 20.000", doc.Subtotal)
	require.Equal(t, "-Rp 5.000", doc.Discount)
	require.Equal(t, "Rp 1.650", doc.Tax)
	require.Equal(t, "Rp 16.650", doc.Total)
	require.Equal(t, "Rp 20.000", doc.Tendered)
	require.Equal(t, "Rp 3.350", doc.Change)
	require.Equal(t, "TUNAI", doc.PaymentMethod)
	require.Equal(t, settings.DefaultFooter, doc.Footer)
}

func TestFormatOmitsZeroDiscount(t *testing.T) {
	sale := sampleSale()
	sale.DiscountAmount = 0
	doc := receipt.Format(sale, settings.Defaults())
	require.Empty(t, doc.Discount)
}

func TestMethodLabels(t *testing.T) {
	require.Equal(t, "TUNAI", receipt.MethodLabel("cash"))
	require.Equal(t, "QRIS", receipt.MethodLabel("qris"))
	require.Equal(t, "TRANSFER", receipt.MethodLabel("transfer"))
	require.Equal(t, "E-WALLET", receipt.MethodLabel("e-wallet"))
}

func TestStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := &receipt.Store{R: client, TTL: time.Hour}
	ctx := context.Background()

	sale := sampleSale()
	require.NoError(t, store.Save(ctx, sale))

	loaded, err := store.Get(ctx, sale.InvoiceNumber)
	require.NoError(t, err)
	require.Equal(t, sale.Total, loaded.Total)
	require.Equal(t, sale.Items, loaded.Items)

	_, err = store.Get(ctx, "INV-UNKNOWN")
	require.ErrorIs(t, err, receipt.ErrNotFound)
}
