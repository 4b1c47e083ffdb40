package catalog

import (
	"context"
	"encoding/json"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/events"
)

// SaleNotifier returns a bus subscriber that drops cached entries for every
// product on a completed sale, so the next scan reflects the platform's
// updated stock instead of a row cached before the sale.
func SaleNotifier(svc *Service) events.NotifierFunc {
	return func(ctx context.Context, evt events.Event) error {
		if evt.Topic != events.TopicSaleCompleted || svc == nil {
			return nil
		}
		var payload struct {
			Items []struct {
				Barcode string `json:"barcode"`
				SKU     string `json:"sku"`
				Name    string `json:"name"`
			} `json:"items"`
		}
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			return err
		}
		codes := make([]string, 0, len(payload.Items)*3)
		for _, item := range payload.Items {
			// The cache is keyed by whatever the cashier typed or scanned, so
			// every plausible key for the product is dropped.
			codes = append(codes, item.Barcode, item.SKU, item.Name)
		}
		svc.InvalidateCodes(ctx, codes...)
		return nil
	}
}
