package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates no stored receipt matches the invoice number.
var ErrNotFound = errors.New("receipt: not found")

// Store keeps recent sales in Redis keyed by invoice number so a receipt can
// be reprinted after the original window closed. Entries expire; the
// platform remains the durable record.
type Store struct {
	R   *redis.Client
	TTL time.Duration
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func receiptKey(invoice string) string {
	return "pos:receipt:" + invoice
}

// Save stores the sale under its invoice number.
func (s *Store) Save(ctx context.Context, sale Sale) error {
	if s == nil || s.R == nil {
		return nil
	}
	if sale.InvoiceNumber == "" {
		return errors.New("receipt: invoice number is required")
	}
	data, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("save receipt: encode: %w", err)
	}
	if err := s.R.Set(ctx, receiptKey(sale.InvoiceNumber), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	return nil
}

// Get loads the sale for the given invoice number.
func (s *Store) Get(ctx context.Context, invoice string) (Sale, error) {
	if s == nil || s.R == nil {
		return Sale{}, ErrNotFound
	}
	data, err := s.R.Get(ctx, receiptKey(invoice)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Sale{}, ErrNotFound
		}
		return Sale{}, fmt.Errorf("load receipt: %w", err)
	}
	var sale Sale
	if err := json.Unmarshal(data, &sale); err != nil {
		return Sale{}, fmt.Errorf("load receipt: decode: %w", err)
	}
	return sale, nil
}
