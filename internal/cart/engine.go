package cart

import (
	"errors"
	"strings"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/catalog"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/money"
)

// ErrDiscountOutOfRange is returned for negative discount input. Over-large
// discounts are clamped, never rejected, so the cashier flow is not
// interrupted mid-sale.
var ErrDiscountOutOfRange = errors.New("cart: discount out of range")

// ErrLineNotFound is returned when a mutation targets a product that is not
// in the cart.
var ErrLineNotFound = errors.New("cart: line not found")

// Discount types for the cart-wide discount.
const (
	DiscountPercent = "percent"
	DiscountAmount  = "amount"
)

// Line is one product entry. Quantity is always >= 1; a zero quantity removes
// the line. Discount is a whole-rupiah amount clamped to the line gross.
// Barcode and SKU are carried so a completed sale can name the product-cache
// entries to drop.
type Line struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Barcode   string `json:"barcode,omitempty"`
	SKU       string `json:"sku,omitempty"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Discount  int64  `json:"discount"`
}

// Gross is the undiscounted line value.
func (l Line) Gross() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Subtotal is the line value after its own discount, floored at zero.
func (l Line) Subtotal() int64 {
	return money.FloorZero(l.Gross() - l.Discount)
}

// GlobalDiscount is the single cart-wide discount. A percent discount is
// resolved to a fixed Amount against the subtotal at the moment it is set;
// it is not recomputed as the cart changes afterwards. Percent is retained
// only for reporting in the sale record.
type GlobalDiscount struct {
	Type    string `json:"type,omitempty"`
	Percent int    `json:"percent,omitempty"`
	Amount  int64  `json:"amount"`
}

// Cart holds the register's in-progress transaction. Lines keep insertion
// order and there is at most one line per product. All derived values are
// recomputed from current state on every call; nothing is cached.
type Cart struct {
	Lines    []Line         `json:"lines"`
	Discount GlobalDiscount `json:"discount"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem inserts a new line with quantity 1, or increments the existing
// line's quantity. Activity checks belong to the product lookup; the cart
// takes the price snapshot it is given.
func (c *Cart) AddItem(p catalog.Product) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == p.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Barcode:   p.Barcode,
		SKU:       p.SKU,
		UnitPrice: p.Price,
		Quantity:  1,
	})
}

// RemoveItem deletes the line for productID. No-op when absent.
func (c *Cart) RemoveItem(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
// The line discount is kept but clamped when the new gross falls below it.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return nil
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		c.Lines[i].Quantity = quantity
		c.Lines[i].Discount = money.Clamp(c.Lines[i].Discount, 0, c.Lines[i].Gross())
		return nil
	}
	return ErrLineNotFound
}

// UpdateLineDiscount sets a per-line discount amount, clamped to the line
// gross. Negative input is rejected.
func (c *Cart) UpdateLineDiscount(productID string, discount int64) error {
	if discount < 0 {
		return ErrDiscountOutOfRange
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		c.Lines[i].Discount = money.Clamp(discount, 0, c.Lines[i].Gross())
		return nil
	}
	return ErrLineNotFound
}

// SetGlobalDiscount stores the cart-wide discount. A percent value is
// resolved against the current subtotal once, here. A fixed amount is
// clamped to the current subtotal. Negative values are rejected.
func (c *Cart) SetGlobalDiscount(discountType string, value int64) error {
	switch strings.ToLower(strings.TrimSpace(discountType)) {
	case DiscountPercent:
		if value < 0 || value > 100 {
			return ErrDiscountOutOfRange
		}
		c.Discount = GlobalDiscount{
			Type:    DiscountPercent,
			Percent: int(value),
			Amount:  money.PercentOf(c.Subtotal(), money.BpsFromPercent(int(value))),
		}
		return nil
	case DiscountAmount:
		if value < 0 {
			return ErrDiscountOutOfRange
		}
		c.Discount = GlobalDiscount{
			Type:   DiscountAmount,
			Amount: money.Clamp(value, 0, c.Subtotal()),
		}
		return nil
	case "":
		c.Discount = GlobalDiscount{}
		return nil
	default:
		return ErrDiscountOutOfRange
	}
}

// Clear resets lines and the global discount.
func (c *Cart) Clear() {
	c.Lines = nil
	c.Discount = GlobalDiscount{}
}

// Subtotal is the sum of line subtotals.
func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.Subtotal()
	}
	return sum
}

// Taxable is the subtotal after the global discount, floored at zero.
func (c *Cart) Taxable() int64 {
	return money.FloorZero(c.Subtotal() - c.Discount.Amount)
}

// TaxAmount computes tax on the taxable base at the given rate in basis
// points, rounded half-up.
func (c *Cart) TaxAmount(taxBps int) int64 {
	return money.PercentOf(c.Taxable(), taxBps)
}

// Total is the taxable base plus tax.
func (c *Cart) Total(taxBps int) int64 {
	return c.Taxable() + c.TaxAmount(taxBps)
}

// Summary is a point-in-time view of all derived totals.
type Summary struct {
	Lines           []Line `json:"lines"`
	Subtotal        int64  `json:"subtotal"`
	DiscountAmount  int64  `json:"discountAmount"`
	DiscountPercent int    `json:"discountPercent,omitempty"`
	Taxable         int64  `json:"taxable"`
	TaxRateBps      int    `json:"taxRateBps"`
	TaxAmount       int64  `json:"taxAmount"`
	Total           int64  `json:"total"`
}

// Summarize computes every derived value at the given tax rate.
func (c *Cart) Summarize(taxBps int) Summary {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Summary{
		Lines:           lines,
		Subtotal:        c.Subtotal(),
		DiscountAmount:  c.Discount.Amount,
		DiscountPercent: c.Discount.Percent,
		Taxable:         c.Taxable(),
		TaxRateBps:      taxBps,
		TaxAmount:       c.TaxAmount(taxBps),
		Total:           c.Total(taxBps),
	}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
