package receipt

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/settings"
)

// Item is one sold line on the receipt.
type Item struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Subtotal  int64  `json:"subtotal"`
}

// Sale is the completed transaction as confirmed by the platform. Immutable
// once received; the formatter only maps fields, it never recomputes totals.
type Sale struct {
	InvoiceNumber  string    `json:"invoiceNumber"`
	CompletedAt    time.Time `json:"completedAt"`
	CashierName    string    `json:"cashierName"`
	Items          []Item    `json:"items"`
	Subtotal       int64     `json:"subtotal"`
	DiscountAmount int64     `json:"discountAmount"`
	TaxAmount      int64     `json:"taxAmount"`
	Total          int64     `json:"total"`
	Tendered       int64     `json:"tendered"`
	Change         int64     `json:"change"`
	PaymentMethod  string    `json:"paymentMethod"`
}

// Line is a print-ready receipt row with pre-formatted amounts.
type Line struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
}

// Document is the flat print-ready receipt. Every monetary field is already
// formatted for the id-ID locale; the printing layer does no arithmetic.
type Document struct {
	StoreName     string `json:"storeName"`
	StoreAddress  string `json:"storeAddress"`
	StorePhone    string `json:"storePhone"`
	InvoiceNumber string `json:"invoiceNumber"`
	IssuedAt      string `json:"issuedAt"`
	CashierName   string `json:"cashierName"`
	Lines         []Line `json:"lines"`
	Subtotal      string `json:"subtotal"`
	Discount      string `json:"discount,omitempty"`
	Tax           string `json:"tax"`
	Total         string `json:"total"`
	Tendered      string `json:"tendered"`
	Change        string `json:"change"`
	PaymentMethod string `json:"paymentMethod"`
	Footer        string `json:"footer"`
}

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatIDR renders a whole-rupiah amount with id-ID thousands separators,
// e.g. 22200 -> "Rp 22.200".
func FormatIDR(v int64) string {
	return idPrinter.Sprintf("Rp %d", v)
}

// MethodLabel maps a payment method code to its receipt label.
func MethodLabel(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "tunai", "cash":
		return "TUNAI"
	case "qris":
		return "QRIS"
	case "transfer":
		return "TRANSFER"
	case "e-wallet", "ewallet":
		return "E-WALLET"
	default:
		return strings.ToUpper(strings.TrimSpace(method))
	}
}

// Format maps a completed sale and the effective store settings to a
// print-ready document.
func Format(sale Sale, cfg settings.Settings) Document {
	lines := make([]Line, 0, len(sale.Items))
	for _, item := range sale.Items {
		lines = append(lines, Line{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: FormatIDR(item.UnitPrice),
			Subtotal:  FormatIDR(item.Subtotal),
		})
	}
	doc := Document{
		StoreName:     cfg.StoreName,
		StoreAddress:  cfg.StoreAddress,
		StorePhone:    cfg.StorePhone,
		InvoiceNumber: sale.InvoiceNumber,
		IssuedAt:      sale.CompletedAt.Format("02/01/2006 15:04"),
		CashierName:   sale.CashierName,
		Lines:         lines,
		Subtotal:      FormatIDR(sale.Subtotal),
		Tax:           FormatIDR(sale.TaxAmount),
		Total:         FormatIDR(sale.Total),
		Tendered:      FormatIDR(sale.Tendered),
		Change:        FormatIDR(sale.Change),
		PaymentMethod: MethodLabel(sale.PaymentMethod),
		Footer:        cfg.ReceiptFooter,
	}
	if sale.DiscountAmount > 0 {
		doc.Discount = "-" + FormatIDR(sale.DiscountAmount)
	}
	return doc
}
