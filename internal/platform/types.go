package platform

import "time"

// SaleItem is one cart line as submitted to the platform. Monetary fields
// are whole rupiah.
type SaleItem struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int64  `json:"unitPrice"`
	DiscountAmount int64  `json:"discountAmount"`
	Subtotal       int64  `json:"subtotal"`
}

// SaleRequest is the payload the platform's process-sale function expects.
// All derived amounts are computed terminal-side; the platform re-validates
// and persists them atomically together with stock movements.
type SaleRequest struct {
	CashierID       string     `json:"cashierId"`
	CashSessionID   string     `json:"cashSessionId"`
	TerminalID      string     `json:"terminalId"`
	Items           []SaleItem `json:"items"`
	Subtotal        int64      `json:"subtotal"`
	DiscountAmount  int64      `json:"discountAmount"`
	DiscountPercent int        `json:"discountPercent"`
	TaxAmount       int64      `json:"taxAmount"`
	TotalAmount     int64      `json:"totalAmount"`
	PaymentMethod   string     `json:"paymentMethod"`
	PaymentAmount   int64      `json:"paymentAmount"`
	ChangeAmount    int64      `json:"changeAmount"`
	Status          string     `json:"status"`
}

// SaleResult is returned by the platform after a sale is persisted.
type SaleResult struct {
	SaleID        string    `json:"saleId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	CompletedAt   time.Time `json:"completedAt"`
}

// CashSession is an open drawer session for a cashier.
type CashSession struct {
	ID             string    `json:"id"`
	CashierID      string    `json:"cashierId"`
	OpeningBalance int64     `json:"openingBalance"`
	OpenedAt       time.Time `json:"openedAt"`
}

// User is the signed-in cashier as reported by the platform.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Settings is the raw store configuration row. Zero values mean the field is
// unset upstream; internal/settings applies the documented fallbacks.
type Settings struct {
	StoreName     string `json:"storeName"`
	StoreAddress  string `json:"storeAddress"`
	StorePhone    string `json:"storePhone"`
	TaxRate       int    `json:"taxRate"`
	ReceiptFooter string `json:"receiptFooter"`
	CurrencyCode  string `json:"currencyCode"`
}
