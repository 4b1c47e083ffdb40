package settings

import (
	"strings"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/money"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/platform"
)

// Fallbacks used when the platform row is missing or a field is unset. These
// match the printed receipt defaults the store has used since opening.
const (
	DefaultStoreName    = "TOKO SAHABAT MINIMARKET"
	DefaultStoreAddress = "JL. MERDEKA NO. 123, BANDUNG"
	DefaultStorePhone   = "Telp: 021-12345678"
	DefaultFooter       = "TERIMA KASIH\nSilakan datang kembali!"
	DefaultTaxRate      = 11
	DefaultCurrency     = "IDR"
)

// Settings is the effective store configuration after fallbacks.
type Settings struct {
	StoreName     string `json:"storeName"`
	StoreAddress  string `json:"storeAddress"`
	StorePhone    string `json:"storePhone"`
	TaxRate       int    `json:"taxRate"`
	ReceiptFooter string `json:"receiptFooter"`
	CurrencyCode  string `json:"currencyCode"`
}

// TaxBps returns the tax rate in basis points for the pricing engine.
func (s Settings) TaxBps() int {
	return money.BpsFromPercent(s.TaxRate)
}

// Defaults returns the fallback configuration.
func Defaults() Settings {
	return Settings{
		StoreName:     DefaultStoreName,
		StoreAddress:  DefaultStoreAddress,
		StorePhone:    DefaultStorePhone,
		TaxRate:       DefaultTaxRate,
		ReceiptFooter: DefaultFooter,
		CurrencyCode:  DefaultCurrency,
	}
}

// FromPlatform overlays a platform row on the defaults. Unset fields keep
// their fallback; a negative tax rate is treated as unset.
func FromPlatform(row platform.Settings) Settings {
	out := Defaults()
	if v := strings.TrimSpace(row.StoreName); v != "" {
		out.StoreName = v
	}
	if v := strings.TrimSpace(row.StoreAddress); v != "" {
		out.StoreAddress = v
	}
	if v := strings.TrimSpace(row.StorePhone); v != "" {
		out.StorePhone = v
	}
	if row.TaxRate > 0 {
		out.TaxRate = row.TaxRate
	}
	if v := strings.TrimSpace(row.ReceiptFooter); v != "" {
		out.ReceiptFooter = v
	}
	if v := strings.TrimSpace(row.CurrencyCode); v != "" {
		out.CurrencyCode = v
	}
	return out
}
