package checkout

import "errors"

// State of a terminal's checkout flow.
type State string

const (
	// Building is the implicit default: the cashier is still scanning items.
	Building State = "building"
	// AwaitingPayment means the amount due is locked and a payment method is
	// being chosen.
	AwaitingPayment State = "awaiting_payment"
	// Submitting means the sale is in flight to the platform.
	Submitting State = "submitting"
	// Failed means the platform rejected the sale; the cart is untouched and
	// payment can be retried.
	Failed State = "failed"
)

// Payment method codes accepted at the register.
const (
	MethodCash     = "tunai"
	MethodQRIS     = "qris"
	MethodTransfer = "transfer"
	MethodEWallet  = "e-wallet"
)

// QuickTenders are the preset cash buttons shown next to the amount field.
var QuickTenders = []int64{50_000, 100_000, 200_000}

var (
	// ErrEmptyCart is returned when checkout is requested with no lines.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrInsufficientPayment is returned when cash tendered is below the
	// amount due.
	ErrInsufficientPayment = errors.New("checkout: insufficient payment")
	// ErrInvalidMethod is returned for a payment method outside the enum.
	ErrInvalidMethod = errors.New("checkout: invalid payment method")
	// ErrNotAwaitingPayment is returned when pay or cancel is requested
	// outside the awaiting-payment (or failed) state.
	ErrNotAwaitingPayment = errors.New("checkout: not awaiting payment")
	// ErrSubmissionInFlight is returned when a submission is already
	// running for the terminal.
	ErrSubmissionInFlight = errors.New("checkout: submission in flight")
	// ErrSubmission wraps platform rejections and transport failures.
	ErrSubmission = errors.New("checkout: sale submission failed")
)

// ValidMethod reports whether the payment method code is in the closed enum.
func ValidMethod(method string) bool {
	switch method {
	case MethodCash, MethodQRIS, MethodTransfer, MethodEWallet:
		return true
	default:
		return false
	}
}
