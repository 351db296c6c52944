package payment

import "fmt"

// Status tracks the payment side of an order independently of its fulfilment status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("payment: unknown status %q", s)
	}
	return st, nil
}

// Method is the payment method chosen at checkout. Gateway integration is out of scope.
type Method string

const (
	MethodCard           Method = "CARD"
	MethodPayPal         Method = "PAYPAL"
	MethodBankTransfer   Method = "BANK_TRANSFER"
	MethodCashOnDelivery Method = "CASH_ON_DELIVERY"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodPayPal, MethodBankTransfer, MethodCashOnDelivery:
		return true
	}
	return false
}
