package enums

import "slices"

// AfterSaleStatus tracks an after-sale request.
type AfterSaleStatus string

const (
	AfterSaleStatusApplied    AfterSaleStatus = "applied"
	AfterSaleStatusProcessing AfterSaleStatus = "processing"
	AfterSaleStatusResolved   AfterSaleStatus = "resolved"
	AfterSaleStatusRejected   AfterSaleStatus = "rejected"
)

var validAfterSaleStatuses = []AfterSaleStatus{
	AfterSaleStatusApplied,
	AfterSaleStatusProcessing,
	AfterSaleStatusResolved,
	AfterSaleStatusRejected,
}

func (s AfterSaleStatus) String() string {
	return string(s)
}

func (s AfterSaleStatus) IsValid() bool {
	return slices.Contains(validAfterSaleStatuses, s)
}

// IsTerminal reports whether no further transitions are possible.
func (s AfterSaleStatus) IsTerminal() bool {
	return s == AfterSaleStatusResolved || s == AfterSaleStatusRejected
}

func ParseAfterSaleStatus(value string) (AfterSaleStatus, error) {
	return parseEnum(validAfterSaleStatuses, "after-sale status", value)
}

func (s *AfterSaleStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseAfterSaleStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AfterSaleType is the kind of service the customer asked for.
type AfterSaleType string

const (
	AfterSaleTypeRefund       AfterSaleType = "refund"
	AfterSaleTypeReturnRefund AfterSaleType = "return_refund"
	AfterSaleTypeExchange     AfterSaleType = "exchange"
)

var validAfterSaleTypes = []AfterSaleType{
	AfterSaleTypeRefund,
	AfterSaleTypeReturnRefund,
	AfterSaleTypeExchange,
}

func (t AfterSaleType) String() string {
	return string(t)
}

func (t AfterSaleType) IsValid() bool {
	return slices.Contains(validAfterSaleTypes, t)
}

func (t AfterSaleType) MarshalText() ([]byte, error) {
	return []byte(toWire(string(t))), nil
}

func (t *AfterSaleType) UnmarshalText(text []byte) error {
	parsed, err := ParseAfterSaleType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseAfterSaleType(value string) (AfterSaleType, error) {
	return parseEnum(validAfterSaleTypes, "after-sale type", value)
}

// RefundMethod records how money went back to the customer.
type RefundMethod string

const (
	RefundMethodOriginal RefundMethod = "original"
	RefundMethodBalance  RefundMethod = "balance"
	RefundMethodOffline  RefundMethod = "offline"
)

var validRefundMethods = []RefundMethod{
	RefundMethodOriginal,
	RefundMethodBalance,
	RefundMethodOffline,
}

func (m RefundMethod) IsValid() bool {
	return slices.Contains(validRefundMethods, m)
}

func (m *RefundMethod) UnmarshalText(text []byte) error {
	parsed, err := parseEnum(validRefundMethods, "refund method", string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
