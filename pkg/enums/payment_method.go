package enums

import "slices"

// PaymentMethod is recorded on the order; no gateway is called.
type PaymentMethod string

const (
	PaymentMethodWeChat         PaymentMethod = "wechat"
	PaymentMethodAlipay         PaymentMethod = "alipay"
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodWeChat,
	PaymentMethodAlipay,
	PaymentMethodCard,
	PaymentMethodCashOnDelivery,
}

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) IsValid() bool {
	return slices.Contains(validPaymentMethods, m)
}

func (m PaymentMethod) MarshalText() ([]byte, error) {
	return []byte(toWire(string(m))), nil
}

func (m *PaymentMethod) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parseEnum(validPaymentMethods, "payment method", value)
}
