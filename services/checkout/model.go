package checkout

import "strings"

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
	DiscountShipping   DiscountKind = "shipping"
)

type Coupon struct {
	Code    string       `json:"code"`
	Kind    DiscountKind `json:"type"`
	Value   int64        `json:"value"`
	Message string       `json:"message"`
}

// Value: percentage for DiscountPercentage, pence for DiscountFixed
var coupons = map[string]Coupon{
	"WELCOME10": {Code: "WELCOME10", Kind: DiscountPercentage, Value: 10, Message: "10% discount applied!"},
	"FREESHIP":  {Code: "FREESHIP", Kind: DiscountShipping, Message: "Free shipping applied!"},
}

func lookupCoupon(code string) (Coupon, bool) {
	coupon, found := coupons[strings.ToUpper(strings.TrimSpace(code))]
	return coupon, found
}

type ShippingOption string

const (
	ShippingStandard ShippingOption = "standard"
	ShippingExpress  ShippingOption = "express"
)

var shippingCosts = map[ShippingOption]int64{
	ShippingStandard: 0,
	ShippingExpress:  499,
}

type Quote struct {
	SubtotalInPence int64          `json:"subtotal_in_pence"`
	DiscountInPence int64          `json:"discount_in_pence"`
	ShippingInPence int64          `json:"shipping_in_pence"`
	TotalInPence    int64          `json:"total_in_pence"`
	Currency        string         `json:"currency"`
	ShippingOption  ShippingOption `json:"shipping_option"`
	Coupon          *Coupon        `json:"coupon,omitempty"`
}

type CouponStatus struct {
	Valid  bool    `json:"valid"`
	Coupon *Coupon `json:"coupon,omitempty"`
	Error  string  `json:"error,omitempty"`
	Quote  Quote   `json:"quote"`
}

// FieldErrors maps the storefront's field name to a human readable message
type FieldErrors map[string]string

type ValidationResponse struct {
	Error  string      `json:"error"`
	Fields FieldErrors `json:"fields"`
}
