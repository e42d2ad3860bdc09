package checkout

import (
	"fmt"
	"math"

	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
)

func toPence(pounds float64) int64 {
	return int64(math.Round(pounds * 100))
}

func subtotal(cart []checkoutapi.CartLine) (int64, error) {
	total := int64(0)
	for _, line := range cart {
		if line.Quantity <= 0 {
			return 0, fmt.Errorf("invalid quantity %d for product %s", line.Quantity, line.ID)
		}
		if line.Price < 0 {
			return 0, fmt.Errorf("invalid price for product %s", line.ID)
		}
		total += toPence(line.Price) * int64(line.Quantity)
	}
	return total, nil
}

// Calculate prices the cart: total = subtotal - discount + shipping, never below zero
func Calculate(cart []checkoutapi.CartLine, couponCode string, shippingOption string) (Quote, error) {
	if len(cart) == 0 {
		return Quote{}, fmt.Errorf("empty cart")
	}

	option := ShippingOption(shippingOption)
	if option == "" {
		option = ShippingStandard
	}
	shipping, found := shippingCosts[option]
	if !found {
		return Quote{}, fmt.Errorf("unknown shipping option %s", shippingOption)
	}

	sub, err := subtotal(cart)
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{
		SubtotalInPence: sub,
		ShippingInPence: shipping,
		Currency:        "GBP",
		ShippingOption:  option,
	}

	if couponCode != "" {
		coupon, found := lookupCoupon(couponCode)
		if !found {
			return Quote{}, fmt.Errorf("Invalid coupon code")
		}
		quote.Coupon = &coupon

		switch coupon.Kind {
		case DiscountPercentage:
			quote.DiscountInPence = int64(math.Round(float64(sub) * float64(coupon.Value) / 100))
		case DiscountFixed:
			quote.DiscountInPence = min(coupon.Value, sub)
		case DiscountShipping:
			quote.ShippingInPence = 0
		}
	}

	quote.TotalInPence = max(quote.SubtotalInPence-quote.DiscountInPence+quote.ShippingInPence, 0)

	return quote, nil
}

// ApplyCoupon reports whether the code is valid, with the quote with or without it
func ApplyCoupon(cart []checkoutapi.CartLine, couponCode string, shippingOption string) (CouponStatus, error) {
	quote, err := Calculate(cart, couponCode, shippingOption)
	if err == nil {
		return CouponStatus{Valid: true, Coupon: quote.Coupon, Quote: quote}, nil
	}

	if _, found := lookupCoupon(couponCode); found {
		return CouponStatus{}, err
	}

	quote, err = Calculate(cart, "", shippingOption)
	if err != nil {
		return CouponStatus{}, err
	}
	return CouponStatus{Valid: false, Error: "Invalid coupon code", Quote: quote}, nil
}
