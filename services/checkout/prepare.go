package checkout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
	"github.com/MarcGrol/checkoutbackend/services/checkoutevents"
)

// Prepare validates a submitted checkout and prices it, used by every payment provider
func Prepare(co checkoutapi.Checkout) (Quote, error) {
	if co.GuestSessionID == "" {
		return Quote{}, myerrors.NewInvalidInputError(fmt.Errorf("missing guest_session_id"))
	}

	errs := Validate(co.Contact, co.Address)
	if len(errs) > 0 {
		return Quote{}, myerrors.NewInvalidInputError(fmt.Errorf("invalid checkout details: %s", errs))
	}

	quote, err := Calculate(co.Cart, co.CouponCode, co.ShippingOption)
	if err != nil {
		return Quote{}, myerrors.NewInvalidInputError(err)
	}
	if quote.TotalInPence <= 0 {
		return Quote{}, myerrors.NewInvalidInputError(fmt.Errorf("nothing to pay"))
	}

	return quote, nil
}

func (e FieldErrors) String() string {
	fields := []string{}
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := []string{}
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return strings.Join(parts, ", ")
}

func NewCheckoutStarted(checkoutUID string, provider string, paymentMethod string, co checkoutapi.Checkout, quote Quote) checkoutevents.CheckoutStarted {
	lines := []checkoutevents.OrderLine{}
	for _, line := range co.Cart {
		lines = append(lines, checkoutevents.OrderLine{
			ProductUID:   line.ID,
			Name:         line.Name,
			Quantity:     line.Quantity,
			PriceInPence: toPence(line.Price),
		})
	}

	couponCode := ""
	if quote.Coupon != nil {
		couponCode = quote.Coupon.Code
	}

	return checkoutevents.CheckoutStarted{
		CheckoutUID:     checkoutUID,
		GuestSessionID:  co.GuestSessionID,
		ProviderName:    provider,
		PaymentMethod:   paymentMethod,
		Email:           co.Contact.Email,
		AmountInPence:   quote.TotalInPence,
		DiscountInPence: quote.DiscountInPence,
		ShippingInPence: quote.ShippingInPence,
		Currency:        quote.Currency,
		CouponCode:      couponCode,
		ShippingOption:  string(quote.ShippingOption),
		Lines:           lines,
	}
}
