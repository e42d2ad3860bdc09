package checkoutapi

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	formcodec "github.com/go-playground/form/v4"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
)

// Checkout is what the storefront submits when the shopper presses "pay"
type Checkout struct {
	GuestSessionID string     `json:"guest_session_id" form:"guestSessionId"`
	Contact        Contact    `json:"contact" form:"contact"`
	Address        Address    `json:"address" form:"address"`
	Cart           []CartLine `json:"cart" form:"cart"`
	CouponCode     string     `json:"coupon,omitempty" form:"coupon"`
	ShippingOption string     `json:"shipping_option,omitempty" form:"shippingOption"`
	ReturnURL      string     `json:"return_url,omitempty" form:"returnUrl"`

	// Stripe: id of the payment method created by the card widget
	PaymentMethodID string `json:"payment_method_id,omitempty" form:"paymentMethodId"`
	// Mollie: paypal or klarna
	Method string `json:"method,omitempty" form:"method"`
}

type Contact struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
	Phone string `json:"phone,omitempty" form:"phone"`
}

type Address struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Line1     string `json:"line1" form:"line1"`
	Line2     string `json:"line2,omitempty" form:"line2"`
	City      string `json:"city" form:"city"`
	County    string `json:"county,omitempty" form:"county"`
	Postcode  string `json:"postcode" form:"postcode"`
	Country   string `json:"country,omitempty" form:"country"`
	Phone     string `json:"phone,omitempty" form:"phone"`
}

// CartLine carries the price as the storefront shows it: pounds
type CartLine struct {
	ID       string  `json:"id" form:"id"`
	Name     string  `json:"name,omitempty" form:"name"`
	Quantity int     `json:"quantity" form:"quantity"`
	Price    float64 `json:"price" form:"price"`
}

// NewFromRequest accepts both a json body and a classic form post
func NewFromRequest(r *http.Request) (Checkout, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		checkout := Checkout{}
		err := json.NewDecoder(r.Body).Decode(&checkout)
		if err != nil {
			return Checkout{}, myerrors.NewInvalidInputError(fmt.Errorf("error decoding checkout: %s", err))
		}
		return checkout, nil
	}

	err := r.ParseForm()
	if err != nil {
		return Checkout{}, myerrors.NewInvalidInputError(err)
	}
	checkout, err := NewFromValues(r.Form)
	if err != nil {
		return Checkout{}, myerrors.NewInvalidInputError(err)
	}
	return checkout, nil
}

func NewFromValues(values url.Values) (Checkout, error) {
	checkout := Checkout{}
	err := formcodec.NewDecoder().Decode(&checkout, values)
	if err != nil {
		return checkout, fmt.Errorf("error decoding form: %s", err)
	}

	return checkout, nil
}

func (c Checkout) Email() string {
	return c.Contact.Email
}

func (c Checkout) ProductUIDs() []string {
	uids := []string{}
	for _, line := range c.Cart {
		uids = append(uids, line.ID)
	}
	return uids
}
