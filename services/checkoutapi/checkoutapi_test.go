package checkoutapi

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
)

var checkout = Checkout{
	GuestSessionID: "session-1",
	Contact:        Contact{Name: "Ann Smith", Email: "ann@example.com", Phone: "07123456789"},
	Address: Address{
		FirstName: "Ann",
		LastName:  "Smith",
		Line1:     "10 Downing Street",
		City:      "London",
		Postcode:  "SW1A 2AA",
		Country:   "United Kingdom",
	},
	Cart: []CartLine{
		{ID: "p1", Name: "Silver ring", Quantity: 1, Price: 12.5},
		{ID: "p2", Name: "Pearl necklace", Quantity: 2, Price: 49.99},
	},
	CouponCode:     "WELCOME10",
	ShippingOption: "express",
	ReturnURL:      "https://rarecollectables.co.uk/order-confirmation",
	Method:         "klarna",
}

func TestDecodeForm(t *testing.T) {
	form := url.Values{
		"guestSessionId":    []string{"session-1"},
		"contact.name":      []string{"Ann Smith"},
		"contact.email":     []string{"ann@example.com"},
		"contact.phone":     []string{"07123456789"},
		"address.firstName": []string{"Ann"},
		"address.lastName":  []string{"Smith"},
		"address.line1":     []string{"10 Downing Street"},
		"address.city":      []string{"London"},
		"address.postcode":  []string{"SW1A 2AA"},
		"address.country":   []string{"United Kingdom"},
		"cart[0].id":        []string{"p1"},
		"cart[0].name":      []string{"Silver ring"},
		"cart[0].quantity":  []string{"1"},
		"cart[0].price":     []string{"12.5"},
		"cart[1].id":        []string{"p2"},
		"cart[1].name":      []string{"Pearl necklace"},
		"cart[1].quantity":  []string{"2"},
		"cart[1].price":     []string{"49.99"},
		"coupon":            []string{"WELCOME10"},
		"shippingOption":    []string{"express"},
		"returnUrl":         []string{"https://rarecollectables.co.uk/order-confirmation"},
		"method":            []string{"klarna"},
	}

	decoded, err := NewFromValues(form)
	assert.NoError(t, err)
	assert.Equal(t, checkout, decoded)
}

func TestNewFromRequest(t *testing.T) {

	t.Run("Json body", func(t *testing.T) {
		body := `{
			"guest_session_id":"session-1",
			"contact":{"name":"Ann Smith","email":"ann@example.com","phone":"07123456789"},
			"address":{"firstName":"Ann","lastName":"Smith","line1":"10 Downing Street","city":"London","postcode":"SW1A 2AA","country":"United Kingdom"},
			"cart":[{"id":"p1","name":"Silver ring","quantity":1,"price":12.5},{"id":"p2","name":"Pearl necklace","quantity":2,"price":49.99}],
			"coupon":"WELCOME10",
			"shipping_option":"express",
			"return_url":"https://rarecollectables.co.uk/order-confirmation",
			"method":"klarna"
		}`
		r, _ := http.NewRequest(http.MethodPost, "/api/mollie/checkout", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		decoded, err := NewFromRequest(r)

		assert.NoError(t, err)
		assert.Equal(t, checkout, decoded)
		assert.Equal(t, []string{"p1", "p2"}, decoded.ProductUIDs())
	})

	t.Run("Form body", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodPost, "/api/mollie/checkout", strings.NewReader("guestSessionId=session-1&contact.email=ann%40example.com"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		decoded, err := NewFromRequest(r)

		assert.NoError(t, err)
		assert.Equal(t, "session-1", decoded.GuestSessionID)
		assert.Equal(t, "ann@example.com", decoded.Email())
	})

	t.Run("Broken json", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodPost, "/api/mollie/checkout", strings.NewReader("{"))
		r.Header.Set("Content-Type", "application/json")

		_, err := NewFromRequest(r)

		assert.Equal(t, 400, myerrors.GetHTTPStatus(err))
	})
}
