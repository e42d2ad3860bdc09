package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
)

func TestCheckoutWebService(t *testing.T) {

	t.Run("Apply valid coupon", func(t *testing.T) {
		// setup
		router := setup()

		// when
		response := post(t, router, "/api/checkout/coupon", `{"code":"welcome10","cart":[{"id":"p1","quantity":2,"price":10}]}`)

		// then
		assert.Equal(t, 200, response.Code)
		status := CouponStatus{}
		json.Unmarshal(response.Body.Bytes(), &status)
		assert.True(t, status.Valid)
		assert.Equal(t, int64(1800), status.Quote.TotalInPence)
	})

	t.Run("Apply invalid coupon", func(t *testing.T) {
		// setup
		router := setup()

		// when
		response := post(t, router, "/api/checkout/coupon", `{"code":"nope","cart":[{"id":"p1","quantity":2,"price":10}]}`)

		// then
		assert.Equal(t, 200, response.Code)
		status := CouponStatus{}
		json.Unmarshal(response.Body.Bytes(), &status)
		assert.False(t, status.Valid)
		assert.Equal(t, "Invalid coupon code", status.Error)
	})

	t.Run("Quote", func(t *testing.T) {
		// setup
		router := setup()

		// when
		response := post(t, router, "/api/checkout/quote", `{"cart":[{"id":"p1","quantity":1,"price":12.5}],"coupon":"FREESHIP","shipping_option":"express"}`)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), `"total_in_pence": 1250`)
	})

	t.Run("Quote empty cart", func(t *testing.T) {
		// setup
		router := setup()

		// when
		response := post(t, router, "/api/checkout/quote", `{"cart":[]}`)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Validate invalid", func(t *testing.T) {
		// setup
		router := setup()

		// when
		response := post(t, router, "/api/checkout/validate", `{"contact":{"name":"Ann Smith","email":"ann@example.com"},"address":{"firstName":"Ann","lastName":"Smith","line1":"10 Downing Street","city":"London","postcode":"NOPE"}}`)

		// then
		assert.Equal(t, 400, response.Code)
		resp := ValidationResponse{}
		json.Unmarshal(response.Body.Bytes(), &resp)
		assert.Equal(t, FieldErrors{"postcode": "Postcode required"}, resp.Fields)
	})

	t.Run("Validate valid", func(t *testing.T) {
		// setup
		router := setup()

		// when
		response := post(t, router, "/api/checkout/validate", `{"contact":{"name":"Ann Smith","email":"ann@example.com"},"address":{"firstName":"Ann","lastName":"Smith","line1":"10 Downing Street","city":"London","postcode":"SW1A 2AA"}}`)

		// then
		assert.Equal(t, 200, response.Code)
	})
}

func TestPrepare(t *testing.T) {
	co := checkoutapi.Checkout{
		GuestSessionID: "session-1",
		Contact:        validContact,
		Address:        validAddress,
		Cart:           cart,
		CouponCode:     "WELCOME10",
	}

	t.Run("valid checkout", func(t *testing.T) {
		quote, err := Prepare(co)

		assert.NoError(t, err)
		assert.Equal(t, int64(10123), quote.TotalInPence)

		event := NewCheckoutStarted("checkout-1", "stripe", "card", co, quote)
		assert.Equal(t, "WELCOME10", event.CouponCode)
		assert.Equal(t, int64(10123), event.AmountInPence)
		assert.Equal(t, "ann@example.com", event.Email)
		assert.Len(t, event.Lines, 2)
		assert.Equal(t, int64(4999), event.Lines[1].PriceInPence)
	})

	t.Run("invalid details", func(t *testing.T) {
		invalid := co
		invalid.Address.City = ""

		_, err := Prepare(invalid)

		assert.Equal(t, 400, myerrors.GetHTTPStatus(err))
		assert.Contains(t, err.Error(), "city: City required")
	})

	t.Run("missing session", func(t *testing.T) {
		invalid := co
		invalid.GuestSessionID = ""

		_, err := Prepare(invalid)

		assert.Equal(t, 400, myerrors.GetHTTPStatus(err))
	})
}

func post(t *testing.T, router *mux.Router, path string, body string) *httptest.ResponseRecorder {
	request, err := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	assert.NoError(t, err)
	request.Host = "localhost:8888"
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func setup() *mux.Router {
	router := mux.NewRouter()
	NewWebService().RegisterEndpoints(context.TODO(), router)
	return router
}
