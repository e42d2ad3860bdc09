package addresslookup

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/checkoutbackend/lib/myhttpclient"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
)

const (
	autocompleteSW1A = `{"status":200,"result":["SW1A 2AA","SW1A 2AB"]}`
	postcodeSW1A2AA  = `{"status":200,"result":{"postcode":"SW1A 2AA","thoroughfare":"Downing Street","admin_district":"Westminster","parish":"","admin_county":null}}`
	postcodeSW1A2AB  = `{"status":200,"result":{"postcode":"SW1A 2AB","thoroughfare":"","admin_district":"","parish":"Westminster, unparished area","admin_county":"Greater London"}}`
)

func TestAddressLookup(t *testing.T) {

	t.Run("Lookup resolves suggestions", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, httpClient := setup(t, ctrl)

		// given
		httpClient.EXPECT().Send(gomock.Any(), "GET", "https://api.postcodes.io/postcodes/SW1A%202/autocomplete", nil).Return(200, []byte(autocompleteSW1A), nil)
		httpClient.EXPECT().Send(gomock.Any(), "GET", "https://api.postcodes.io/postcodes/SW1A%202AA", nil).Return(200, []byte(postcodeSW1A2AA), nil)
		httpClient.EXPECT().Send(gomock.Any(), "GET", "https://api.postcodes.io/postcodes/SW1A%202AB", nil).Return(200, []byte(postcodeSW1A2AB), nil)

		// when
		response := lookup(t, router, "SW1A+2")

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, `"formatted": "Downing Street, Westminster, SW1A 2AA"`)
		assert.Contains(t, got, `"city": "Westminster, unparished area"`)
		assert.Contains(t, got, `"county": "Greater London"`)
		assert.Contains(t, got, `"country": "United Kingdom"`)
	})

	t.Run("Failing postcode is skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, httpClient := setup(t, ctrl)

		// given
		httpClient.EXPECT().Send(gomock.Any(), "GET", "https://api.postcodes.io/postcodes/SW1A%202/autocomplete", nil).Return(200, []byte(autocompleteSW1A), nil)
		httpClient.EXPECT().Send(gomock.Any(), "GET", "https://api.postcodes.io/postcodes/SW1A%202AA", nil).Return(0, nil, fmt.Errorf("timeout"))
		httpClient.EXPECT().Send(gomock.Any(), "GET", "https://api.postcodes.io/postcodes/SW1A%202AB", nil).Return(200, []byte(postcodeSW1A2AB), nil)

		// when
		response := lookup(t, router, "SW1A+2")

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.NotContains(t, got, "SW1A 2AA")
		assert.Contains(t, got, `"postcode": "SW1A 2AB"`)
	})

	t.Run("No suggestions", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, httpClient := setup(t, ctrl)

		// given
		httpClient.EXPECT().Send(gomock.Any(), "GET", "https://api.postcodes.io/postcodes/ZZ99%209/autocomplete", nil).Return(200, []byte(`{"status":200,"result":null}`), nil)

		// when
		response := lookup(t, router, "ZZ99+9")

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), `"data": []`)
	})

	t.Run("Postcode too short", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, _ := setup(t, ctrl)

		// when
		response := lookup(t, router, "SW1")

		// then
		assert.Equal(t, 400, response.Code)
		assert.Contains(t, response.Body.String(), "Postcode must have at least 5 characters")
	})

	t.Run("Autocomplete unavailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, httpClient := setup(t, ctrl)

		// given
		httpClient.EXPECT().Send(gomock.Any(), "GET", "https://api.postcodes.io/postcodes/SW1A%202/autocomplete", nil).Return(503, []byte{}, nil)

		// when
		response := lookup(t, router, "SW1A+2")

		// then
		assert.Equal(t, 500, response.Code)
	})
}

func TestLookupLimitsSuggestions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// setup
	httpClient := myhttpclient.NewMockHTTPSender(ctrl)
	sut := newService("http://postcodes", httpClient, mylog.New("addresslookup"))

	// given
	httpClient.EXPECT().Send(gomock.Any(), "GET", "http://postcodes/postcodes/AB10%201/autocomplete", nil).
		Return(200, []byte(`{"status":200,"result":["AB10 1A","AB10 1B","AB10 1C","AB10 1D","AB10 1E","AB10 1F","AB10 1G"]}`), nil)
	httpClient.EXPECT().Send(gomock.Any(), "GET", gomock.Any(), nil).
		Return(200, []byte(`{"status":200,"result":{"postcode":"AB10 1A","thoroughfare":"Union Street","admin_district":"Aberdeen City"}}`), nil).
		Times(5)

	// when
	addresses, err := sut.lookup(context.TODO(), " AB10 1 ")

	// then
	assert.NoError(t, err)
	assert.Len(t, addresses, 5)
	assert.Equal(t, "Union Street, Aberdeen City, AB10 1A", addresses[0].Formatted)
}

func lookup(t *testing.T, router *mux.Router, postcode string) *httptest.ResponseRecorder {
	request, err := http.NewRequest(http.MethodGet, "/api/address/lookup?postcode="+postcode, nil)
	assert.NoError(t, err)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func setup(t *testing.T, ctrl *gomock.Controller) (*mux.Router, *myhttpclient.MockHTTPSender) {
	httpClient := myhttpclient.NewMockHTTPSender(ctrl)

	sut := NewWebService(httpClient)
	router := mux.NewRouter()
	err := sut.RegisterEndpoints(context.TODO(), router)
	assert.NoError(t, err)

	return router, httpClient
}
