package checkoutadyen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adyen/adyen-go-api-library/v6/src/checkout"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/checkoutbackend/lib/mypublisher"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
	"github.com/MarcGrol/checkoutbackend/lib/myuuid"
	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
	"github.com/MarcGrol/checkoutbackend/services/checkoutevents"
)

const (
	checkoutRequest = `{
		"guest_session_id":"session-1",
		"contact":{"name":"Ann Smith","email":"ann@example.com","phone":"07123456789"},
		"address":{"firstName":"Ann","lastName":"Smith","line1":"10 Downing Street","city":"London","postcode":"SW1A 2AA"},
		"cart":[{"id":"p1","name":"Silver ring","quantity":1,"price":12.5},{"id":"p2","name":"Pearl necklace","quantity":1,"price":49.99}],
		"return_url":"https://rarecollectables.co.uk/checkout/done"
	}`
)

var (
	cfg = Config{
		Environment:     "TEST",
		MerchantAccount: "RareCollectablesECOM",
		ClientKey:       "test_client_key",
		WebhookUsername: "adyen",
		WebhookPassword: "secret",
	}

	sessionResp = checkout.CreateCheckoutSessionResponse{
		Id:          "CS_1",
		SessionData: "lalalallalalaallalalalalalal",
	}
)

func TestAdyenCheckout(t *testing.T) {

	t.Run("Start clearpay checkout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, payer, nower, uuider, publisher := setup(t, ctrl)

		// given
		uuider.EXPECT().Create().Return("checkout-1")
		payer.EXPECT().Sessions(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req checkout.CreateCheckoutSessionRequest) (checkout.CreateCheckoutSessionResponse, error) {
			assert.Equal(t, []string{"clearpay"}, req.AllowedPaymentMethods)
			assert.Equal(t, checkout.Amount{Currency: "GBP", Value: 6249}, req.Amount)
			assert.Equal(t, "RareCollectablesECOM", req.MerchantAccount)
			assert.Equal(t, "checkout-1", req.Reference)
			assert.Equal(t, "http://localhost:8888/api/adyen/checkout/checkout-1/status/redirected", req.ReturnUrl)
			assert.Len(t, *req.LineItems, 2)
			assert.Equal(t, int64(4999), (*req.LineItems)[1].AmountIncludingTax)
			return sessionResp, nil
		})
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, gomock.Any()).Return(nil)

		// when
		response := send(t, router, http.MethodPost, "/api/adyen/checkout", checkoutRequest, false)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), `"session_data": "lalalallalalaallalalalalalal"`)
		assert.Contains(t, response.Body.String(), `"client_key": "test_client_key"`)

		checkoutContext, exists, _ := storer.Get(ctx, "checkout-1")
		assert.True(t, exists)
		assert.Equal(t, "CS_1", checkoutContext.ID)
		assert.Equal(t, "clearpay", checkoutContext.PaymentMethod)
		assert.Equal(t, int64(6249), checkoutContext.AmountInPence)
	})

	t.Run("Start checkout with empty cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		response := send(t, router, http.MethodPost, "/api/adyen/checkout", `{
			"guest_session_id":"session-1",
			"contact":{"name":"Ann Smith","email":"ann@example.com"},
			"address":{"firstName":"Ann","lastName":"Smith","line1":"10 Downing Street","city":"London","postcode":"SW1A 2AA"},
			"cart":[]
		}`, false)

		// then
		assert.Equal(t, 400, response.Code)
		assert.Contains(t, response.Body.String(), "empty cart")
	})

	t.Run("Handle checkout status redirect", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, nower, _, _ := setup(t, ctrl)

		// given
		storeCheckout(t, ctx, storer)
		nower.EXPECT().Now().Return(mytime.ExampleTime.Add(time.Minute))

		// when
		response := send(t, router, http.MethodGet, "/api/adyen/checkout/checkout-1/status/redirected", "", false)

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "https://rarecollectables.co.uk/checkout/done?order=checkout-1&status=redirected", response.Header().Get("Location"))
	})

	t.Run("Handle webhook", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, nower, _, publisher := setup(t, ctrl)

		// given
		storeCheckout(t, ctx, storer)
		nower.EXPECT().Now().Return(mytime.ExampleTime.Add(time.Hour))
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			CheckoutUID:           "checkout-1",
			ProviderName:          "adyen",
			PaymentMethod:         "clearpay",
			CheckoutStatus:        checkoutevents.CheckoutStatusSuccess,
			CheckoutStatusDetails: "AUTHORISATION=true",
		}).Return(nil)

		// when
		response := send(t, router, http.MethodPost, "/api/adyen/checkout/webhook/event", notification("AUTHORISATION", "true"), true)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "[accepted]")

		checkoutContext, exists, _ := storer.Get(ctx, "checkout-1")
		assert.True(t, exists)
		assert.Equal(t, checkoutevents.CheckoutStatusSuccess, checkoutContext.CheckoutStatus)
		assert.Equal(t, "AUTHORISATION=true", checkoutContext.CheckoutStatusDetails)
	})

	t.Run("Handle duplicate webhook", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, nower, _, publisher := setup(t, ctrl)

		// given
		storeCheckout(t, ctx, storer)
		nower.EXPECT().Now().Return(mytime.ExampleTime.Add(time.Hour)).Times(2)
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, gomock.Any()).Return(nil).Times(1)

		// when
		send(t, router, http.MethodPost, "/api/adyen/checkout/webhook/event", notification("AUTHORISATION", "false"), true)
		response := send(t, router, http.MethodPost, "/api/adyen/checkout/webhook/event", notification("AUTHORISATION", "false"), true)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "[accepted]")

		checkoutContext, _, _ := storer.Get(ctx, "checkout-1")
		assert.Equal(t, checkoutevents.CheckoutStatusFailed, checkoutContext.CheckoutStatus)
	})

	t.Run("Handle webhook with invalid credentials", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		response := send(t, router, http.MethodPost, "/api/adyen/checkout/webhook/event", notification("AUTHORISATION", "true"), false)

		// then
		assert.Equal(t, 401, response.Code)
	})

	t.Run("Classify status", func(t *testing.T) {
		assert.Equal(t, checkoutevents.CheckoutStatusSuccess, classifyEventStatus("AUTHORISATION", true))
		assert.Equal(t, checkoutevents.CheckoutStatusFailed, classifyEventStatus("AUTHORISATION", false))
		assert.Equal(t, checkoutevents.CheckoutStatusExpired, classifyEventStatus("OFFER_CLOSED", true))
		assert.Equal(t, checkoutevents.CheckoutStatusFraud, classifyEventStatus("NOTIFICATION_OF_FRAUD", true))
		assert.Equal(t, checkoutevents.CheckoutStatusUndefined, classifyEventStatus("REPORT_AVAILABLE", true))
	})
}

func notification(eventCode string, success string) string {
	return `{
		"live": "false",
		"notificationItems": [
			{
				"NotificationRequestItem": {
					"additionalData": {"checkoutSessionId": "CS_1"},
					"amount": {"currency": "GBP", "value": 6249},
					"eventCode": "` + eventCode + `",
					"eventDate": "2023-02-28T00:58:59+01:00",
					"merchantAccountCode": "RareCollectablesECOM",
					"merchantReference": "checkout-1",
					"paymentMethod": "clearpay",
					"pspReference": "NC6HT9CRT65ZGN82",
					"reason": "",
					"success": "` + success + `"
				}
			}
		]
	}`
}

func storeCheckout(t *testing.T, c context.Context, storer mystore.Store[checkoutapi.CheckoutContext]) {
	err := storer.Put(c, "checkout-1", checkoutapi.CheckoutContext{
		CheckoutUID:       "checkout-1",
		GuestSessionID:    "session-1",
		Email:             "ann@example.com",
		CreatedAt:         mytime.ExampleTime,
		LastModified:      mytime.ExampleTime,
		OriginalReturnURL: "https://rarecollectables.co.uk/checkout/done",
		ID:                "CS_1",
		SessionData:       "lalalallalalaallalalalalalal",
		AmountInPence:     6249,
		Currency:          "GBP",
		PaymentProvider:   "adyen",
		PaymentMethod:     "clearpay",
	})
	assert.NoError(t, err)
}

func send(t *testing.T, router *mux.Router, method string, path string, body string, withAuth bool) *httptest.ResponseRecorder {
	request, err := http.NewRequest(method, path, strings.NewReader(body))
	assert.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	if withAuth {
		request.SetBasicAuth(cfg.WebhookUsername, cfg.WebhookPassword)
	}
	request.Host = "localhost:8888"
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[checkoutapi.CheckoutContext], *MockPayer, *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	storer, _, _ := mystore.NewInMemoryStore[checkoutapi.CheckoutContext](c)
	payer := NewMockPayer(ctrl)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	publisher.EXPECT().CreateTopic(gomock.Any(), checkoutevents.TopicName).Return(nil)

	sut := NewWebService(cfg, payer, storer, nower, uuider, publisher)
	router := mux.NewRouter()
	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, storer, payer, nower, uuider, publisher
}
