package checkoutstripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/checkoutbackend/lib/mypublisher"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
	"github.com/MarcGrol/checkoutbackend/lib/myuuid"
	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
	"github.com/MarcGrol/checkoutbackend/services/checkoutevents"
)

const (
	webhookSecret = "whsec_test"

	checkoutRequest = `{
		"guest_session_id":"session-1",
		"contact":{"name":"Ann Smith","email":"ann@example.com"},
		"address":{"firstName":"Ann","lastName":"Smith","line1":"10 Downing Street","city":"London","postcode":"SW1A 2AA"},
		"cart":[{"id":"p1","name":"Silver ring","quantity":2,"price":12.5}],
		"coupon":"WELCOME10",
		"payment_method_id":"pm_card_visa"
	}`
)

func TestStripeCheckout(t *testing.T) {

	t.Run("Start checkout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, payer, nower, uuider, publisher := setup(t, ctrl)

		// given
		uuider.EXPECT().Create().Return("checkout-1")
		payer.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, params stripe.PaymentIntentParams) (stripe.PaymentIntent, error) {
			assert.Equal(t, int64(2250), *params.Amount)
			assert.Equal(t, "gbp", *params.Currency)
			assert.Equal(t, "pm_card_visa", *params.PaymentMethod)
			assert.Equal(t, "ann@example.com", *params.ReceiptEmail)
			assert.True(t, *params.Confirm)
			return stripe.PaymentIntent{
				ID:           "pi_1",
				ClientSecret: "pi_1_secret",
				Status:       stripe.PaymentIntentStatusSucceeded,
			}, nil
		})
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.CheckoutStarted{
			CheckoutUID:     "checkout-1",
			GuestSessionID:  "session-1",
			ProviderName:    "stripe",
			PaymentMethod:   "card",
			Email:           "ann@example.com",
			AmountInPence:   2250,
			DiscountInPence: 250,
			ShippingInPence: 0,
			Currency:        "GBP",
			CouponCode:      "WELCOME10",
			ShippingOption:  "standard",
			Lines: []checkoutevents.OrderLine{
				{ProductUID: "p1", Name: "Silver ring", Quantity: 2, PriceInPence: 1250},
			},
		}).Return(nil)

		// when
		response := send(t, router, http.MethodPost, "/api/stripe/checkout", checkoutRequest, "application/json", "")

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), `"client_secret": "pi_1_secret"`)
		assert.Contains(t, response.Body.String(), `"success": true`)

		checkoutContext, exists, _ := storer.Get(ctx, "checkout-1")
		assert.True(t, exists)
		assert.Equal(t, "pi_1", checkoutContext.ID)
		assert.Equal(t, "session-1", checkoutContext.GuestSessionID)
		assert.Equal(t, int64(2250), checkoutContext.AmountInPence)
		assert.Equal(t, "stripe", checkoutContext.PaymentProvider)
	})

	t.Run("Start checkout with invalid address", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		response := send(t, router, http.MethodPost, "/api/stripe/checkout", strings.Replace(checkoutRequest, "SW1A 2AA", "", 1), "application/json", "")

		// then
		assert.Equal(t, 400, response.Code)
		assert.Contains(t, response.Body.String(), "postcode: Postcode required")
	})

	t.Run("Start checkout without payment method", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		response := send(t, router, http.MethodPost, "/api/stripe/checkout", strings.Replace(checkoutRequest, "pm_card_visa", "", 1), "application/json", "")

		// then
		assert.Equal(t, 400, response.Code)
		assert.Contains(t, response.Body.String(), "missing payment_method_id")
	})

	t.Run("Webhook payment succeeded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, nower, _, publisher := setup(t, ctrl)

		// given
		storeCheckout(t, ctx, storer)
		nower.EXPECT().Now().Return(mytime.ExampleTime.Add(time.Minute))
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			CheckoutUID:           "checkout-1",
			ProviderName:          "stripe",
			PaymentMethod:         "card",
			CheckoutStatus:        checkoutevents.CheckoutStatusSuccess,
			CheckoutStatusDetails: "payment_intent.succeeded",
		}).Return(nil)

		// when
		payload := webhookEvent("payment_intent.succeeded", "succeeded", "checkout-1")
		response := send(t, router, http.MethodPost, "/api/stripe/checkout/webhook/event", payload, "application/json", sign(payload))

		// then
		assert.Equal(t, 200, response.Code)

		checkoutContext, exists, _ := storer.Get(ctx, "checkout-1")
		assert.True(t, exists)
		assert.Equal(t, checkoutevents.CheckoutStatusSuccess, checkoutContext.CheckoutStatus)
		assert.Equal(t, "succeeded", checkoutContext.Status)
		assert.Equal(t, mytime.ExampleTime.Add(time.Minute), checkoutContext.LastModified)
	})

	t.Run("Webhook payment failed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, nower, _, publisher := setup(t, ctrl)

		// given
		storeCheckout(t, ctx, storer)
		nower.EXPECT().Now().Return(mytime.ExampleTime.Add(time.Minute))
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			CheckoutUID:           "checkout-1",
			ProviderName:          "stripe",
			PaymentMethod:         "card",
			CheckoutStatus:        checkoutevents.CheckoutStatusFailed,
			CheckoutStatusDetails: "payment_intent.payment_failed",
		}).Return(nil)

		// when
		payload := webhookEvent("payment_intent.payment_failed", "requires_payment_method", "checkout-1")
		response := send(t, router, http.MethodPost, "/api/stripe/checkout/webhook/event", payload, "application/json", sign(payload))

		// then
		assert.Equal(t, 200, response.Code)
	})

	t.Run("Webhook with invalid signature", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		payload := webhookEvent("payment_intent.succeeded", "succeeded", "checkout-1")
		response := send(t, router, http.MethodPost, "/api/stripe/checkout/webhook/event", payload, "application/json", "t=1,v1=bogus")

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Webhook with irrelevant event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		payload := webhookEvent("charge.refunded", "succeeded", "checkout-1")
		response := send(t, router, http.MethodPost, "/api/stripe/checkout/webhook/event", payload, "application/json", sign(payload))

		// then
		assert.Equal(t, 200, response.Code)
	})

	t.Run("Webhook for unknown checkout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, nower, _, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		payload := webhookEvent("payment_intent.succeeded", "succeeded", "checkout-2")
		response := send(t, router, http.MethodPost, "/api/stripe/checkout/webhook/event", payload, "application/json", sign(payload))

		// then
		assert.Equal(t, 404, response.Code)
	})
}

func storeCheckout(t *testing.T, c context.Context, storer mystore.Store[checkoutapi.CheckoutContext]) {
	err := storer.Put(c, "checkout-1", checkoutapi.CheckoutContext{
		CheckoutUID:     "checkout-1",
		GuestSessionID:  "session-1",
		Email:           "ann@example.com",
		CreatedAt:       mytime.ExampleTime,
		LastModified:    mytime.ExampleTime,
		ID:              "pi_1",
		AmountInPence:   2250,
		Currency:        "GBP",
		Status:          "processing",
		PaymentProvider: "stripe",
		PaymentMethod:   "card",
	})
	assert.NoError(t, err)
}

func webhookEvent(eventType string, status string, checkoutUID string) string {
	return `{
		"id": "evt_1",
		"object": "event",
		"api_version": "2023-10-16",
		"created": 1677542339,
		"type": "` + eventType + `",
		"data": {
			"object": {
				"id": "pi_1",
				"object": "payment_intent",
				"status": "` + status + `",
				"metadata": {
					"checkoutUID": "` + checkoutUID + `"
				}
			}
		}
	}`
}

func sign(payload string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	}).Header
}

func send(t *testing.T, router *mux.Router, method string, path string, body string, contentType string, signature string) *httptest.ResponseRecorder {
	request, err := http.NewRequest(method, path, strings.NewReader(body))
	assert.NoError(t, err)
	request.Header.Set("Content-Type", contentType)
	if signature != "" {
		request.Header.Set("Stripe-Signature", signature)
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

	sut := NewWebService(webhookSecret, payer, nower, uuider, storer, publisher)
	router := mux.NewRouter()
	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, storer, payer, nower, uuider, publisher
}
