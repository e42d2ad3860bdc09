package mypublisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/checkoutbackend/lib/myevents"
	"github.com/MarcGrol/checkoutbackend/lib/mypubsub"
	"github.com/MarcGrol/checkoutbackend/lib/myqueue"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
)

type orderCreated struct {
	OrderUID string
}

func (e orderCreated) GetEventTypeName() string {
	return "order.created"
}

func (e orderCreated) GetAggregateName() string {
	return e.OrderUID
}

func TestPublisher(t *testing.T) {

	t.Run("Publish stores envelope and enqueues trigger", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, _, outbox, queuer, _, nower, sut := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		var task myqueue.Task
		queuer.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, t myqueue.Task) error {
			task = t
			return nil
		})

		// when
		err := sut.Publish(ctx, "order", orderCreated{OrderUID: "123"})

		// then
		assert.NoError(t, err)
		envelopes, _ := outbox.List(ctx)
		assert.Len(t, envelopes, 1)
		assert.Equal(t, "order.created", envelopes[0].EventTypeName)
		assert.Equal(t, "123", envelopes[0].AggregateUID)
		assert.False(t, envelopes[0].Published)
		assert.Equal(t, "/api/pubsub/order/"+envelopes[0].UID, task.WebhookURLPath)
	})

	t.Run("Same event yields same envelope uid", func(t *testing.T) {
		env1, err := wrap("order", orderCreated{OrderUID: "123"}, mytime.ExampleTime)
		assert.NoError(t, err)
		env2, err := wrap("order", orderCreated{OrderUID: "123"}, mytime.ExampleTime.Add(time.Hour))
		assert.NoError(t, err)
		assert.Equal(t, env1.UID, env2.UID)
		assert.Len(t, env1.UID, 32)
	})

	t.Run("Other topic yields other envelope uid", func(t *testing.T) {
		env1, err := wrap("order", orderCreated{OrderUID: "123"}, mytime.ExampleTime)
		assert.NoError(t, err)
		env2, err := wrap("checkout", orderCreated{OrderUID: "123"}, mytime.ExampleTime)
		assert.NoError(t, err)
		assert.NotEqual(t, env1.UID, env2.UID)
	})

	t.Run("Trigger publishes pending envelope once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, outbox, _, pubsub, _, _ := setup(t, ctrl)

		// given
		_ = outbox.Put(ctx, "evt1", myevents.EventEnvelope{UID: "evt1", Topic: "order", EventTypeName: "order.created", AggregateUID: "123"})
		pubsub.EXPECT().Publish(gomock.Any(), "order", gomock.Any()).Return(nil).Times(1)

		for i := 0; i < 2; i++ {
			// when
			request, err := http.NewRequest(http.MethodPut, "/api/pubsub/order/evt1", nil)
			assert.NoError(t, err)
			response := httptest.NewRecorder()
			router.ServeHTTP(response, request)

			// then
			assert.Equal(t, 200, response.Code)
		}
		envelope, _, _ := outbox.Get(ctx, "evt1")
		assert.True(t, envelope.Published)
	})

	t.Run("Trigger for unknown envelope", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/pubsub/order/unknown", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[myevents.EventEnvelope], *myqueue.MockTaskQueuer, *mypubsub.MockPubSub, *mytime.MockNower, *transactionalPublisher) {
	c := context.TODO()
	outbox, _, _ := mystore.NewInMemoryStore[myevents.EventEnvelope](c)
	queuer := myqueue.NewMockTaskQueuer(ctrl)
	pubsub := mypubsub.NewMockPubSub(ctrl)
	nower := mytime.NewMockNower(ctrl)

	sut := NewWithStore(outbox, pubsub, queuer, nower)
	router := mux.NewRouter()
	sut.RegisterEndpoints(c, router)

	return c, router, outbox, queuer, pubsub, nower, sut
}
