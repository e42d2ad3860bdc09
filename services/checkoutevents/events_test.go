package checkoutevents

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/myevents"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
)

type recordingService struct {
	started   []CheckoutStarted
	completed []CheckoutCompleted
}

func (s *recordingService) Subscribe(c context.Context) error {
	return nil
}

func (s *recordingService) OnCheckoutStarted(c context.Context, topic string, event CheckoutStarted) error {
	s.started = append(s.started, event)
	return nil
}

func (s *recordingService) OnCheckoutCompleted(c context.Context, topic string, event CheckoutCompleted) error {
	s.completed = append(s.completed, event)
	return nil
}

type unknownEvent struct{}

func (e unknownEvent) GetEventTypeName() string {
	return "checkout.unknown"
}

func (e unknownEvent) GetAggregateName() string {
	return "123"
}

func TestDispatchEvent(t *testing.T) {

	t.Run("Dispatch completed", func(t *testing.T) {
		// given
		sut := &recordingService{}
		event := CheckoutCompleted{CheckoutUID: "123", ProviderName: "stripe", CheckoutStatus: CheckoutStatusSuccess}
		req, err := myevents.CreatePushRequest(TopicName, "order", "1", mytime.ExampleTime, event)
		assert.NoError(t, err)

		// when
		err = DispatchEvent(context.TODO(), strings.NewReader(req), sut)

		// then
		assert.NoError(t, err)
		assert.Equal(t, []CheckoutCompleted{event}, sut.completed)
		assert.Empty(t, sut.started)
	})

	t.Run("Dispatch started", func(t *testing.T) {
		// given
		sut := &recordingService{}
		event := CheckoutStarted{CheckoutUID: "123", GuestSessionID: "session-1", AmountInPence: 1250, Lines: []OrderLine{{ProductUID: "p1", Quantity: 1, PriceInPence: 1250}}}
		req, err := myevents.CreatePushRequest(TopicName, "order", "2", mytime.ExampleTime, event)
		assert.NoError(t, err)

		// when
		err = DispatchEvent(context.TODO(), strings.NewReader(req), sut)

		// then
		assert.NoError(t, err)
		assert.Equal(t, []CheckoutStarted{event}, sut.started)
	})

	t.Run("Dispatch unknown", func(t *testing.T) {
		// given
		req, err := myevents.CreatePushRequest(TopicName, "order", "3", mytime.ExampleTime, unknownEvent{})
		assert.NoError(t, err)

		// when
		err = DispatchEvent(context.TODO(), strings.NewReader(req), &recordingService{})

		// then
		assert.Error(t, err)
		assert.Equal(t, 501, myerrors.GetHTTPStatus(err))
	})

	t.Run("Dispatch garbage", func(t *testing.T) {
		err := DispatchEvent(context.TODO(), strings.NewReader(fmt.Sprintf("%d", 42)), &recordingService{})

		assert.Equal(t, 400, myerrors.GetHTTPStatus(err))
	})
}
