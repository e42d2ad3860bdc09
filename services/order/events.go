package order

import (
	"context"
	"fmt"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/myhttp"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/services/checkoutevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.pubsub.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", checkoutevents.TopicName, err)
	}

	err = s.pubsub.Subscribe(c, checkoutevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/order/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

func (s *service) OnCheckoutStarted(c context.Context, topic string, event checkoutevents.CheckoutStarted) error {
	s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Checkout %s started for session %s (%s/%s)", event.CheckoutUID, event.GuestSessionID, event.ProviderName, event.PaymentMethod)

	now := s.nower.Now()

	return s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		_, found, err := s.orderStore.Get(c, event.CheckoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if found {
			return nil
		}

		err = s.orderStore.Put(c, event.CheckoutUID, newOrder(event, now))
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
}

func (s *service) OnCheckoutCompleted(c context.Context, topic string, event checkoutevents.CheckoutCompleted) error {
	s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Checkout status update on order %s -> %s (%s)", event.CheckoutUID, event.CheckoutStatus, event.CheckoutStatusDetails)

	now := s.nower.Now()

	guestSessionID := ""
	err := s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		order, found, err := s.orderStore.Get(c, event.CheckoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", event.CheckoutUID))
		}
		guestSessionID = order.GuestSessionID

		if order.IsFinal() {
			return nil
		}

		order.Status = statusOf(event.CheckoutStatus)
		order.StatusDetails = event.CheckoutStatusDetails
		if event.PaymentMethod != "" {
			order.PaymentMethod = event.PaymentMethod
		}
		order.LastModified = now
		if order.Status == StatusCompleted {
			order.CompletedAt = &now
		}

		err = s.orderStore.Put(c, event.CheckoutUID, order)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if event.CheckoutStatus == checkoutevents.CheckoutStatusSuccess && guestSessionID != "" {
		err = s.attempts.MarkCompleted(c, guestSessionID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error marking attempt of session %s completed: %s", guestSessionID, err))
		}
	}

	return nil
}
