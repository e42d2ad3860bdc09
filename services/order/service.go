package order

import (
	"context"
	"fmt"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/mypubsub"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
)

type service struct {
	orderStore mystore.Store[Order]
	attempts   AttemptCompleter
	pubsub     mypubsub.PubSub
	nower      mytime.Nower
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(orderStore mystore.Store[Order], attempts AttemptCompleter, pubsub mypubsub.PubSub, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		orderStore: orderStore,
		attempts:   attempts,
		pubsub:     pubsub,
		nower:      nower,
		logger:     logger,
	}
}

func (s *service) get(c context.Context, orderUID string) (Order, error) {
	order, found, err := s.orderStore.Get(c, orderUID)
	if err != nil {
		return Order{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Order{}, myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
	}
	return order, nil
}
