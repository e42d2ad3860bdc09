package order

import (
	"context"
	"fmt"
	"time"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
)

// querier answers order questions of other services; it only needs the store
type querier struct {
	orderStore mystore.Store[Order]
}

func NewQuerier(orderStore mystore.Store[Order]) *querier {
	return &querier{
		orderStore: orderStore,
	}
}

func (q *querier) ordersOf(c context.Context, email string) ([]Order, error) {
	orders, err := q.orderStore.Query(c, []mystore.Filter{
		{Field: "Email", Compare: "=", Value: normalizeEmail(email)},
	}, "")
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error querying orders: %s", err))
	}
	return orders, nil
}

func (q *querier) HasCompletedOrder(c context.Context, email string) (bool, error) {
	if normalizeEmail(email) == "" {
		return false, nil
	}

	orders, err := q.ordersOf(c, email)
	if err != nil {
		return false, err
	}

	for _, o := range orders {
		if o.Status == StatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

// HasOrderSince reports whether an order in any status was placed at or after since
func (q *querier) HasOrderSince(c context.Context, email string, since time.Time) (bool, error) {
	if normalizeEmail(email) == "" {
		return false, nil
	}

	orders, err := q.ordersOf(c, email)
	if err != nil {
		return false, err
	}

	for _, o := range orders {
		if !o.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}
