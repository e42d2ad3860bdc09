package mystore

import (
	"context"
	"os"
)

type ctxTransactionKey struct{}

// Filter restricts a query on a top-level field of the stored entity.
// Compare is one of "=", "!=", "<", "<=", ">", ">=".
type Filter struct {
	Field   string
	Compare string
	Value   any
}

//go:generate mockgen -source=api.go -package mystore -destination store_mock.go Store
type Store[T any] interface {
	RunInTransaction(c context.Context, f func(c context.Context) error) error
	Put(c context.Context, uid string, value T) error
	Get(c context.Context, uid string) (T, bool, error)
	List(c context.Context) ([]T, error)
	// Query returns entities that match all filters. Prefix orderByField with "-" for descending order, leave it empty for no ordering.
	Query(c context.Context, filters []Filter, orderByField string) ([]T, error)
}

// New selects the backend based on the environment: Postgres when DATABASE_URL is set,
// Cloud Datastore when running on GCP, in-memory otherwise.
func New[T any](c context.Context) (Store[T], func(), error) {
	if os.Getenv("DATABASE_URL") != "" {
		return newPostgresStore[T](c, os.Getenv("DATABASE_URL"))
	}

	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		return newGcloudStore[T](c)
	}

	return NewInMemoryStore[T](c)
}
