package checkoutattempt

import (
	"context"
	"time"

	"github.com/MarcGrol/checkoutbackend/services/product"
)

//go:generate mockgen -source=dependencies.go -package checkoutattempt -destination dependencies_mock.go OrderQuerier ProductCatalogue
type OrderQuerier interface {
	HasCompletedOrder(c context.Context, email string) (bool, error)
	HasOrderSince(c context.Context, email string, since time.Time) (bool, error)
}

type ProductCatalogue interface {
	GetProducts(c context.Context, productUIDs []string) ([]product.Product, error)
	RelatedProducts(c context.Context, excludeUIDs []string, limit int) ([]product.Product, error)
}
