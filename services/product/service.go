package product

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
)

type service struct {
	productStore mystore.Store[Product]
	shuffle      func(n int, swap func(i, j int))
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(productStore mystore.Store[Product], logger mylog.Logger) *service {
	return &service{
		productStore: productStore,
		shuffle:      rand.Shuffle,
		logger:       logger,
	}
}

func (s *service) list(c context.Context) ([]Product, error) {
	products, err := s.productStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error fetching products: %s", err))
	}
	return products, nil
}

func (s *service) get(c context.Context, productUID string) (Product, error) {
	product, found, err := s.productStore.Get(c, productUID)
	if err != nil {
		return Product{}, myerrors.NewInternalError(fmt.Errorf("error fetching product %s: %s", productUID, err))
	}
	if !found {
		return Product{}, myerrors.NewNotFoundError(fmt.Errorf("product %s not found", productUID))
	}
	return product, nil
}

func (s *service) put(c context.Context, product Product) (Product, error) {
	if product.Currency == "" {
		product.Currency = "GBP"
	}
	err := validateProduct(product)
	if err != nil {
		return Product{}, myerrors.NewInvalidInputError(err)
	}

	err = s.productStore.Put(c, product.UID, product)
	if err != nil {
		return Product{}, myerrors.NewInternalError(fmt.Errorf("error storing product %s: %s", product.UID, err))
	}

	s.logger.Log(c, product.UID, mylog.SeverityInfo, "Stored product %s", product.UID)

	return product, nil
}

// GetProducts returns the products in the order of productUIDs, unknown ids are skipped
func (s *service) GetProducts(c context.Context, productUIDs []string) ([]Product, error) {
	products := []Product{}
	seen := map[string]bool{}
	for _, uid := range productUIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true

		product, found, err := s.productStore.Get(c, uid)
		if err != nil {
			return nil, fmt.Errorf("error fetching product %s: %s", uid, err)
		}
		if found {
			products = append(products, product)
		}
	}
	return products, nil
}

// RelatedProducts picks up to limit random products that have an image and are not excluded
func (s *service) RelatedProducts(c context.Context, excludeUIDs []string, limit int) ([]Product, error) {
	all, err := s.productStore.List(c)
	if err != nil {
		return nil, fmt.Errorf("error fetching products: %s", err)
	}

	excluded := map[string]bool{}
	for _, uid := range excludeUIDs {
		excluded[uid] = true
	}

	candidates := []Product{}
	for _, p := range all {
		if !excluded[p.UID] && p.HasImage() {
			candidates = append(candidates, p)
		}
	}

	s.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
