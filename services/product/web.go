package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutbackend/lib/mycontext"
	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/myhttp"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(productStore mystore.Store[Product]) *webService {
	logger := mylog.New("product")
	return &webService{
		logger:  logger,
		service: newService(productStore, logger),
	}
}

func (s *webService) GetProducts(c context.Context, productUIDs []string) ([]Product, error) {
	return s.service.GetProducts(c, productUIDs)
}

func (s *webService) RelatedProducts(c context.Context, excludeUIDs []string, limit int) ([]Product, error) {
	return s.service.RelatedProducts(c, excludeUIDs, limit)
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/product", s.listProducts()).Methods("GET")
	router.HandleFunc("/api/product/{productUID}", s.getProduct()).Methods("GET")
	router.HandleFunc("/api/product/{productUID}", s.putProduct()).Methods("PUT")
}

func (s *webService) listProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		products, err := s.service.list(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.DataResponse{Data: products})
	}
}

func (s *webService) getProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		product, err := s.service.get(c, mux.Vars(r)["productUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.DataResponse{Data: product})
	}
}

func (s *webService) putProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		productUID := mux.Vars(r)["productUID"]

		product := Product{}
		err := json.NewDecoder(r.Body).Decode(&product)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing product: %s", err)))
			return
		}
		if product.UID != "" && product.UID != productUID {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("id mismatch: %s != %s", product.UID, productUID)))
			return
		}
		product.UID = productUID

		product, err = s.service.put(c, product)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.DataResponse{Data: product})
	}
}
