package checkout

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
	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
)

type webService struct {
	logger mylog.Logger
}

func NewWebService() *webService {
	return &webService{
		logger: mylog.New("checkout"),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/checkout/coupon", s.applyCoupon()).Methods("POST")
	router.HandleFunc("/api/checkout/quote", s.quote()).Methods("POST")
	router.HandleFunc("/api/checkout/validate", s.validate()).Methods("POST")
}

type couponRequest struct {
	Code           string                 `json:"code"`
	Cart           []checkoutapi.CartLine `json:"cart"`
	ShippingOption string                 `json:"shipping_option"`
}

type quoteRequest struct {
	Cart           []checkoutapi.CartLine `json:"cart"`
	CouponCode     string                 `json:"coupon"`
	ShippingOption string                 `json:"shipping_option"`
}

type validateRequest struct {
	Contact checkoutapi.Contact `json:"contact"`
	Address checkoutapi.Address `json:"address"`
}

func (s *webService) applyCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := couponRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing coupon request: %s", err)))
			return
		}
		if req.Code == "" {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("missing coupon code")))
			return
		}

		status, err := ApplyCoupon(req.Cart, req.Code, req.ShippingOption)
		if err != nil {
			errorWriter.WriteError(c, w, 3, myerrors.NewInvalidInputError(err))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, status)
	}
}

func (s *webService) quote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := quoteRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing quote request: %s", err)))
			return
		}

		quote, err := Calculate(req.Cart, req.CouponCode, req.ShippingOption)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(err))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.DataResponse{Data: quote})
	}
}

func (s *webService) validate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := validateRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing validation request: %s", err)))
			return
		}

		errs := Validate(req.Contact, req.Address)
		if len(errs) > 0 {
			errorWriter.Write(c, w, http.StatusBadRequest, ValidationResponse{
				Error:  "Please correct the highlighted fields",
				Fields: errs,
			})
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "Checkout details are valid"})
	}
}
