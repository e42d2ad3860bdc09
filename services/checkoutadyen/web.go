package checkoutadyen

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
	"github.com/MarcGrol/checkoutbackend/lib/mypublisher"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
	"github.com/MarcGrol/checkoutbackend/lib/myuuid"
	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(cfg Config, payer Payer, checkoutStore mystore.Store[checkoutapi.CheckoutContext], nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher) *webService {
	logger := mylog.New("checkoutadyen")
	return &webService{
		logger:  logger,
		service: newService(cfg, payer, checkoutStore, nower, uuider, logger, publisher),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/adyen/checkout", s.startCheckout()).Methods("POST")

	// Adyen will redirect to this endpoint after checkout has finalized
	router.HandleFunc("/api/adyen/checkout/{checkoutUID}/status/{status}", s.finalizeCheckoutPage()).Methods("GET")

	// Final notification called by Adyen at a later time
	router.HandleFunc("/api/adyen/checkout/webhook/event", s.webhookNotification()).Methods("POST")

	err := s.service.CreateTopics(c)
	if err != nil {
		return err
	}

	return nil
}

// startCheckout starts a checkout session on the Adyen platform
func (s *webService) startCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		co, err := checkoutapi.NewFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		resp, err := s.service.startCheckout(c, myhttp.HostnameWithScheme(r), co)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.DataResponse{Data: resp})
	}
}

// finalizeCheckoutPage reports the status after finalisation of the checkout
func (s *webService) finalizeCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]
		status := mux.Vars(r)["status"]

		redirectURL, err := s.service.finalizeCheckout(c, checkoutUID, status)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	}
}

// webhookNotification received a json-formatted notification message with the definitive checkout status
func (s *webService) webhookNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		username, password, _ := r.BasicAuth()
		err := s.service.authenticateWebhook(username, password)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		event := WebhookNotification{}
		err = json.NewDecoder(r.Body).Decode(&event)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("error parsing webhook notification event: %s", err)))
			return
		}

		err = s.service.webhookNotification(c, event)
		if err != nil {
			errorWriter.Write(c, w, http.StatusOK, WebhookNotificationResponse{
				Status: err.Error(),
			})
			return
		}

		errorWriter.Write(c, w, http.StatusOK, WebhookNotificationResponse{
			Status: "[accepted]", // Body containing "[accepted]" is the signal that message has been successfully processed
		})
	}
}
