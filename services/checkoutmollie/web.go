package checkoutmollie

import (
	"context"
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
func NewWebService(payer Payer, nower mytime.Nower, uuider myuuid.UUIDer, checkoutStore mystore.Store[checkoutapi.CheckoutContext], publisher mypublisher.Publisher) *webService {
	logger := mylog.New("checkoutmollie")
	return &webService{
		logger:  logger,
		service: newService(payer, logger, nower, uuider, checkoutStore, publisher),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/mollie/checkout", s.startCheckout()).Methods("POST")

	// Mollie will redirect to this endpoint after checkout has finalized
	router.HandleFunc("/api/mollie/checkout/{checkoutUID}/status/{status}", s.checkoutCompletedPage()).Methods("GET")

	// Final notification called by Mollie at a later time
	router.HandleFunc("/api/mollie/checkout/webhook/event/{checkoutUID}", s.webhookNotification()).Methods("POST")

	err := s.service.CreateTopics(c)
	if err != nil {
		return err
	}

	return nil
}

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

func (s *webService) checkoutCompletedPage() http.HandlerFunc {
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

func (s *webService) webhookNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		err := r.ParseForm()
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		id := r.FormValue("id")
		if id == "" {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputErrorf("missing id"))
			return
		}

		err = s.service.webhookNotification(c, checkoutUID, id)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "Webhook processed"})
	}
}
