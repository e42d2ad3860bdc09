package addresslookup

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutbackend/lib/mycontext"
	"github.com/MarcGrol/checkoutbackend/lib/myhttp"
	"github.com/MarcGrol/checkoutbackend/lib/myhttpclient"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(httpClient myhttpclient.HTTPSender) *webService {
	logger := mylog.New("addresslookup")
	return &webService{
		logger:  logger,
		service: newService(postcodesBaseURL, httpClient, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/address/lookup", s.lookupPage()).Methods("GET")

	return nil
}

func (s *webService) lookupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		addresses, err := s.service.lookup(c, r.URL.Query().Get("postcode"))
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.DataResponse{
			Data: addresses,
		})
	}
}
