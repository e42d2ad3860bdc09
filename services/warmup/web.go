package warmup

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutbackend/lib/mycontext"
	"github.com/MarcGrol/checkoutbackend/lib/myhttp"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/services/product"
)

//go:generate mockgen -source=web.go -package warmup -destination web_mock.go Catalogue
type Catalogue interface {
	RelatedProducts(c context.Context, excludeUIDs []string, limit int) ([]product.Product, error)
}

type webService struct {
	logger    mylog.Logger
	catalogue Catalogue
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(catalogue Catalogue) *webService {
	logger := mylog.New("warmup")
	return &webService{
		logger:    logger,
		catalogue: catalogue,
	}
}

func (s webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")
}

func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		// opens the store connection before the first shopper arrives
		_, err := s.catalogue.RelatedProducts(c, nil, 1)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed warmup request",
		})
	}
}
