package checkoutattempt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutbackend/lib/mycontext"
	"github.com/MarcGrol/checkoutbackend/lib/myemail"
	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/myhttp"
	"github.com/MarcGrol/checkoutbackend/lib/mylock"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/mypublisher"
	"github.com/MarcGrol/checkoutbackend/lib/myqueue"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
)

const (
	maxAttemptSize = 1 << 20
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(cfg Config, attemptStore mystore.Store[CheckoutAttempt], orders OrderQuerier, products ProductCatalogue, emailer myemail.Emailer, locker mylock.Locker, queue myqueue.TaskQueuer, publisher mypublisher.Publisher, nower mytime.Nower) *webService {
	logger := mylog.New("checkoutattempt")
	return &webService{
		logger:  logger,
		service: newService(cfg, attemptStore, orders, products, emailer, locker, queue, publisher, nower, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Called by the storefront on every (debounced) change of the checkout form
	router.HandleFunc("/api/checkout/attempt", s.recordAttemptPage())
	router.HandleFunc("/.netlify/functions/logCheckoutAttempt", s.recordAttemptPage())

	// Cloud Tasks calls this endpoint when the reminder is due
	router.HandleFunc("/api/checkout/attempt/{sessionUID:.+}/reminder", s.reminderTaskPage()).Methods("PUT")

	// Cron
	router.HandleFunc("/api/checkout/attempt/reminder/sweep", s.sweepPage()).Methods("GET")

	err := s.service.CreateTopics(c)
	if err != nil {
		return err
	}

	return nil
}

// MarkCompleted is called when the checkout of the session resulted in a completed order
func (s *webService) MarkCompleted(c context.Context, sessionUID string) error {
	return s.service.MarkCompleted(c, sessionUID)
}

func (s *webService) recordAttemptPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAttemptSize))
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error reading request: %s", err)))
			return
		}

		attempt, err := s.service.recordAttempt(c, body)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.DataResponse{
			Data: []CheckoutAttempt{attempt},
		})
	}
}

func (s *webService) reminderTaskPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		sessionUID := mux.Vars(r)["sessionUID"]

		// Failures are logged, never reported: a reminder is not retried
		task := ReminderTask{}
		err := json.NewDecoder(r.Body).Decode(&task)
		if err != nil {
			s.logger.Log(c, sessionUID, mylog.SeverityError, "Error parsing reminder task: %s", err)
			errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "Ignored invalid reminder task"})
			return
		}
		task.GuestSessionID = sessionUID

		sent, err := s.service.processReminder(c, task)
		if err != nil {
			s.logger.Log(c, sessionUID, mylog.SeverityError, "Error in abandoned-cart check for session %s: %s", sessionUID, err)
		}

		message := "No abandoned-cart email needed"
		if sent {
			message = "Abandoned-cart email sent"
		}
		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: message})
	}
}

func (s *webService) sweepPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		processed, err := s.service.sweepReminders(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Processed %d due reminders", processed),
		})
	}
}
