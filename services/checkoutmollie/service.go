package checkoutmollie

import (
	"context"
	"fmt"
	"net/url"

	"github.com/VictorAvelar/mollie-api-go/v3/mollie"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/mypublisher"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
	"github.com/MarcGrol/checkoutbackend/lib/myuuid"
	"github.com/MarcGrol/checkoutbackend/services/checkout"
	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
	"github.com/MarcGrol/checkoutbackend/services/checkoutevents"
)

const (
	providerName = "mollie"
)

var supportedMethods = map[string]mollie.PaymentMethod{
	"paypal": mollie.PaymentMethod("paypal"),
	"klarna": mollie.PaymentMethod("klarna"),
}

type service struct {
	payer         Payer
	logger        mylog.Logger
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	publisher     mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(payer Payer, logger mylog.Logger, nower mytime.Nower, uuider myuuid.UUIDer, checkoutStore mystore.Store[checkoutapi.CheckoutContext], publisher mypublisher.Publisher) *service {
	return &service{
		payer:         payer,
		logger:        logger,
		nower:         nower,
		uuider:        uuider,
		checkoutStore: checkoutStore,
		publisher:     publisher,
	}
}

func (s *service) CreateTopics(c context.Context) error {
	err := s.publisher.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

// startCheckout creates a payment on the Mollie platform and returns the url of the hosted checkout page
func (s *service) startCheckout(c context.Context, baseURL string, co checkoutapi.Checkout) (RedirectResponse, error) {
	quote, err := checkout.Prepare(co)
	if err != nil {
		return RedirectResponse{}, err
	}
	method, found := supportedMethods[co.Method]
	if !found {
		return RedirectResponse{}, myerrors.NewInvalidInputError(fmt.Errorf("unsupported payment method '%s'", co.Method))
	}

	checkoutUID := s.uuider.Create()

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Start %s checkout %s for session %s", co.Method, checkoutUID, co.GuestSessionID)

	payment, err := s.payer.CreatePayment(c, newPaymentRequest(baseURL, checkoutUID, method, co, quote))
	if err != nil {
		return RedirectResponse{}, err
	}

	now := s.nower.Now()

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		// Store checkout context on checkoutUID because we need it for the success/cancel callback and the webhook
		err = s.checkoutStore.Put(c, checkoutUID, checkoutapi.CheckoutContext{
			CheckoutUID:       checkoutUID,
			GuestSessionID:    co.GuestSessionID,
			Email:             co.Contact.Email,
			CreatedAt:         now,
			LastModified:      now,
			OriginalReturnURL: co.ReturnURL,
			ID:                payment.ID,
			AmountInPence:     quote.TotalInPence,
			Currency:          quote.Currency,
			Status:            payment.Status,
			PaymentProvider:   providerName,
			PaymentMethod:     co.Method,
			CheckoutStatus:    checkoutevents.CheckoutStatusUndefined,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing checkout: %s", err))
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkout.NewCheckoutStarted(checkoutUID, providerName, co.Method, co, quote))
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return RedirectResponse{}, err
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Start checkout %s completed: payment %s", checkoutUID, payment.ID)

	return RedirectResponse{
		CheckoutUID: checkoutUID,
		PaymentID:   payment.ID,
		RedirectURL: payment.Links.Checkout.Href,
	}, nil
}

func newPaymentRequest(baseURL string, checkoutUID string, method mollie.PaymentMethod, co checkoutapi.Checkout, quote checkout.Quote) mollie.Payment {
	address := co.Address
	return mollie.Payment{
		Amount: &mollie.Amount{
			Currency: quote.Currency,
			Value:    fmt.Sprintf("%.2f", float64(quote.TotalInPence)/100.0),
		},
		Description:  fmt.Sprintf("Order from %s %s", address.FirstName, address.LastName),
		RedirectURL:  fmt.Sprintf("%s/api/mollie/checkout/%s/status/success", baseURL, checkoutUID),
		CancelURL:    fmt.Sprintf("%s/api/mollie/checkout/%s/status/cancelled", baseURL, checkoutUID),
		WebhookURL:   fmt.Sprintf("%s/api/mollie/checkout/webhook/event/%s", baseURL, checkoutUID),
		Method:       method,
		BillingEmail: co.Contact.Email,
		Locale:       "en_GB",
		Metadata: map[string]string{
			"checkoutUID":    checkoutUID,
			"guestSessionID": co.GuestSessionID,
		},
		BillingAddress: &mollie.Address{
			StreetAndNumber: address.Line1,
			City:            address.City,
			Region:          address.County,
			PostalCode:      address.Postcode,
			Country:         "GB",
		},
		ShippingAddress: &mollie.PaymentDetailsAddress{
			StreetAndNumber: address.Line1,
			City:            address.City,
			Region:          address.County,
			PostalCode:      address.Postcode,
			Country:         "GB",
		},
	}
}

// finalizeCheckout is called when Mollie redirects the shopper back to us
func (s *service) finalizeCheckout(c context.Context, checkoutUID string, status string) (string, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Redirect (start): Checkout completed for checkout %s -> %s", checkoutUID, status)

	now := s.nower.Now()

	adjustedReturnURL := ""
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", checkoutUID, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		checkoutContext.Status = status
		checkoutContext.LastModified = now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		adjustedReturnURL, err = addStatusQueryParam(checkoutContext.OriginalReturnURL, checkoutUID, status)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error adjusting url: %s", err))
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Redirect (done): Checkout completed for checkout %s -> %s", checkoutUID, status)

	return adjustedReturnURL, nil
}

func addStatusQueryParam(orgURL string, checkoutUID string, status string) (string, error) {
	u, err := url.Parse(orgURL)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error parsing return ReturnURL %s: %s", orgURL, err))
	}
	params := u.Query()
	params.Set("status", status)
	params.Set("order", checkoutUID)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// webhookNotification only receives the payment id: the status must be fetched from Mollie
func (s *service) webhookNotification(c context.Context, checkoutUID string, id string) error {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Webhook: status update event '%s'", id)

	payment, err := s.payer.GetPaymentOnID(c, id)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error getting payment %s on id: %s", id, err))
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Webhook: payment %s has status %s", payment.ID, payment.Status)

	now := s.nower.Now()

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}
		if checkoutContext.ID != payment.ID {
			return myerrors.NewInvalidInputError(fmt.Errorf("payment %s does not belong to checkout %s", payment.ID, checkoutUID))
		}

		eventStatus := classifyEventStatus(payment.Status)
		if checkoutContext.CheckoutStatus == eventStatus && checkoutContext.CheckoutStatusDetails == payment.Status {
			return nil
		}

		if payment.Method != "" {
			checkoutContext.PaymentMethod = string(payment.Method)
		}
		checkoutContext.LastModified = now
		checkoutContext.CheckoutStatus = eventStatus
		checkoutContext.CheckoutStatusDetails = payment.Status

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			ProviderName:          providerName,
			CheckoutUID:           checkoutUID,
			PaymentMethod:         checkoutContext.PaymentMethod,
			CheckoutStatus:        eventStatus,
			CheckoutStatusDetails: payment.Status,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func classifyEventStatus(mollieStatus string) checkoutevents.CheckoutStatus {
	switch mollieStatus {
	case "paid", "authorized":
		return checkoutevents.CheckoutStatusSuccess
	case "open", "pending":
		return checkoutevents.CheckoutStatusPending
	case "canceled":
		return checkoutevents.CheckoutStatusCancelled
	case "failed":
		return checkoutevents.CheckoutStatusFailed
	case "expired":
		return checkoutevents.CheckoutStatusExpired

	default:
		return checkoutevents.CheckoutStatusOther
	}
}
