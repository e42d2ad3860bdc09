package checkoutadyen

import (
	"context"
	"crypto/subtle"
	"fmt"
	"math"
	"net/url"

	"github.com/adyen/adyen-go-api-library/v6/src/checkout"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/mypublisher"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
	"github.com/MarcGrol/checkoutbackend/lib/myuuid"
	checkoutpricing "github.com/MarcGrol/checkoutbackend/services/checkout"
	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
	"github.com/MarcGrol/checkoutbackend/services/checkoutevents"
)

const (
	providerName          = "adyen"
	paymentMethodClearpay = "clearpay"
)

type service struct {
	cfg           Config
	payer         Payer
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	logger        mylog.Logger
	publisher     mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(cfg Config, payer Payer, checkoutStore mystore.Store[checkoutapi.CheckoutContext], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, publisher mypublisher.Publisher) *service {
	return &service{
		cfg:           cfg,
		payer:         payer,
		checkoutStore: checkoutStore,
		nower:         nower,
		uuider:        uuider,
		logger:        logger,
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

// startCheckout starts a checkout session on the Adyen platform
func (s *service) startCheckout(c context.Context, baseURL string, co checkoutapi.Checkout) (SessionResponse, error) {
	quote, err := checkoutpricing.Prepare(co)
	if err != nil {
		return SessionResponse{}, err
	}

	checkoutUID := s.uuider.Create()

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Start checkout %s for session %s", checkoutUID, co.GuestSessionID)

	req := newSessionRequest(baseURL, s.cfg.MerchantAccount, checkoutUID, co, quote)
	err = validateRequest(req)
	if err != nil {
		return SessionResponse{}, err
	}

	// Initiate a checkout session on the Adyen platform
	sessionResp, err := s.payer.Sessions(c, req)
	if err != nil {
		return SessionResponse{}, myerrors.NewInternalError(fmt.Errorf("error creating payment session for checkout %s: %s", checkoutUID, err))
	}

	now := s.nower.Now()

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		// Store checkout context because we need it later again
		err = s.checkoutStore.Put(c, checkoutUID, checkoutapi.CheckoutContext{
			CheckoutUID:       checkoutUID,
			GuestSessionID:    co.GuestSessionID,
			Email:             co.Contact.Email,
			CreatedAt:         now,
			LastModified:      now,
			OriginalReturnURL: co.ReturnURL,
			ID:                sessionResp.Id,
			SessionData:       sessionResp.SessionData,
			AmountInPence:     quote.TotalInPence,
			Currency:          quote.Currency,
			PaymentProvider:   providerName,
			PaymentMethod:     paymentMethodClearpay,
			CheckoutStatus:    checkoutevents.CheckoutStatusUndefined,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing checkout: %s", err))
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutpricing.NewCheckoutStarted(checkoutUID, providerName, paymentMethodClearpay, co, quote))
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return SessionResponse{}, err
	}

	return SessionResponse{
		CheckoutUID:   checkoutUID,
		Environment:   s.cfg.Environment,
		ClientKey:     s.cfg.ClientKey,
		ID:            sessionResp.Id,
		SessionData:   sessionResp.SessionData,
		AmountInPence: quote.TotalInPence,
		Currency:      quote.Currency,
	}, nil
}

func newSessionRequest(baseURL string, merchantAccount string, checkoutUID string, co checkoutapi.Checkout, quote checkoutpricing.Quote) checkout.CreateCheckoutSessionRequest {
	address := &checkout.Address{
		City:              co.Address.City,
		Country:           "GB",
		HouseNumberOrName: co.Address.Line2,
		PostalCode:        co.Address.Postcode,
		StateOrProvince:   co.Address.County,
		Street:            co.Address.Line1,
	}

	lineItems := []checkout.LineItem{}
	for _, line := range co.Cart {
		lineItems = append(lineItems, checkout.LineItem{
			Id:                 line.ID,
			Description:        line.Name,
			AmountIncludingTax: int64(math.Round(line.Price * 100)),
			Quantity:           int64(line.Quantity),
		})
	}

	return checkout.CreateCheckoutSessionRequest{
		AllowedPaymentMethods: []string{paymentMethodClearpay},
		Amount: checkout.Amount{
			Currency: quote.Currency,
			Value:    quote.TotalInPence,
		},
		BillingAddress:         address,
		DeliveryAddress:        address,
		Channel:                "Web",
		CountryCode:            "GB",
		LineItems:              &lineItems,
		MerchantAccount:        merchantAccount,
		MerchantOrderReference: checkoutUID,
		Reference:              checkoutUID,
		ReturnUrl:              fmt.Sprintf("%s/api/adyen/checkout/%s/status/redirected", baseURL, checkoutUID),
		ShopperEmail:           co.Contact.Email,
		ShopperLocale:          "en-GB",
		ShopperName: &checkout.Name{
			FirstName: co.Address.FirstName,
			LastName:  co.Address.LastName,
		},
		ShopperReference: co.GuestSessionID,
		TelephoneNumber:  co.Contact.Phone,
	}
}

func validateRequest(req checkout.CreateCheckoutSessionRequest) error {
	if req.Amount.Currency == "" || req.Amount.Value == 0 ||
		req.CountryCode == "" ||
		req.ShopperLocale == "" || req.ReturnUrl == "" || req.MerchantOrderReference == "" ||
		req.Reference == "" || req.MerchantAccount == "" || req.Channel == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("missing mandatory field"))
	}

	return nil
}

func (s *service) finalizeCheckout(c context.Context, checkoutUID string, status string) (string, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Redirect (start): Checkout completed for checkout %s -> %s", checkoutUID, status)

	now := s.nower.Now()

	var checkoutContext checkoutapi.CheckoutContext
	var found bool
	var err error
	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err = s.checkoutStore.Get(c, checkoutUID)
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

		return nil
	})
	if err != nil {
		return "", err
	}

	adjustedReturnURL, err := addStatusQueryParam(checkoutContext.OriginalReturnURL, checkoutUID, status)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error adjusting url: %s", err))
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

func (s *service) authenticateWebhook(username, password string) error {
	if s.cfg.WebhookUsername == "" && s.cfg.WebhookPassword == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.WebhookUsername)) != 1 ||
		subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.WebhookPassword)) != 1 {
		return myerrors.NewNotAuthorizedError(fmt.Errorf("invalid webhook credentials"))
	}
	return nil
}

func (s *service) webhookNotification(c context.Context, event WebhookNotification) error {
	if len(event.NotificationItems) > 0 {
		s.logger.Log(c, event.NotificationItems[0].NotificationRequestItem.MerchantReference, mylog.SeverityInfo, "Webhook: status update on checkout received: %+v", event)
	}

	for _, item := range event.NotificationItems {
		err := s.processNotificationItem(c, item)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *service) processNotificationItem(c context.Context, item NotificationItem) error {
	checkoutUID := item.NotificationRequestItem.MerchantReference

	eventStatus := classifyEventStatus(item.NotificationRequestItem.EventCode, item.NotificationRequestItem.Success == "true")
	if eventStatus == checkoutevents.CheckoutStatusUndefined {
		s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Webhook: ignore event %s on checkout %s", item.NotificationRequestItem.EventCode, checkoutUID)
		return nil
	}
	eventStatusDetails := fmt.Sprintf("%s=%s", item.NotificationRequestItem.EventCode, item.NotificationRequestItem.Success)

	now := s.nower.Now()

	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		if checkoutContext.CheckoutStatusDetails == eventStatusDetails {
			return nil
		}

		if item.NotificationRequestItem.PaymentMethod != "" {
			checkoutContext.PaymentMethod = item.NotificationRequestItem.PaymentMethod
		}
		checkoutContext.LastModified = now
		checkoutContext.CheckoutStatus = eventStatus
		checkoutContext.CheckoutStatusDetails = eventStatusDetails

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			ProviderName:          providerName,
			CheckoutUID:           checkoutUID,
			PaymentMethod:         checkoutContext.PaymentMethod,
			CheckoutStatus:        eventStatus,
			CheckoutStatusDetails: eventStatusDetails,
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

func classifyEventStatus(eventName string, success bool) checkoutevents.CheckoutStatus {
	// https://docs.adyen.com/development-resources/webhooks/webhook-types#standard-webhook
	switch eventName {
	case "AUTHORISATION", "AUTHORISATION_ADJUSTMENT":
		if success {
			return checkoutevents.CheckoutStatusSuccess
		}
		return checkoutevents.CheckoutStatusFailed
	case "PENDING":
		return checkoutevents.CheckoutStatusPending
	case "OFFER_CLOSED":
		return checkoutevents.CheckoutStatusExpired
	case "CANCELLATION":
		return checkoutevents.CheckoutStatusCancelled
	case "NOTIFICATION_OF_FRAUD":
		return checkoutevents.CheckoutStatusFraud
	default:
		// "CANCEL_OR_REFUND", "CAPTURE", "REFUND", "REPORT_AVAILABLE", ...
		return checkoutevents.CheckoutStatusUndefined
	}
}
