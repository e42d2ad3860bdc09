package checkoutstripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

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
	providerName        = "stripe"
	paymentMethodCard   = "card"
	checkoutUIDMetadata = "checkoutUID"
)

type service struct {
	webhookSecret string
	payer         Payer
	logger        mylog.Logger
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	publisher     mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(webhookSecret string, payer Payer, logger mylog.Logger, nower mytime.Nower, uuider myuuid.UUIDer, checkoutStore mystore.Store[checkoutapi.CheckoutContext], publisher mypublisher.Publisher) *service {
	return &service{
		webhookSecret: webhookSecret,
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

// startCheckout creates and confirms a payment-intent for the card the shopper entered in the card widget
func (s *service) startCheckout(c context.Context, co checkoutapi.Checkout) (PaymentResponse, error) {
	quote, err := checkout.Prepare(co)
	if err != nil {
		return PaymentResponse{}, err
	}
	if co.PaymentMethodID == "" {
		return PaymentResponse{}, myerrors.NewInvalidInputError(fmt.Errorf("missing payment_method_id"))
	}

	checkoutUID := s.uuider.Create()

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Start checkout %s for session %s", checkoutUID, co.GuestSessionID)

	intent, err := s.payer.CreatePaymentIntent(c, newPaymentIntentParams(checkoutUID, co, quote))
	if err != nil {
		return PaymentResponse{}, err
	}

	now := s.nower.Now()

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		// Store checkout context because the webhook needs it later
		err = s.checkoutStore.Put(c, checkoutUID, checkoutapi.CheckoutContext{
			CheckoutUID:       checkoutUID,
			GuestSessionID:    co.GuestSessionID,
			Email:             co.Contact.Email,
			CreatedAt:         now,
			LastModified:      now,
			OriginalReturnURL: co.ReturnURL,
			ID:                intent.ID,
			AmountInPence:     quote.TotalInPence,
			Currency:          quote.Currency,
			Status:            string(intent.Status),
			PaymentProvider:   providerName,
			PaymentMethod:     paymentMethodCard,
			CheckoutStatus:    checkoutevents.CheckoutStatusUndefined,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing checkout: %s", err))
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkout.NewCheckoutStarted(checkoutUID, providerName, paymentMethodCard, co, quote))
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Payment-intent %s for checkout %s has status %s", intent.ID, checkoutUID, intent.Status)

	return PaymentResponse{
		CheckoutUID:     checkoutUID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Status:          string(intent.Status),
		Success:         intent.Status == stripe.PaymentIntentStatusSucceeded,
		RequiresAction:  intent.Status == stripe.PaymentIntentStatusRequiresAction,
		AmountInPence:   quote.TotalInPence,
	}, nil
}

func newPaymentIntentParams(checkoutUID string, co checkoutapi.Checkout, quote checkout.Quote) stripe.PaymentIntentParams {
	customerName := co.Address.FirstName + " " + co.Address.LastName

	cartItems, _ := json.Marshal(co.Cart)

	coupon := "none"
	if quote.Coupon != nil {
		coupon = quote.Coupon.Code
	}

	params := stripe.PaymentIntentParams{
		Amount:        stripe.Int64(quote.TotalInPence),
		Currency:      stripe.String(string(stripe.CurrencyGBP)),
		PaymentMethod: stripe.String(co.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		ReceiptEmail:  stripe.String(co.Contact.Email),
		Description:   stripe.String("Order from " + customerName),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.AddMetadata(checkoutUIDMetadata, checkoutUID)
	params.AddMetadata("guestSessionID", co.GuestSessionID)
	params.AddMetadata("customer_name", customerName)
	params.AddMetadata("address_line1", co.Address.Line1)
	params.AddMetadata("address_city", co.Address.City)
	params.AddMetadata("address_postcode", co.Address.Postcode)
	params.AddMetadata("coupon", coupon)
	params.AddMetadata("cart_items", truncate(string(cartItems), 500))

	return params
}

// stripe limits metadata values to 500 characters
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// webhookNotification receives the definitive status of a payment-intent
func (s *service) webhookNotification(c context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error verifying webhook signature: %s", err))
	}

	eventStatus, relevant := classifyEventStatus(event.Type)
	if !relevant {
		s.logger.Log(c, event.ID, mylog.SeverityInfo, "Webhook: ignore event %s of type %s", event.ID, event.Type)
		return nil
	}

	intent := stripe.PaymentIntent{}
	err = json.Unmarshal(event.Data.Raw, &intent)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error parsing payment-intent of event %s: %s", event.ID, err))
	}

	checkoutUID := intent.Metadata[checkoutUIDMetadata]
	if checkoutUID == "" {
		s.logger.Log(c, event.ID, mylog.SeverityWarn, "Webhook: payment-intent %s is not ours", intent.ID)
		return nil
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Webhook: status update event %s received for checkout %s", event.Type, checkoutUID)

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

		if checkoutContext.CheckoutStatus == eventStatus && checkoutContext.CheckoutStatusDetails == string(event.Type) {
			return nil
		}

		checkoutContext.LastModified = now
		checkoutContext.Status = string(intent.Status)
		checkoutContext.CheckoutStatus = eventStatus
		checkoutContext.CheckoutStatusDetails = string(event.Type)

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			ProviderName:          providerName,
			CheckoutUID:           checkoutUID,
			PaymentMethod:         checkoutContext.PaymentMethod,
			CheckoutStatus:        eventStatus,
			CheckoutStatusDetails: string(event.Type),
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

func classifyEventStatus(eventType stripe.EventType) (checkoutevents.CheckoutStatus, bool) {
	switch eventType {
	case stripe.EventTypePaymentIntentSucceeded:
		return checkoutevents.CheckoutStatusSuccess, true
	case stripe.EventTypePaymentIntentPaymentFailed:
		return checkoutevents.CheckoutStatusFailed, true
	case stripe.EventTypePaymentIntentCanceled:
		return checkoutevents.CheckoutStatusCancelled, true
	case stripe.EventTypePaymentIntentProcessing, stripe.EventTypePaymentIntentRequiresAction:
		return checkoutevents.CheckoutStatusPending, true
	default:
		return checkoutevents.CheckoutStatusUndefined, false
	}
}
