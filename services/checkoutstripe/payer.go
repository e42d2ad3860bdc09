package checkoutstripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
)

//go:generate mockgen -source=payer.go -package checkoutstripe -destination payer_mock.go Payer
type Payer interface {
	CreatePaymentIntent(c context.Context, params stripe.PaymentIntentParams) (stripe.PaymentIntent, error)
}

type stripePayer struct{}

func NewPayer(apiKey string) Payer {
	stripe.Key = apiKey
	return &stripePayer{}
}

func (p *stripePayer) CreatePaymentIntent(c context.Context, params stripe.PaymentIntentParams) (stripe.PaymentIntent, error) {
	params.Context = c
	intent, err := paymentintent.New(&params)
	if err != nil {
		stripeErr, ok := err.(*stripe.Error)
		if ok && stripeErr.Type == stripe.ErrorTypeCard {
			// card errors are reported back to the shopper
			return stripe.PaymentIntent{}, myerrors.NewInvalidInputError(fmt.Errorf("card declined: %s", stripeErr.Msg))
		}
		return stripe.PaymentIntent{}, myerrors.NewInternalError(fmt.Errorf("error creating stripe payment-intent: %s", err))
	}

	return *intent, nil
}
