package checkoutmollie

import (
	"context"
	"fmt"

	"github.com/VictorAvelar/mollie-api-go/v3/mollie"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
)

//go:generate mockgen -source=payer.go -package checkoutmollie -destination payer_mock.go Payer
type Payer interface {
	CreatePayment(c context.Context, request mollie.Payment) (mollie.Payment, error)
	GetPaymentOnID(c context.Context, paymentID string) (mollie.Payment, error)
}

type molliePayer struct {
	client *mollie.Client
}

func NewPayer(apiKey string) (Payer, error) {
	client, err := mollie.NewClient(nil, mollie.NewAPIConfig(true))
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error creating mollie client: %s", err))
	}
	client.WithAuthenticationValue(apiKey)

	return &molliePayer{
		client: client,
	}, nil
}

func (p *molliePayer) CreatePayment(c context.Context, request mollie.Payment) (mollie.Payment, error) {
	_, payment, err := p.client.Payments.Create(c, request, nil)
	if err != nil {
		return mollie.Payment{}, myerrors.NewInvalidInputError(fmt.Errorf("error creating mollie payment: %s", err))
	}

	return *payment, nil
}

func (p *molliePayer) GetPaymentOnID(c context.Context, id string) (mollie.Payment, error) {
	_, payment, err := p.client.Payments.Get(c, id, &mollie.PaymentOptions{})
	if err != nil {
		return mollie.Payment{}, myerrors.NewInvalidInputError(fmt.Errorf("error getting mollie payment: %s", err))
	}

	return *payment, nil
}
