package checkoutadyen

import (
	"context"
	"strings"

	"github.com/adyen/adyen-go-api-library/v6/src/adyen"
	"github.com/adyen/adyen-go-api-library/v6/src/checkout"
	"github.com/adyen/adyen-go-api-library/v6/src/common"
)

//go:generate mockgen -source=payer.go -package checkoutadyen -destination payer_mock.go Payer
type Payer interface {
	Sessions(c context.Context, req checkout.CreateCheckoutSessionRequest) (checkout.CreateCheckoutSessionResponse, error)
}

type adyenPayer struct {
	client *adyen.APIClient
}

func NewPayer(environment string, apiKey string) Payer {
	return &adyenPayer{
		client: adyen.NewClient(&common.Config{
			ApiKey:      apiKey,
			Environment: common.Environment(strings.ToUpper(environment)),
			Debug:       false,
		}),
	}
}

func (p *adyenPayer) Sessions(c context.Context, req checkout.CreateCheckoutSessionRequest) (checkout.CreateCheckoutSessionResponse, error) {
	resp, _, err := p.client.Checkout.Sessions(&req, c)
	if err != nil {
		return checkout.CreateCheckoutSessionResponse{}, err
	}
	return resp, nil
}
