package checkoutstripe

// PaymentResponse is returned to the storefront after the payment-intent has been confirmed
type PaymentResponse struct {
	CheckoutUID     string `json:"checkout_uid"`
	PaymentIntentID string `json:"payment_id"`
	ClientSecret    string `json:"client_secret"`
	Status          string `json:"status"`
	Success         bool   `json:"success"`
	RequiresAction  bool   `json:"requires_action"`
	AmountInPence   int64  `json:"amount_in_pence"`
}
