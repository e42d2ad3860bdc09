package checkoutmollie

type RedirectResponse struct {
	CheckoutUID string `json:"checkout_uid"`
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}
