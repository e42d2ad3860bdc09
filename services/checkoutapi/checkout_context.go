package checkoutapi

import (
	"time"

	"github.com/MarcGrol/checkoutbackend/services/checkoutevents"
)

func NewCheckoutContext() CheckoutContext {
	return CheckoutContext{
		CheckoutStatus: checkoutevents.CheckoutStatusUndefined,
	}
}

// CheckoutContext is what a payment provider service remembers of a checkout between the
// submission and the final notification
type CheckoutContext struct {
	CheckoutUID           string
	GuestSessionID        string
	Email                 string
	CreatedAt             time.Time
	LastModified          time.Time
	OriginalReturnURL     string
	ID                    string
	SessionData           string `datastore:",noindex"`
	AmountInPence         int64
	Currency              string
	Status                string
	PaymentProvider       string
	PaymentMethod         string
	CheckoutStatus        checkoutevents.CheckoutStatus
	CheckoutStatusDetails string
}
