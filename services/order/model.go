package order

import (
	"strings"
	"time"

	"github.com/MarcGrol/checkoutbackend/services/checkoutevents"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

type Order struct {
	UID             string     `json:"id"`
	GuestSessionID  string     `json:"guest_session_id"`
	Email           string     `json:"email"`
	Status          Status     `json:"status"`
	StatusDetails   string     `json:"status_details,omitempty"`
	Provider        string     `json:"provider"`
	PaymentMethod   string     `json:"payment_method"`
	AmountInPence   int64      `json:"amount_in_pence"`
	DiscountInPence int64      `json:"discount_in_pence"`
	ShippingInPence int64      `json:"shipping_in_pence"`
	Currency        string     `json:"currency"`
	CouponCode      string     `json:"coupon,omitempty"`
	ShippingOption  string     `json:"shipping_option"`
	Lines           []Line     `json:"lines"`
	CreatedAt       time.Time  `json:"created_at"`
	LastModified    time.Time  `json:"last_modified"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type Line struct {
	ProductUID   string `json:"product_id"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	PriceInPence int64  `json:"price_in_pence"`
}

func (o Order) IsFinal() bool {
	return o.Status == StatusCompleted
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func statusOf(checkoutStatus checkoutevents.CheckoutStatus) Status {
	switch checkoutStatus {
	case checkoutevents.CheckoutStatusSuccess:
		return StatusCompleted
	case checkoutevents.CheckoutStatusFailed, checkoutevents.CheckoutStatusError, checkoutevents.CheckoutStatusFraud:
		return StatusFailed
	case checkoutevents.CheckoutStatusCancelled, checkoutevents.CheckoutStatusExpired:
		return StatusCancelled
	default:
		return StatusPending
	}
}

func newOrder(event checkoutevents.CheckoutStarted, now time.Time) Order {
	lines := []Line{}
	for _, l := range event.Lines {
		lines = append(lines, Line{
			ProductUID:   l.ProductUID,
			Name:         l.Name,
			Quantity:     l.Quantity,
			PriceInPence: l.PriceInPence,
		})
	}

	return Order{
		UID:             event.CheckoutUID,
		GuestSessionID:  event.GuestSessionID,
		Email:           normalizeEmail(event.Email),
		Status:          StatusPending,
		Provider:        event.ProviderName,
		PaymentMethod:   event.PaymentMethod,
		AmountInPence:   event.AmountInPence,
		DiscountInPence: event.DiscountInPence,
		ShippingInPence: event.ShippingInPence,
		Currency:        event.Currency,
		CouponCode:      event.CouponCode,
		ShippingOption:  event.ShippingOption,
		Lines:           lines,
		CreatedAt:       now,
		LastModified:    now,
	}
}
