package checkoutadyen

import (
	"time"
)

type Config struct {
	Environment     string
	MerchantAccount string
	ClientKey       string
	WebhookUsername string
	WebhookPassword string
}

// SessionResponse carries everything the Adyen drop-in on the storefront needs
type SessionResponse struct {
	CheckoutUID   string `json:"checkout_uid"`
	Environment   string `json:"environment"`
	ClientKey     string `json:"client_key"`
	ID            string `json:"id"`
	SessionData   string `json:"session_data"`
	AmountInPence int64  `json:"amount_in_pence"`
	Currency      string `json:"currency"`
}

type WebhookNotification struct {
	Live              string             `json:"live"`
	NotificationItems []NotificationItem `json:"notificationItems"`
}

type WebhookNotificationResponse struct {
	Status string `json:"status"`
}

type NotificationItem struct {
	NotificationRequestItem NotificationRequestItem `json:"NotificationRequestItem"`
}

type NotificationRequestItem struct {
	AdditionalData      AdditionalData `json:"additionalData"`
	Amount              Amount         `json:"amount"`
	EventCode           string         `json:"eventCode"`
	EventDate           time.Time      `json:"eventDate"`
	MerchantAccountCode string         `json:"merchantAccountCode"`
	MerchantReference   string         `json:"merchantReference"`
	Operations          []string       `json:"operations"`
	PaymentMethod       string         `json:"paymentMethod"`
	PspReference        string         `json:"pspReference"`
	Reason              string         `json:"reason"`
	Success             string         `json:"success"`
}

type AdditionalData struct {
	CheckoutSessionId string `json:"checkoutSessionId"`
}

type Amount struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}
