package checkoutattempt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// CheckoutAttempt is the latest snapshot of an in-progress checkout, one per guest session
type CheckoutAttempt struct {
	GuestSessionID string     `json:"guest_session_id"`
	Email          string     `json:"email,omitempty"`
	Contact        Contact    `json:"contact"`
	Address        Address    `json:"address"`
	Cart           []CartItem `json:"cart"`
	Status         Status     `json:"status"`
	Metadata       Metadata   `json:"metadata"`
	// Payload is the request body as received
	Payload string `json:"payload,omitempty" datastore:",noindex"`

	ReminderPending    bool      `json:"reminder_pending"`
	ReminderDueAt      time.Time `json:"reminder_due_at"`
	ReminderCapturedAt time.Time `json:"reminder_captured_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Address struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Line1     string `json:"line1,omitempty"`
	Line2     string `json:"line2,omitempty"`
	City      string `json:"city,omitempty"`
	County    string `json:"county,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type CartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url,omitempty"`
}

func (a CheckoutAttempt) emailCapturable() bool {
	return emailRegex.MatchString(a.Email)
}

// qualifiesForReminder: a capturable email and something in the cart
func (a CheckoutAttempt) qualifiesForReminder() bool {
	return a.emailCapturable() && len(a.Cart) > 0
}

func (a CheckoutAttempt) cartProductIDs() []string {
	ids := []string{}
	for _, item := range a.Cart {
		if item.ID != "" {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// Metadata holds the auxiliary flags of an attempt. Keys it does not know are kept in Extra
// and written back unchanged.
type Metadata struct {
	FieldsCompleted          []string
	CartItems                int
	EmailValid               bool
	EmailCapturedAt          time.Time
	AbandonedCartEmailSent   bool
	AbandonedCartEmailSentAt time.Time
	Extra                    string `datastore:",noindex"`
}

const (
	keyFieldsCompleted          = "fields_completed"
	keyCartItems                = "cart_items"
	keyEmailValid               = "email_valid"
	keyEmailCapturedAt          = "email_captured_at"
	keyAbandonedCartEmailSent   = "abandoned_cart_email_sent"
	keyAbandonedCartEmailSentAt = "abandoned_cart_email_sent_at"
)

func (m Metadata) MarshalJSON() ([]byte, error) {
	fields := map[string]any{}
	if m.Extra != "" {
		extra := map[string]json.RawMessage{}
		err := json.Unmarshal([]byte(m.Extra), &extra)
		if err != nil {
			return nil, fmt.Errorf("error parsing extra metadata: %s", err)
		}
		for k, v := range extra {
			fields[k] = v
		}
	}

	if len(m.FieldsCompleted) > 0 {
		completed := map[string]bool{}
		for _, f := range m.FieldsCompleted {
			completed[f] = true
		}
		fields[keyFieldsCompleted] = completed
	}
	if m.CartItems > 0 {
		fields[keyCartItems] = m.CartItems
	}
	if m.EmailValid {
		fields[keyEmailValid] = true
	}
	if !m.EmailCapturedAt.IsZero() {
		fields[keyEmailCapturedAt] = m.EmailCapturedAt
	}
	if m.AbandonedCartEmailSent {
		fields[keyAbandonedCartEmailSent] = true
	}
	if !m.AbandonedCartEmailSentAt.IsZero() {
		fields[keyAbandonedCartEmailSentAt] = m.AbandonedCartEmailSentAt
	}

	return json.Marshal(fields)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*m = Metadata{}
		return nil
	}

	fields := map[string]json.RawMessage{}
	err := json.Unmarshal(data, &fields)
	if err != nil {
		return fmt.Errorf("metadata must be an object: %s", err)
	}

	result := Metadata{}
	for key, raw := range fields {
		switch key {
		case keyFieldsCompleted:
			completed := map[string]bool{}
			err = json.Unmarshal(raw, &completed)
			for field, done := range completed {
				if done {
					result.FieldsCompleted = append(result.FieldsCompleted, field)
				}
			}
			sort.Strings(result.FieldsCompleted)
		case keyCartItems:
			err = json.Unmarshal(raw, &result.CartItems)
		case keyEmailValid:
			err = json.Unmarshal(raw, &result.EmailValid)
		case keyEmailCapturedAt:
			err = json.Unmarshal(raw, &result.EmailCapturedAt)
		case keyAbandonedCartEmailSent:
			err = json.Unmarshal(raw, &result.AbandonedCartEmailSent)
		case keyAbandonedCartEmailSentAt:
			err = json.Unmarshal(raw, &result.AbandonedCartEmailSentAt)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("invalid metadata field %s: %s", key, err)
		}
		delete(fields, key)
	}

	if len(fields) > 0 {
		extra, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("error serializing extra metadata: %s", err)
		}
		result.Extra = string(extra)
	}

	*m = result
	return nil
}

// ReminderTask is the payload of the deferred abandoned-cart check
type ReminderTask struct {
	GuestSessionID string    `json:"guest_session_id"`
	Email          string    `json:"email"`
	CapturedAt     time.Time `json:"captured_at"`
}
