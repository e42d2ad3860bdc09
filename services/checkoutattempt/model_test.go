package checkoutattempt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/checkoutbackend/lib/mytime"
)

func TestMetadata(t *testing.T) {

	t.Run("Unknown keys are preserved", func(t *testing.T) {
		m := Metadata{}
		err := json.Unmarshal([]byte(`{"fields_completed":{"email":true,"name":false,"address":true},"utm_source":"newsletter","step":3}`), &m)
		assert.NoError(t, err)

		assert.Equal(t, []string{"address", "email"}, m.FieldsCompleted)
		assert.JSONEq(t, `{"utm_source":"newsletter","step":3}`, m.Extra)

		m.EmailValid = true
		m.EmailCapturedAt = mytime.ExampleTime
		out, err := json.Marshal(m)
		assert.NoError(t, err)
		assert.JSONEq(t, `{
			"fields_completed":{"address":true,"email":true},
			"utm_source":"newsletter",
			"step":3,
			"email_valid":true,
			"email_captured_at":"2023-02-27T23:58:59Z"
		}`, string(out))
	})

	t.Run("Known keys win over extra", func(t *testing.T) {
		m := Metadata{
			AbandonedCartEmailSent: true,
			Extra:                  `{"abandoned_cart_email_sent":false}`,
		}
		out, err := json.Marshal(m)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"abandoned_cart_email_sent":true}`, string(out))
	})

	t.Run("Invalid known key", func(t *testing.T) {
		m := Metadata{}
		err := json.Unmarshal([]byte(`{"email_captured_at":"yesterday"}`), &m)
		assert.Error(t, err)
	})

	t.Run("Not an object", func(t *testing.T) {
		m := Metadata{}
		err := json.Unmarshal([]byte(`["a"]`), &m)
		assert.Error(t, err)
	})

	t.Run("Null metadata", func(t *testing.T) {
		a := CheckoutAttempt{}
		err := json.Unmarshal([]byte(`{"guest_session_id":"s","metadata":null}`), &a)
		assert.NoError(t, err)
		assert.Equal(t, Metadata{}, a.Metadata)
	})
}

func TestQualifiesForReminder(t *testing.T) {
	cart := []CartItem{{ID: "p1", Quantity: 1}}

	assert.True(t, CheckoutAttempt{Email: "user@example.com", Cart: cart}.qualifiesForReminder())
	assert.False(t, CheckoutAttempt{Email: "user@example", Cart: cart}.qualifiesForReminder())
	assert.False(t, CheckoutAttempt{Email: "", Cart: cart}.qualifiesForReminder())
	assert.False(t, CheckoutAttempt{Email: "user@example.com", Cart: []CartItem{}}.qualifiesForReminder())
}

func TestMergeWithExisting(t *testing.T) {
	capturedAt := mytime.ExampleTime.Add(-time.Minute)
	existing := CheckoutAttempt{
		GuestSessionID:     "s",
		Status:             StatusCompleted,
		Metadata:           Metadata{EmailValid: true, EmailCapturedAt: capturedAt},
		ReminderPending:    true,
		ReminderCapturedAt: capturedAt,
		CreatedAt:          capturedAt,
	}

	merged := mergeWithExisting(CheckoutAttempt{GuestSessionID: "s", Status: StatusInProgress}, existing)

	assert.Equal(t, StatusCompleted, merged.Status)
	assert.Equal(t, capturedAt, merged.CreatedAt)
	assert.Equal(t, capturedAt, merged.Metadata.EmailCapturedAt)
	assert.True(t, merged.ReminderPending)
}
