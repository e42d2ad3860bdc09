package myconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("ABANDONED_CART_DELAY", "")
		t.Setenv("MAILER_CC", "")
		t.Setenv("STOREFRONT_URL", "")

		cfg := Load()

		assert.Equal(t, 5*time.Minute, cfg.Reminder.Delay)
		assert.Equal(t, 270*time.Second, cfg.Reminder.ActivityWindow)
		assert.Equal(t, "https://rarecollectables.co.uk", cfg.Storefront.URL)
		assert.Empty(t, cfg.Mailer.Cc)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("ABANDONED_CART_DELAY", "1m")
		t.Setenv("ABANDONED_CART_ACTIVITY_WINDOW", "30s")
		t.Setenv("MAILER_CC", "a@example.com, b@example.com")
		t.Setenv("STOREFRONT_URL", "https://shop.example.com/")

		cfg := Load()

		assert.Equal(t, time.Minute, cfg.Reminder.Delay)
		assert.Equal(t, 30*time.Second, cfg.Reminder.ActivityWindow)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mailer.Cc)
		assert.Equal(t, "https://shop.example.com", cfg.Storefront.URL)
	})

	t.Run("Invalid duration falls back", func(t *testing.T) {
		t.Setenv("ABANDONED_CART_DELAY", "soon")

		cfg := Load()

		assert.Equal(t, 5*time.Minute, cfg.Reminder.Delay)
	})
}
