package myconfig

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	CloudProject string
	Storefront   StorefrontConfig
	Mailer       MailerConfig
	Reminder     ReminderConfig
	Stripe       StripeConfig
	Mollie       MollieConfig
	Adyen        AdyenConfig
	RedisURL     string
}

type StorefrontConfig struct {
	URL string
}

type MailerConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Cc        []string
}

type ReminderConfig struct {
	// Delay between the contact details being captured and the reminder check
	Delay time.Duration
	// ActivityWindow: an attempt updated within this window after capture counts as still active
	ActivityWindow time.Duration
}

type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

type MollieConfig struct {
	APIKey string
}

type AdyenConfig struct {
	Environment     string
	APIKey          string
	ClientKey       string
	MerchantAccount string
	WebhookUsername string
	WebhookPassword string
}

// Load reads an optional .env file and the process environment
func Load() Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %s", err)
	}

	return Config{
		Port:         getEnv("PORT", "8080"),
		CloudProject: getEnv("GOOGLE_CLOUD_PROJECT", ""),
		Storefront: StorefrontConfig{
			URL: strings.TrimSuffix(getEnv("STOREFRONT_URL", "https://rarecollectables.co.uk"), "/"),
		},
		Mailer: MailerConfig{
			APIKey:    getEnv("MAILERSEND_API_KEY", ""),
			FromEmail: getEnv("MAILER_FROM_EMAIL", "carecentre@rarecollectables.co.uk"),
			FromName:  getEnv("MAILER_FROM_NAME", "Rare Collectables"),
			Cc:        getList("MAILER_CC", []string{"rarecollectablessales@gmail.com"}),
		},
		Reminder: ReminderConfig{
			Delay:          getDuration("ABANDONED_CART_DELAY", 5*time.Minute),
			ActivityWindow: getDuration("ABANDONED_CART_ACTIVITY_WINDOW", 4*time.Minute+30*time.Second),
		},
		Stripe: StripeConfig{
			APIKey:        getEnv("STRIPE_API_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Mollie: MollieConfig{
			APIKey: getEnv("MOLLIE_API_KEY", ""),
		},
		Adyen: AdyenConfig{
			Environment:     getEnv("ADYEN_ENVIRONMENT", "TEST"),
			APIKey:          getEnv("ADYEN_API_KEY", ""),
			ClientKey:       getEnv("ADYEN_CLIENT_KEY", ""),
			MerchantAccount: getEnv("ADYEN_MERCHANT_ACCOUNT", ""),
			WebhookUsername: getEnv("ADYEN_WEBHOOK_USERNAME", ""),
			WebhookPassword: getEnv("ADYEN_WEBHOOK_PASSWORD", ""),
		},
		RedisURL: getEnv("REDIS_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration %q for %s, using %s", value, key, fallback)
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	list := []string{}
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
