package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutbackend/lib/myconfig"
	"github.com/MarcGrol/checkoutbackend/lib/myemail"
	"github.com/MarcGrol/checkoutbackend/lib/myhttpclient"
	"github.com/MarcGrol/checkoutbackend/lib/mylock"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/mypublisher"
	"github.com/MarcGrol/checkoutbackend/lib/mypubsub"
	"github.com/MarcGrol/checkoutbackend/lib/myqueue"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
	"github.com/MarcGrol/checkoutbackend/lib/myuuid"
	"github.com/MarcGrol/checkoutbackend/services/addresslookup"
	"github.com/MarcGrol/checkoutbackend/services/checkout"
	"github.com/MarcGrol/checkoutbackend/services/checkoutadyen"
	"github.com/MarcGrol/checkoutbackend/services/checkoutapi"
	"github.com/MarcGrol/checkoutbackend/services/checkoutattempt"
	"github.com/MarcGrol/checkoutbackend/services/checkoutmollie"
	"github.com/MarcGrol/checkoutbackend/services/checkoutstripe"
	"github.com/MarcGrol/checkoutbackend/services/order"
	"github.com/MarcGrol/checkoutbackend/services/product"
	"github.com/MarcGrol/checkoutbackend/services/warmup"
)

func main() {
	c := context.Background()

	cfg := myconfig.Load()

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating queue: %s", err)
	}
	defer queueCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	locker, lockerCleanup, err := createLocker(c, cfg, nower)
	if err != nil {
		log.Fatalf("Error creating locker: %s", err)
	}
	defer lockerCleanup()

	// Products
	productStore, productStoreCleanup, err := mystore.New[product.Product](c)
	if err != nil {
		log.Fatalf("Error creating product store: %s", err)
	}
	defer productStoreCleanup()
	productService := product.NewWebService(productStore)
	productService.RegisterEndpoints(c, router)

	// Pricing and validation
	checkout.NewWebService().RegisterEndpoints(c, router)

	// Checkout attempts and orders
	orderStore, orderStoreCleanup, err := mystore.New[order.Order](c)
	if err != nil {
		log.Fatalf("Error creating order store: %s", err)
	}
	defer orderStoreCleanup()

	attemptStore, attemptStoreCleanup, err := mystore.New[checkoutattempt.CheckoutAttempt](c)
	if err != nil {
		log.Fatalf("Error creating checkout-attempt store: %s", err)
	}
	defer attemptStoreCleanup()

	attemptService := checkoutattempt.NewWebService(attemptConfig(cfg), attemptStore, order.NewQuerier(orderStore), productService, createEmailer(cfg, uuider), locker, queue, publisher, nower)
	err = attemptService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering checkout-attempt service: %s", err)
	}

	orderService := order.NewWebService(orderStore, attemptService, pubsub, nower)
	err = orderService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering order service: %s", err)
	}

	// Payment providers
	checkoutStore, checkoutStoreCleanup, err := mystore.New[checkoutapi.CheckoutContext](c)
	if err != nil {
		log.Fatalf("Error creating checkout store: %s", err)
	}
	defer checkoutStoreCleanup()

	stripeService := checkoutstripe.NewWebService(cfg.Stripe.WebhookSecret, checkoutstripe.NewPayer(cfg.Stripe.APIKey), nower, uuider, checkoutStore, publisher)
	err = stripeService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering stripe service: %s", err)
	}

	molliePayer, err := checkoutmollie.NewPayer(cfg.Mollie.APIKey)
	if err != nil {
		log.Fatalf("Error creating mollie payer: %s", err)
	}
	mollieService := checkoutmollie.NewWebService(molliePayer, nower, uuider, checkoutStore, publisher)
	err = mollieService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering mollie service: %s", err)
	}

	adyenService := checkoutadyen.NewWebService(checkoutadyen.Config{
		Environment:     cfg.Adyen.Environment,
		MerchantAccount: cfg.Adyen.MerchantAccount,
		ClientKey:       cfg.Adyen.ClientKey,
		WebhookUsername: cfg.Adyen.WebhookUsername,
		WebhookPassword: cfg.Adyen.WebhookPassword,
	}, checkoutadyen.NewPayer(cfg.Adyen.Environment, cfg.Adyen.APIKey), checkoutStore, nower, uuider, publisher)
	err = adyenService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering adyen service: %s", err)
	}

	err = addresslookup.NewWebService(myhttpclient.NewJSONHTTPClient()).RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering address-lookup service: %s", err)
	}

	warmup.NewService(productService).RegisterEndpoints(c, router)

	startWebServerBlocking(cfg.Port, router)
}

func attemptConfig(cfg myconfig.Config) checkoutattempt.Config {
	cc := []myemail.Address{}
	for _, email := range cfg.Mailer.Cc {
		cc = append(cc, myemail.Address{Email: email})
	}
	return checkoutattempt.Config{
		StorefrontURL:  cfg.Storefront.URL,
		From:           myemail.Address{Name: cfg.Mailer.FromName, Email: cfg.Mailer.FromEmail},
		Cc:             cc,
		ReminderDelay:  cfg.Reminder.Delay,
		ActivityWindow: cfg.Reminder.ActivityWindow,
	}
}

func createEmailer(cfg myconfig.Config, uuider myuuid.UUIDer) myemail.Emailer {
	if cfg.Mailer.APIKey == "" {
		log.Printf("No MAILERSEND_API_KEY configured: emails are logged, not sent")
		return myemail.NewLogEmailer(mylog.New("email"), uuider)
	}
	return myemail.NewMailersendEmailer(cfg.Mailer.APIKey)
}

func createLocker(c context.Context, cfg myconfig.Config, nower mytime.Nower) (mylock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return mylock.NewInMemoryLocker(nower), func() {}, nil
	}
	return mylock.NewRedisLocker(c, cfg.RedisURL)
}

func startWebServerBlocking(port string, router *mux.Router) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
