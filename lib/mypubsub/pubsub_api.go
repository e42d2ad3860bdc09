package mypubsub

import "context"

//go:generate mockgen -source=pubsub_api.go -package mypubsub -destination pubsub_mock.go PubSub
type PubSub interface {
	// Publish sends a serialized myevents.EventEnvelope
	Publish(c context.Context, topic string, data string) error
	CreateTopic(c context.Context, topic string) error
	// Subscribe registers a push subscription: every message on topic is posted to urlToPostTo
	Subscribe(c context.Context, topic string, urlToPostTo string) error
}

// New selects Cloud Pub/Sub when GOOGLE_CLOUD_PROJECT is set and an in-process fake otherwise
var New func(c context.Context) (PubSub, func(), error)
