package mypublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutbackend/lib/mycontext"
	"github.com/MarcGrol/checkoutbackend/lib/myevents"
	"github.com/MarcGrol/checkoutbackend/lib/myhttp"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/mypubsub"
	"github.com/MarcGrol/checkoutbackend/lib/myqueue"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
)

// transactionalPublisher implements the outbox pattern: the event is stored as part of the
// callers transaction and a task triggers the actual publication afterwards.
type transactionalPublisher struct {
	outbox mystore.Store[myevents.EventEnvelope]
	queue  myqueue.TaskQueuer
	nower  mytime.Nower
	pubsub mypubsub.PubSub
	logger mylog.Logger
}

func New(c context.Context, pubsub mypubsub.PubSub, queue myqueue.TaskQueuer, nower mytime.Nower) (*transactionalPublisher, func(), error) {
	store, storeCleanup, err := mystore.New[myevents.EventEnvelope](c)
	if err != nil {
		return nil, nil, err
	}

	return NewWithStore(store, pubsub, queue, nower), storeCleanup, nil
}

func NewWithStore(outbox mystore.Store[myevents.EventEnvelope], pubsub mypubsub.PubSub, queue myqueue.TaskQueuer, nower mytime.Nower) *transactionalPublisher {
	return &transactionalPublisher{
		outbox: outbox,
		queue:  queue,
		nower:  nower,
		pubsub: pubsub,
		logger: mylog.New("publisher"),
	}
}

func (p *transactionalPublisher) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/pubsub/{topic}/{uid}", p.processTriggerPage()).Methods("PUT")
}

func (p *transactionalPublisher) CreateTopic(c context.Context, topicName string) error {
	return p.pubsub.CreateTopic(c, topicName)
}

func (p *transactionalPublisher) Publish(c context.Context, topic string, event myevents.Event) error {
	envelope, err := wrap(topic, event, p.nower.Now())
	if err != nil {
		return fmt.Errorf("error creating envelope: %s", err)
	}
	err = p.outbox.Put(c, envelope.UID, envelope)
	if err != nil {
		return fmt.Errorf("error storing envelope: %s", err)
	}

	err = p.queue.Enqueue(c, myqueue.Task{
		UID:            envelope.UID,
		WebhookURLPath: fmt.Sprintf("/api/pubsub/%s/%s", envelope.Topic, envelope.UID),
		Payload:        []byte{},
	})
	if err != nil {
		return fmt.Errorf("error queueing publication-trigger %s: %s", envelope.UID, err)
	}

	p.logger.Log(c, envelope.AggregateUID, mylog.SeverityInfo, "Enqueued event %s", envelope.String())

	return nil
}

func (p *transactionalPublisher) processTriggerPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(p.logger)

		eventUID := mux.Vars(r)["uid"]

		err := p.processTrigger(c, eventUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed trigger",
		})
	}
}

func (p *transactionalPublisher) processTrigger(c context.Context, uid string) error {
	return p.outbox.RunInTransaction(c, func(c context.Context) error {
		envelope, found, err := p.outbox.Get(c, uid)
		if err != nil {
			return fmt.Errorf("error fetching envelope %s: %s", uid, err)
		}
		if !found {
			// the transaction that stored the event was rolled back: nothing to publish
			p.logger.Log(c, uid, mylog.SeverityWarn, "Envelope %s not found", uid)
			return nil
		}
		if envelope.Published {
			return nil
		}

		jsonBytes, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("error serializing event: %s", err)
		}

		err = p.pubsub.Publish(c, envelope.Topic, string(jsonBytes))
		if err != nil {
			return fmt.Errorf("error publishing event: %s", err)
		}

		envelope.Published = true
		err = p.outbox.Put(c, envelope.UID, envelope)
		if err != nil {
			return fmt.Errorf("error storing envelope: %s", err)
		}

		p.logger.Log(c, envelope.AggregateUID, mylog.SeverityInfo, "Published event %s", envelope.String())

		return nil
	})
}
