package mypublisher

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MarcGrol/checkoutbackend/lib/myevents"
)

// wrap derives the envelope uid from the content of the event, so that a redelivered
// webhook or a retried request ends up in the same outbox entry.
func wrap(topic string, event myevents.Event, createdAt time.Time) (myevents.EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return myevents.EventEnvelope{}, fmt.Errorf("error marshalling event %s: %s", event.GetEventTypeName(), err)
	}

	return myevents.EventEnvelope{
		UID:           contentUID(topic, event.GetEventTypeName(), payload),
		CreatedAt:     createdAt,
		Topic:         topic,
		AggregateUID:  event.GetAggregateName(),
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(payload),
	}, nil
}

func contentUID(topic string, eventTypeName string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(topic))
	h.Write([]byte{0})
	h.Write([]byte(eventTypeName))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
