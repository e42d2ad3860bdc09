package myevents

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

type EventEnvelope struct {
	UID           string
	CreatedAt     time.Time
	Topic         string
	AggregateUID  string
	EventTypeName string
	EventPayload  string `datastore:",noindex"`
	Published     bool
}

func (e EventEnvelope) String() string {
	return e.Topic + "." + e.EventTypeName + "." + e.AggregateUID
}

type Event interface {
	GetEventTypeName() string
	GetAggregateName() string
}

// PushRequest is the body Pub/Sub posts to a push subscription
type PushRequest struct {
	Message      PushMessage `json:"message"`
	Subscription string      `json:"subscription"`
}

type PushMessage struct {
	Attributes map[string]string `json:"attributes,omitempty"`
	Data       []byte            `json:"data"`
	ID         string            `json:"message_id"`
}

func ParseEventEnvelope(r io.Reader) (EventEnvelope, error) {
	msg := PushRequest{}
	err := json.NewDecoder(r).Decode(&msg)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("error parsing push-request: %s", err)
	}
	envlp := EventEnvelope{}
	err = json.Unmarshal(msg.Message.Data, &envlp)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("error parsing envelope: %s", err)
	}

	return envlp, nil
}

// CreatePushRequest wraps an event the way Pub/Sub delivers it to a push subscription
func CreatePushRequest(topic string, subscription string, uid string, createdAt time.Time, event Event) (string, error) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("error marshalling event: %s", err)
	}
	envelopeBytes, err := json.Marshal(EventEnvelope{
		UID:           uid,
		CreatedAt:     createdAt,
		Topic:         topic,
		AggregateUID:  event.GetAggregateName(),
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(eventBytes),
	})
	if err != nil {
		return "", fmt.Errorf("error marshalling envelope: %s", err)
	}

	reqBytes, err := json.Marshal(PushRequest{
		Message: PushMessage{
			Data: envelopeBytes,
			ID:   uid,
		},
		Subscription: subscription,
	})
	if err != nil {
		return "", fmt.Errorf("error marshalling push-request: %s", err)
	}

	return string(reqBytes), nil
}
