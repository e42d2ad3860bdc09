package mypubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/MarcGrol/checkoutbackend/lib/myevents"
)

// localPubSub pushes published messages to the subscribed urls of this process, like a push subscription does
type localPubSub struct {
	sync.Mutex
	client        *http.Client
	subscriptions map[string][]string
	counter       int
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newLocalPubSub
	}
}

func newLocalPubSub(c context.Context) (PubSub, func(), error) {
	return NewLocalPubSub(), func() {}, nil
}

func NewLocalPubSub() *localPubSub {
	return &localPubSub{
		client:        &http.Client{Timeout: 10 * time.Second},
		subscriptions: map[string][]string{},
	}
}

func (ps *localPubSub) Subscribe(c context.Context, topic string, urlToPostTo string) error {
	ps.Lock()
	defer ps.Unlock()

	for _, u := range ps.subscriptions[topic] {
		if u == urlToPostTo {
			return nil
		}
	}
	ps.subscriptions[topic] = append(ps.subscriptions[topic], urlToPostTo)

	return nil
}

func (ps *localPubSub) CreateTopic(c context.Context, topic string) error {
	return nil
}

func (ps *localPubSub) Publish(c context.Context, topic string, data string) error {
	ps.Lock()
	ps.counter++
	messageID := fmt.Sprintf("%d", ps.counter)
	urls := append([]string{}, ps.subscriptions[topic]...)
	ps.Unlock()

	body, err := json.Marshal(myevents.PushRequest{
		Message: myevents.PushMessage{
			Data: []byte(data),
			ID:   messageID,
		},
		Subscription: topic,
	})
	if err != nil {
		return fmt.Errorf("error marshalling push-request: %s", err)
	}

	for _, u := range urls {
		go ps.push(u, body)
	}

	return nil
}

func (ps *localPubSub) push(url string, body []byte) {
	resp, err := ps.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("error pushing message to %s: %s", url, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("push of message to %s failed: %d", url, resp.StatusCode)
	}
}
