package myqueue

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

// localTaskQueue mimics Cloud Tasks when running outside GCP: tasks are delivered
// to this same process over http once their schedule time has passed.
type localTaskQueue struct {
	sync.Mutex
	baseURL string
	client  *http.Client
	seen    map[string]bool
	timers  []*time.Timer
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newLocalQueue
	}
}

func newLocalQueue(c context.Context) (TaskQueuer, func(), error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	q := NewLocalQueue(fmt.Sprintf("http://localhost:%s", port))
	return q, q.stop, nil
}

func NewLocalQueue(baseURL string) *localTaskQueue {
	return &localTaskQueue{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		seen:    map[string]bool{},
	}
}

func (q *localTaskQueue) Enqueue(c context.Context, task Task) error {
	q.Lock()
	defer q.Unlock()

	if q.seen[task.UID] {
		log.Printf("task with id %s already exists -> ignore\n", task.UID)
		return nil
	}
	q.seen[task.UID] = true

	delay := time.Until(task.ScheduleAt)
	if delay < 0 {
		delay = 0
	}
	q.timers = append(q.timers, time.AfterFunc(delay, func() {
		q.deliver(task)
	}))

	return nil
}

func (q *localTaskQueue) deliver(task Task) {
	req, err := http.NewRequest(http.MethodPut, q.baseURL+task.WebhookURLPath, bytes.NewReader(task.Payload))
	if err != nil {
		log.Printf("error creating request for task %s: %s", task.UID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		log.Printf("error delivering task %s: %s", task.UID, err)
		return
	}
	defer resp.Body.Close()

	log.Printf("delivered task %s to %s: %d", task.UID, task.WebhookURLPath, resp.StatusCode)
}

func (q *localTaskQueue) stop() {
	q.Lock()
	defer q.Unlock()

	for _, t := range q.timers {
		t.Stop()
	}
}
