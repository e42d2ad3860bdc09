package myqueue

import (
	"context"
	"time"
)

type Task struct {
	// UID de-duplicates: a second task with the same UID is silently dropped
	UID            string
	WebhookURLPath string
	Payload        []byte
	// ScheduleAt delays delivery; zero means as soon as possible
	ScheduleAt time.Time
}

var New func(c context.Context) (TaskQueuer, func(), error)

//go:generate mockgen -source=api.go -package myqueue -destination queuer_mock.go TaskQueuer
type TaskQueuer interface {
	Enqueue(c context.Context, task Task) error
}
