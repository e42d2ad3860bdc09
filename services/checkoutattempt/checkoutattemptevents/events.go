package checkoutattemptevents

import "time"

const (
	TopicName                  = "checkoutattempt"
	attemptRecordedName        = TopicName + ".recorded"
	abandonedCartEmailSentName = TopicName + ".abandonedCartEmailSent"
)

type AttemptRecorded struct {
	GuestSessionID string
	Email          string
	CartItems      int
	Status         string
	ReminderDueAt  time.Time
}

func (e AttemptRecorded) GetEventTypeName() string {
	return attemptRecordedName
}

func (e AttemptRecorded) GetAggregateName() string {
	return e.GuestSessionID
}

type AbandonedCartEmailSent struct {
	GuestSessionID string
	Email          string
	MessageID      string
	SentAt         time.Time
}

func (e AbandonedCartEmailSent) GetEventTypeName() string {
	return abandonedCartEmailSentName
}

func (e AbandonedCartEmailSent) GetAggregateName() string {
	return e.GuestSessionID
}
