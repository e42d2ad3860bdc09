package myevents

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type somethingHappened struct {
	UID string
}

func (e somethingHappened) GetEventTypeName() string {
	return "something.happened"
}

func (e somethingHappened) GetAggregateName() string {
	return e.UID
}

func TestParseEventEnvelope(t *testing.T) {
	createdAt := time.Date(2023, time.February, 27, 23, 58, 59, 0, time.UTC)

	t.Run("Roundtrip through push-request", func(t *testing.T) {
		body, err := CreatePushRequest("something", "something-sub", "evt-1", createdAt, somethingHappened{UID: "42"})
		assert.NoError(t, err)

		envelope, err := ParseEventEnvelope(strings.NewReader(body))
		assert.NoError(t, err)
		assert.Equal(t, "evt-1", envelope.UID)
		assert.Equal(t, "something", envelope.Topic)
		assert.Equal(t, "42", envelope.AggregateUID)
		assert.Equal(t, "something.happened", envelope.EventTypeName)
		assert.Equal(t, `{"UID":"42"}`, envelope.EventPayload)
		assert.Equal(t, "something.something.happened.42", envelope.String())
	})

	t.Run("Invalid push-request", func(t *testing.T) {
		_, err := ParseEventEnvelope(strings.NewReader(`{`))
		assert.Error(t, err)
	})
}
