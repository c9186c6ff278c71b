//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelcore/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rp := containers.NewRedpandaContainer(t)
	const topic = "hostelcore.events"

	publisher, err := NewKafkaPublisher(rp.Brokers, topic)
	require.NoError(t, err)
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sent := Event{
		Type:       TypeAllocationCreated,
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
		EntityID:   "allocation-1",
		Attributes: map[string]string{"student_id": "student-1"},
	}
	require.NoError(t, publisher.Publish(ctx, sent))

	consumer := rp.Consumer(t, topic)
	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, []byte(sent.EntityID), records[0].Key)

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, sent.Type, got.Type)
	assert.Equal(t, sent.EntityID, got.EntityID)
	assert.Equal(t, sent.Attributes, got.Attributes)
}

// TestKafkaPublisherOrdersPerEntity publishes several events with one key and
// checks consumers see them in emit order, the guarantee the key exists for.
func TestKafkaPublisherOrdersPerEntity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rp := containers.NewRedpandaContainer(t)
	const topic = "hostelcore.events.ordered"

	publisher, err := NewKafkaPublisher(rp.Brokers, topic)
	require.NoError(t, err)
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	types := []Type{TypeAllocationCreated, TypePaymentCompleted, TypeAllocationCompleted}
	for _, eventType := range types {
		require.NoError(t, publisher.Publish(ctx, Event{
			Type:     eventType,
			EntityID: "allocation-1",
		}))
	}

	consumer := rp.Consumer(t, topic)
	var got []Type
	for len(got) < len(types) {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, fetches.Err())
		for _, record := range fetches.Records() {
			var event Event
			require.NoError(t, json.Unmarshal(record.Value, &event))
			got = append(got, event.Type)
		}
	}
	assert.Equal(t, types, got)
}
