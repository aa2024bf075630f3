//go:build integration

package trigger_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"factgate/internal/trigger"
	"factgate/pkg/domain"
	"factgate/pkg/testutil/containers"
)

func TestKafkaPublisher(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)

	const topic = "factgate.triggers"
	broker.CreateTopic(t, topic)

	publisher, err := trigger.NewKafkaPublisher([]string{broker.Broker}, topic)
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	orgID := domain.OrganizationID(uuid.New())
	event := trigger.NewEvent(trigger.FactAdded, orgID, domain.AccessModeExplicit).
		WithParameter(trigger.ParamAddedFact, map[string]any{"value": "1.2.3.4"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, publisher.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, orgID.String(), string(records[0].Key),
		"events partition by organization")

	var decoded trigger.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, trigger.FactAdded, decoded.Name)
	assert.Equal(t, orgID, decoded.OrganizationID)
	assert.Equal(t, domain.AccessModeExplicit, decoded.AccessMode)
	assert.Contains(t, decoded.ContextParameters, trigger.ParamAddedFact)
}
