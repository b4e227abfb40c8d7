//go:build integration

package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "tollgate/pkg/platform/audit"
	"tollgate/pkg/testutil/containers"
)

func TestProducerPublishes(t *testing.T) {
	rp := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "tollgate.audit." + uuid.NewString()[:8]
	p, err := NewProducer([]string{rp.Broker}, topic, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.EnsureTopic(ctx, 1, 1))
	require.NoError(t, p.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	entry := audit.OutboxEntry{
		ID:            uuid.New(),
		AggregateType: "governance",
		AggregateID:   "registry",
		EventType:     "proposal_created",
		Payload:       []byte(`{"action":"proposal_created"}`),
		CreatedAt:     time.Now(),
	}
	require.NoError(t, p.Publish(ctx, []audit.OutboxEntry{entry}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	var got []*kgo.Record
	fetches.EachRecord(func(r *kgo.Record) { got = append(got, r) })
	require.Len(t, got, 1)
	require.Equal(t, "registry", string(got[0].Key))
	require.JSONEq(t, string(entry.Payload), string(got[0].Value))
}
