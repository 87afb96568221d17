//go:build integration

package containers

import (
	"context"
	"errors"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredpanda "github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// RedpandaContainer wraps a testcontainers Redpanda instance used to
// exercise the ledger outbox relay end to end.
type RedpandaContainer struct {
	Container testcontainers.Container
	Broker    string
}

// NewRedpandaContainer starts a new Redpanda container.
func NewRedpandaContainer(t *testing.T) *RedpandaContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.3.1")
	if err != nil {
		t.Fatalf("failed to start redpanda container: %v", err)
	}

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redpanda seed broker: %v", err)
	}

	// The container is managed by the singleton Manager and shared across
	// test suites. Ryuk handles cleanup.
	return &RedpandaContainer{
		Container: container,
		Broker:    broker,
	}
}

// CreateTopic creates the topic, tolerating an existing one so suites can
// share the container.
func (r *RedpandaContainer) CreateTopic(ctx context.Context, topic string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(r.Broker))
	if err != nil {
		return err
	}
	defer client.Close()

	admin := kadm.NewClient(client)
	responses, err := admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return err
	}
	for _, response := range responses {
		if response.Err != nil && !errors.Is(response.Err, kerr.TopicAlreadyExists) {
			return response.Err
		}
	}
	return nil
}
