package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// metadataTimeout is the timeout for Kafka metadata operations.
const metadataTimeout = 10 * time.Second

// TopicConfig describes the audit topic to create when it is missing.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
}

// Validate checks if the TopicConfig is valid for topic creation.
func (tc TopicConfig) Validate() error {
	if tc.Name == "" {
		return errors.New("topic name cannot be empty")
	}
	if tc.NumPartitions <= 0 {
		return fmt.Errorf("number of partitions must be > 0, got %d", tc.NumPartitions)
	}
	if tc.ReplicationFactor <= 0 {
		return fmt.Errorf("replication factor must be > 0, got %d", tc.ReplicationFactor)
	}
	return nil
}

func ensureTopicWithProducer(ctx context.Context, p *kafka.Producer, cfg TopicConfig, log *zap.SugaredLogger) error {
	admin, err := kafka.NewAdminClientFromProducer(p)
	if err != nil {
		return fmt.Errorf("failed to create kafka admin client: %w", err)
	}
	defer admin.Close()

	return EnsureTopic(ctx, admin, cfg, log)
}

// EnsureTopic creates the topic unless it exists. An existing topic is kept
// as is; differing partition or replication settings are only logged.
func EnsureTopic(ctx context.Context, admin *kafka.AdminClient, cfg TopicConfig, log *zap.SugaredLogger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid topic config: %w", err)
	}

	existing, err := topicMetadata(admin, cfg.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		partitions := len(existing.Partitions)
		replicas := 0
		if partitions > 0 {
			replicas = len(existing.Partitions[0].Replicas)
		}
		if partitions != cfg.NumPartitions || replicas != cfg.ReplicationFactor {
			log.Warnw("audit topic settings differ from config",
				"topic", cfg.Name,
				"partitions", partitions,
				"replicationFactor", replicas,
				"desiredPartitions", cfg.NumPartitions,
				"desiredReplicationFactor", cfg.ReplicationFactor)
		}
		return nil
	}

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}})
	if err != nil {
		return fmt.Errorf("failed to create topic %q: %w", cfg.Name, err)
	}
	for _, result := range results {
		switch result.Error.Code() {
		case kafka.ErrNoError:
			log.Infow("created audit topic",
				"topic", result.Topic,
				"partitions", cfg.NumPartitions,
				"replicationFactor", cfg.ReplicationFactor)
		case kafka.ErrTopicAlreadyExists:
			// created concurrently
		default:
			return fmt.Errorf("failed to create topic %q: %w", result.Topic, result.Error)
		}
	}
	return nil
}

// topicMetadata returns nil when the topic does not exist.
func topicMetadata(admin *kafka.AdminClient, name string) (*kafka.TopicMetadata, error) {
	metadata, err := admin.GetMetadata(&name, false, int(metadataTimeout.Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for topic %q: %w", name, err)
	}

	tm, ok := metadata.Topics[name]
	if !ok || tm.Error.Code() == kafka.ErrUnknownTopicOrPart {
		return nil, nil
	}
	if tm.Error.Code() != kafka.ErrNoError {
		return nil, fmt.Errorf("topic %q has error: %w", name, tm.Error)
	}
	return &tm, nil
}
