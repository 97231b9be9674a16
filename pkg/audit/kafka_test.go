package audit

import (
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestKafkaConfig_FromEnv(t *testing.T) {
	t.Setenv("AUDIT_KAFKA_BOOTSTRAP_SERVERS", "broker-1:9092,broker-2:9092")
	t.Setenv("AUDIT_KAFKA_TOPIC", "robot-audit")

	cfg, err := LoadKafkaConfig()
	require.NoError(t, err)
	require.True(t, cfg.Enabled())
	require.Equal(t, "robot-audit", cfg.Topic)
	require.Equal(t, "mqlibrary", cfg.ClientID)
	require.False(t, cfg.EnableLogs)

	cm := cfg.ConfigMap()
	servers, err := cm.Get("bootstrap.servers", "")
	require.NoError(t, err)
	require.Equal(t, "broker-1:9092,broker-2:9092", servers)

	logs, err := cm.Get("go.logs.channel.enable", true)
	require.NoError(t, err)
	require.Equal(t, false, logs)
}

func TestKafkaConfig_Disabled(t *testing.T) {
	t.Setenv("AUDIT_KAFKA_BOOTSTRAP_SERVERS", "")

	cfg, err := LoadKafkaConfig()
	require.NoError(t, err)
	require.False(t, cfg.Enabled())

	_, err = NewKafkaPublisher(t.Context(), cfg, zaptest.NewLogger(t).Sugar())
	require.ErrorContains(t, err, "needs bootstrap servers")
}

func TestKafkaConfig_DefaultClientID(t *testing.T) {
	cm := KafkaConfig{BootstrapServers: "localhost:9092"}.ConfigMap()
	id, err := cm.Get("client.id", "")
	require.NoError(t, err)
	require.Equal(t, "mqlibrary", id)
}

func TestKafkaConfig_SASL(t *testing.T) {
	t.Setenv("AUDIT_KAFKA_BOOTSTRAP_SERVERS", "broker:9096")
	t.Setenv("AUDIT_KAFKA_SASL_USERNAME", "robot")
	t.Setenv("AUDIT_KAFKA_SASL_PASSWORD", "secret")

	cfg, err := LoadKafkaConfig()
	require.NoError(t, err)
	require.True(t, cfg.SASL.Enabled())
	require.Equal(t, "SCRAM-SHA-512", cfg.SASL.Mechanism)

	cm := cfg.ConfigMap()
	for key, want := range map[string]string{
		"security.protocol": "SASL_SSL",
		"sasl.mechanisms":   "SCRAM-SHA-512",
		"sasl.username":     "robot",
		"sasl.password":     "secret",
	} {
		got, err := cm.Get(key, "")
		require.NoError(t, err)
		require.Equal(t, want, got, key)
	}
}

func TestSASLConfig_Disabled(t *testing.T) {
	cm := &kafka.ConfigMap{}
	SASLConfig{Mechanism: "PLAIN", SecurityProtocol: "SASL_PLAINTEXT"}.ApplyToConfigMap(cm)
	require.Empty(t, *cm)
}

func TestKafkaConfig_TopicConfig(t *testing.T) {
	require.Equal(t, TopicConfig{Name: DefaultTopic, NumPartitions: 3, ReplicationFactor: 2},
		KafkaConfig{TopicPartitions: 3, TopicReplicationFactor: 2}.TopicConfig())
	require.Equal(t, "robot-audit", KafkaConfig{Topic: "robot-audit"}.TopicConfig().Name)
}

func TestTopicConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TopicConfig
		wantErr string
	}{
		{name: "valid", cfg: TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}},
		{name: "no name", cfg: TopicConfig{NumPartitions: 1, ReplicationFactor: 1}, wantErr: "topic name cannot be empty"},
		{name: "no partitions", cfg: TopicConfig{Name: "t", ReplicationFactor: 1}, wantErr: "number of partitions must be > 0, got 0"},
		{name: "no replication", cfg: TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: -1}, wantErr: "replication factor must be > 0, got -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestLoadKafkaConfig_Invalid(t *testing.T) {
	t.Setenv("AUDIT_KAFKA_ENABLE_LOGS", "sometimes")

	_, err := LoadKafkaConfig()
	require.ErrorContains(t, err, "failed to parse audit kafka config")
}

func TestKafkaPublisher_HandleDelivery(t *testing.T) {
	q := &KafkaPublisher{topic: DefaultTopic, log: zaptest.NewLogger(t).Sugar()}
	topic := DefaultTopic

	tests := []struct {
		name    string
		event   kafka.Event
		wantErr string
	}{
		{
			name: "delivered",
			event: &kafka.Message{TopicPartition: kafka.TopicPartition{
				Topic: &topic, Partition: 0, Offset: kafka.Offset(42),
			}},
		},
		{
			name: "delivery error",
			event: &kafka.Message{TopicPartition: kafka.TopicPartition{
				Topic: &topic, Partition: 0, Error: errors.New("message timed out"),
			}},
			wantErr: "delivery failed: message timed out",
		},
		{
			name:    "kafka error",
			event:   kafka.NewError(kafka.ErrMsgTimedOut, "timed out", false),
			wantErr: "kafka error",
		},
		{
			name:    "unexpected event",
			event:   kafka.PartitionEOF{Topic: &topic},
			wantErr: "unexpected delivery event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := q.handleDelivery(tt.event)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
