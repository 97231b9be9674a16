package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// DefaultTopic receives audit events unless configured otherwise.
const DefaultTopic = "mq-keyword-audit"

const (
	flushTimeoutMs           = 10000
	queueFullErrorRetryDelay = time.Second
)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	BootstrapServers       string     `env:"AUDIT_KAFKA_BOOTSTRAP_SERVERS"`                                   // Empty disables Kafka auditing
	Topic                  string     `env:"AUDIT_KAFKA_TOPIC"                    envDefault:"mq-keyword-audit"` // Topic events are produced to
	ClientID               string     `env:"AUDIT_KAFKA_CLIENT_ID"                envDefault:"mqlibrary"`        // client.id of the producer
	EnableLogs             bool       `env:"AUDIT_KAFKA_ENABLE_LOGS"              envDefault:"false"`            // Forward librdkafka logs at debug level
	CreateTopic            bool       `env:"AUDIT_KAFKA_CREATE_TOPIC"             envDefault:"false"`            // Create the topic on startup when missing
	TopicPartitions        int        `env:"AUDIT_KAFKA_TOPIC_PARTITIONS"         envDefault:"1"`                // Partitions of a created topic
	TopicReplicationFactor int        `env:"AUDIT_KAFKA_TOPIC_REPLICATION_FACTOR" envDefault:"1"`                // Replication factor of a created topic
	SASL                   SASLConfig `envPrefix:"AUDIT_KAFKA_SASL_"`
}

// SASLConfig holds optional SASL credentials for the audit brokers.
type SASLConfig struct {
	Username         string `env:"USERNAME"`
	Password         string `env:"PASSWORD"`
	Mechanism        string `env:"MECHANISM"         envDefault:"SCRAM-SHA-512"` // SCRAM-SHA-256, SCRAM-SHA-512 or PLAIN
	SecurityProtocol string `env:"SECURITY_PROTOCOL" envDefault:"SASL_SSL"`      // SASL_SSL or SASL_PLAINTEXT
}

// Enabled reports whether SASL credentials are configured.
func (s SASLConfig) Enabled() bool {
	return s.Username != ""
}

// ApplyToConfigMap adds the SASL settings to cm when enabled.
func (s SASLConfig) ApplyToConfigMap(cm *kafka.ConfigMap) {
	if !s.Enabled() {
		return
	}
	(*cm)["security.protocol"] = s.SecurityProtocol
	(*cm)["sasl.mechanisms"] = s.Mechanism
	(*cm)["sasl.username"] = s.Username
	(*cm)["sasl.password"] = s.Password
}

// LoadKafkaConfig reads KafkaConfig from the environment.
func LoadKafkaConfig() (KafkaConfig, error) {
	var cfg KafkaConfig
	if err := env.Parse(&cfg); err != nil {
		return KafkaConfig{}, fmt.Errorf("failed to parse audit kafka config: %w", err)
	}
	return cfg, nil
}

// Enabled reports whether a broker is configured.
func (c KafkaConfig) Enabled() bool {
	return c.BootstrapServers != ""
}

// ConfigMap returns the librdkafka producer configuration.
func (c KafkaConfig) ConfigMap() *kafka.ConfigMap {
	clientID := c.ClientID
	if clientID == "" {
		clientID = "mqlibrary"
	}
	cm := &kafka.ConfigMap{
		"bootstrap.servers":      c.BootstrapServers,
		"client.id":              clientID,
		"acks":                   "all",
		"enable.idempotence":     true,
		"go.logs.channel.enable": c.EnableLogs,
	}
	c.SASL.ApplyToConfigMap(cm)
	return cm
}

// TopicConfig returns the settings used to create the audit topic.
func (c KafkaConfig) TopicConfig() TopicConfig {
	name := c.Topic
	if name == "" {
		name = DefaultTopic
	}
	return TopicConfig{
		Name:              name,
		NumPartitions:     c.TopicPartitions,
		ReplicationFactor: c.TopicReplicationFactor,
	}
}

// KafkaPublisher produces events to a Kafka topic and waits for each delivery
// receipt.
//
// Background goroutines consume producer events and, when enabled, librdkafka
// logs. Close MUST be called to stop them and flush in-flight events.
type KafkaPublisher struct {
	producer   *kafka.Producer
	topic      string
	log        *zap.SugaredLogger
	errCh      chan error
	eventsDone chan struct{}
	logsDone   chan struct{}
	closedCh   chan struct{}
	once       sync.Once
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a producer for cfg.
//
// ctx bounds the lifetime of the background goroutines.
func NewKafkaPublisher(ctx context.Context, cfg KafkaConfig, log *zap.SugaredLogger) (*KafkaPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("audit kafka publisher needs bootstrap servers")
	}
	topic := cfg.TopicConfig().Name

	p, err := kafka.NewProducer(cfg.ConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	if cfg.CreateTopic {
		if err := ensureTopicWithProducer(ctx, p, cfg.TopicConfig(), log); err != nil {
			p.Close()
			return nil, err
		}
	}

	kp := &KafkaPublisher{
		producer:   p,
		topic:      topic,
		log:        log,
		errCh:      make(chan error, 1),
		eventsDone: make(chan struct{}),
		logsDone:   make(chan struct{}),
		closedCh:   make(chan struct{}),
	}

	if cfg.EnableLogs {
		go kp.forwardLogs(ctx)
	} else {
		close(kp.logsDone)
	}
	go kp.monitorEvents(ctx)

	return kp, nil
}

// Publish produces ev and blocks until Kafka confirms delivery or ctx is done.
// A full local queue is retried every second. When ctx is done first the event
// MAY still be delivered later.
func (q *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	deliveryCh := make(chan kafka.Event, 1)
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &q.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   ev.Key(),
		Value: value,
		Headers: []kafka.Header{
			{Key: "keyword", Value: []byte(ev.Keyword)},
			{Key: "status", Value: []byte(ev.Status)},
		},
	}

	if err := q.produceWithRetry(ctx, msg, deliveryCh); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryCh:
		return q.handleDelivery(e)
	}
}

// Close stops the background goroutines and flushes pending events. When ctx
// is done during the flush the producer is closed and pending events are lost.
// Calling Close more than once does nothing.
func (q *KafkaPublisher) Close(ctx context.Context) {
	q.once.Do(func() {
		q.log.Info("closing audit kafka publisher")
		defer close(q.errCh)

		close(q.closedCh)
		<-q.eventsDone
		<-q.logsDone

		for q.producer.Flush(flushTimeoutMs) > 0 {
			q.log.Warn("audit producer queue not flushed, retrying")
			select {
			case <-ctx.Done():
				q.log.Info("context done, stopping audit producer flush")
				q.producer.Close()
				return
			default:
			}
		}

		q.producer.Close()
		q.log.Info("audit kafka publisher closed")
	})
}

// Errors receives at most one fatal producer error and is closed by Close.
// A publisher that reported an error is no longer usable.
func (q *KafkaPublisher) Errors() <-chan error {
	return q.errCh
}

func (q *KafkaPublisher) produceWithRetry(ctx context.Context, msg *kafka.Message, deliveryCh chan kafka.Event) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := q.producer.Produce(msg, deliveryCh)
		if err == nil {
			return nil
		}

		var kafkaErr kafka.Error
		if !errors.As(err, &kafkaErr) {
			return fmt.Errorf("failed to produce audit event: %w", err)
		}

		switch kafkaErr.Code() {
		case kafka.ErrQueueFull:
			q.log.Warn("audit producer queue full, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(queueFullErrorRetryDelay):
			}
		case kafka.ErrBrokerNotAvailable:
			return fmt.Errorf("broker not available: %w", err)
		case kafka.ErrMsgSizeTooLarge, kafka.ErrInvalidMsgSize:
			return fmt.Errorf("invalid message size: %w", err)
		case kafka.ErrUnknownTopicOrPart:
			return fmt.Errorf("unknown topic or partition: %w", err)
		case kafka.ErrAuthentication:
			return fmt.Errorf("authentication error: %w", err)
		default:
			return fmt.Errorf("failed to produce audit event: %w", err)
		}
	}
}

func (q *KafkaPublisher) handleDelivery(ev kafka.Event) error {
	switch e := ev.(type) {
	case *kafka.Message:
		if err := e.TopicPartition.Error; err != nil {
			return fmt.Errorf("delivery failed: %w", err)
		}
		q.log.Debugf("audit event delivered to topic [%s] partition [%d] at offset [%d]",
			q.topic, e.TopicPartition.Partition, e.TopicPartition.Offset)
		return nil
	case kafka.Error:
		return fmt.Errorf("kafka error: code=%d fatal=%t: %w", e.Code(), e.IsFatal(), e)
	default:
		return fmt.Errorf("unexpected delivery event: %T", ev)
	}
}

func (q *KafkaPublisher) forwardLogs(ctx context.Context) {
	defer close(q.logsDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closedCh:
			return
		case entry, ok := <-q.producer.Logs():
			if !ok {
				return
			}
			q.log.Debugw("librdkafka", "level", entry.Level, "tag", entry.Tag, "message", entry.Message)
		}
	}
}

func (q *KafkaPublisher) monitorEvents(ctx context.Context) {
	defer close(q.eventsDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closedCh:
			return
		case ev, ok := <-q.producer.Events():
			if !ok {
				q.reportFatal(errors.New("audit producer event channel closed"))
				return
			}
			switch e := ev.(type) {
			case kafka.Error:
				if e.IsFatal() || e.Code() == kafka.ErrAllBrokersDown {
					q.reportFatal(fmt.Errorf("fatal audit producer error %#x: %w", e.Code(), e))
					return
				}
				q.log.Warnf("ignoring kafka error: %#x, %v", e.Code(), e)
			case *kafka.Message:
				// receipts go to the per-message delivery channel
				q.log.Warnf("unexpected delivery receipt on events channel: %v", e.TopicPartition)
			default:
				q.log.Debugf("ignoring kafka event: %v", e)
			}
		}
	}
}

func (q *KafkaPublisher) reportFatal(err error) {
	select {
	case q.errCh <- err:
	default:
		q.log.Warnf("audit error channel full: %v", err)
	}
}
