package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"hyperflow/internal/pipeerr"
	"hyperflow/logger"
)

// Message is one logical record to publish: the partition key (always the
// symbol for entity topics) and the value to be JSON encoded.
type Message struct {
	Key   string
	Value interface{}
	Time  time.Time
}

// Producer publishes canonical records onto the event bus. One instance is
// shared by every collector; kafka-go writers are safe for concurrent use.
//
// The writer is configured for single-in-flight, full-acknowledgement
// delivery (acks=all, no client-side retries, synchronous writes) so a
// retry of the same logical publish issued by the caller does not race an
// in-flight duplicate.
type Producer struct {
	brokers []string
	writer  *kafka.Writer
	log     *logger.Log
}

// ProducerConfig carries the broker connection parameters.
type ProducerConfig struct {
	Brokers      []string
	ClientID     string
	BatchTimeout time.Duration
}

// NewProducer builds the producer. It does not touch the network; call
// Connect before first use so broker failures surface at startup.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	p := &Producer{
		brokers: cfg.Brokers,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  1,
			BatchTimeout: batchTimeout,
			Async:        false,
		},
		log: logger.GetLogger(),
	}

	p.log.WithComponent("bus_producer").WithFields(logger.Fields{
		"brokers":   cfg.Brokers,
		"client_id": cfg.ClientID,
	}).Debug("bus producer initialized")
	return p, nil
}

// Connect verifies at least one broker is reachable and provisions the
// topics this service produces onto. Called by the supervisor during
// startup, before any collector runs.
func (p *Producer) Connect(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		p.ensureTopics(ctx, conn)
		conn.Close()
		p.log.WithComponent("bus_producer").WithFields(logger.Fields{
			"broker": broker,
		}).Info("connected to kafka")
		return nil
	}
	return pipeerr.Newf(pipeerr.KindPublish, "no kafka broker reachable: %v", lastErr)
}

// ensureTopics creates the entity and dead-letter topics on the cluster
// controller. Failures are logged, not fatal: most clusters either have the
// topics pre-provisioned or auto-create enabled.
func (p *Producer) ensureTopics(ctx context.Context, conn *kafka.Conn) {
	log := p.log.WithComponent("bus_producer")

	controller, err := conn.Controller()
	if err != nil {
		log.WithError(err).Warn("could not resolve cluster controller; skipping topic provisioning")
		return
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	cconn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{"controller": addr}).Warn("could not dial cluster controller; skipping topic provisioning")
		return
	}
	defer cconn.Close()

	for _, tc := range ProvisionTopics() {
		entries := make([]kafka.ConfigEntry, 0, len(tc.Config))
		for k, v := range tc.Config {
			entries = append(entries, kafka.ConfigEntry{ConfigName: k, ConfigValue: v})
		}
		err := cconn.CreateTopics(kafka.TopicConfig{
			Topic:             tc.Name,
			NumPartitions:     tc.Partitions,
			ReplicationFactor: tc.ReplicationFactor,
			ConfigEntries:     entries,
		})
		if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
			log.WithError(err).WithFields(logger.Fields{"topic": tc.Name}).Warn("topic provisioning failed")
		}
	}
}

// Publish sends one record to topic keyed by key and returns after the
// broker acknowledges the write.
func (p *Producer) Publish(ctx context.Context, topic, key string, record interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: record}})
}

// PublishBatch sends a batch of records to topic in one broker round trip.
// All messages share the topic; each keeps its own partition key.
func (p *Producer) PublishBatch(ctx context.Context, topic string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	kmsgs := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		value, err := json.Marshal(m.Value)
		if err != nil {
			return pipeerr.Newf(pipeerr.KindPublish, "marshal record for %s: %v", topic, err)
		}
		kmsgs = append(kmsgs, kafka.Message{
			Topic: topic,
			Key:   []byte(m.Key),
			Value: value,
			Time:  m.Time,
		})
	}

	if err := p.writer.WriteMessages(ctx, kmsgs...); err != nil {
		return pipeerr.Newf(pipeerr.KindPublish, "write %d messages to %s: %v", len(kmsgs), topic, err)
	}

	logger.IncrementBusPublish(len(kmsgs))
	p.log.WithComponent("bus_producer").WithFields(logger.Fields{
		"topic":   topic,
		"records": len(kmsgs),
	}).Debug("batch published")
	return nil
}

// Close flushes buffered messages best effort and releases connections.
func (p *Producer) Close() error {
	p.log.WithComponent("bus_producer").Debug("closing bus producer")
	return p.writer.Close()
}
