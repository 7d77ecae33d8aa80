package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

// ErrQueueFull is returned when the export buffer cannot take another event
var ErrQueueFull = errors.New("audit event queue full, event dropped")

// ErrExporterClosed is returned by Publish after Close
var ErrExporterClosed = errors.New("audit exporter closed")

// AuditEvent is the message written to Kafka for every committed log row
type AuditEvent struct {
	ID             uuid.UUID      `json:"id"`
	OrganisationID *uuid.UUID     `json:"organisation_id"`
	UserID         *uuid.UUID     `json:"user_id"`
	Action         string         `json:"action"`
	Meta           map[string]any `json:"meta"`
	Timestamp      time.Time      `json:"timestamp"`
	EventType      string         `json:"event_type"`
}

// messageWriter is the part of *kafka.Writer the exporter uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaExporterConfig tunes the exporter worker pool. QueueSize bounds each
// worker's queue.
type KafkaExporterConfig struct {
	Broker       string
	Topic        string
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

// KafkaExporter ships audit rows to Kafka from a pool of workers so that
// request handlers never wait on the broker. Every event of one organisation
// goes through the same worker, so they reach Kafka in commit order.
type KafkaExporter struct {
	writer       messageWriter
	topic        string
	queues       []chan AuditEvent
	workerCount  int
	writeTimeout time.Duration
	breaker      *utils.CircuitBreaker

	mu           sync.RWMutex
	closed       bool
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// NewKafkaExporter creates an exporter writing to cfg.Broker and starts its workers
func NewKafkaExporter(cfg KafkaExporterConfig) (*KafkaExporter, error) {
	if cfg.Broker == "" {
		return nil, errors.New("kafka broker not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	return newKafkaExporter(writer, cfg), nil
}

func newKafkaExporter(writer messageWriter, cfg KafkaExporterConfig) *KafkaExporter {
	if cfg.Topic == "" {
		cfg.Topic = "audit-logs"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	ke := &KafkaExporter{
		writer:       writer,
		topic:        cfg.Topic,
		queues:       make([]chan AuditEvent, cfg.Workers),
		workerCount:  cfg.Workers,
		writeTimeout: cfg.WriteTimeout,
		breaker:      utils.NewCircuitBreaker("kafka-audit-export", 5, 30*time.Second),
		shutdownChan: make(chan struct{}),
	}
	for i := range ke.queues {
		ke.queues[i] = make(chan AuditEvent, cfg.QueueSize)
	}
	ke.startWorkers()
	return ke
}

func (ke *KafkaExporter) startWorkers() {
	for i := 0; i < ke.workerCount; i++ {
		ke.wg.Add(1)
		go ke.worker(i)
	}
	logrus.WithFields(logrus.Fields{"workers": ke.workerCount, "topic": ke.topic}).Info("Audit exporter started")
}

func (ke *KafkaExporter) worker(id int) {
	defer ke.wg.Done()
	events := ke.queues[id]

	for {
		select {
		case event := <-events:
			ke.send(id, event)
		case <-ke.shutdownChan:
			// drain what is already queued before exiting
			for {
				select {
				case event := <-events:
					ke.send(id, event)
				default:
					return
				}
			}
		}
	}
}

func (ke *KafkaExporter) send(workerID int, event AuditEvent) {
	err := ke.breaker.Call(func() error {
		return ke.writeEvent(event)
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"worker": workerID,
			"log_id": event.ID,
			"action": event.Action,
			"error":  err,
		}).Warn("Failed to write audit event to Kafka")
	}
}

// Publish queues a committed row for export without blocking
func (ke *KafkaExporter) Publish(entry models.Log) error {
	ke.mu.RLock()
	defer ke.mu.RUnlock()
	if ke.closed {
		return ErrExporterClosed
	}

	event := AuditEvent{
		ID:             entry.ID,
		OrganisationID: entry.OrganisationID,
		UserID:         entry.UserID,
		Action:         entry.Action,
		Meta:           map[string]any(entry.Meta),
		Timestamp:      entry.Timestamp,
		EventType:      "audit_log",
	}

	select {
	case ke.queues[ke.route(eventKey(event))] <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// route picks the worker that owns key
func (ke *KafkaExporter) route(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(ke.workerCount))
}

// eventKey is the organisation id, or "system" for organisation-less rows
func eventKey(event AuditEvent) string {
	if event.OrganisationID == nil {
		return "system"
	}
	return event.OrganisationID.String()
}

func (ke *KafkaExporter) writeEvent(event AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	key := eventKey(event)

	msg := kafka.Message{
		Topic: ke.topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "action", Value: []byte(event.Action)},
			{Key: "organisation_id", Value: []byte(key)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), ke.writeTimeout)
	defer cancel()

	if err := ke.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write audit event to Kafka: %w", err)
	}
	return nil
}

// Close stops accepting events, flushes the queue and closes the writer
func (ke *KafkaExporter) Close() error {
	ke.mu.Lock()
	if ke.closed {
		ke.mu.Unlock()
		return nil
	}
	ke.closed = true
	ke.mu.Unlock()

	close(ke.shutdownChan)
	ke.wg.Wait()

	if err := ke.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	logrus.Info("Audit exporter stopped")
	return nil
}
