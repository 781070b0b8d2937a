// Package notify publishes order lifecycle events for downstream consumers
// (kitchen display, analytics).
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

const (
	EventOrderConfirmed = "order_confirmed"
	EventOrderCancelled = "order_cancelled"
)

// OrderEvent is the wire format published per order state change.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderCode   string    `json:"order_code"`
	PhoneNumber string    `json:"phone_number"`
	Total       float64   `json:"total"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close() error
}

// Noop is the publisher used when Kafka is disabled.
type Noop struct{}

func (Noop) PublishOrderEvent(ctx context.Context, event OrderEvent) error { return nil }
func (Noop) Close() error                                                  { return nil }

type SaramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewSaramaPublisher(brokerList, topic string) (*SaramaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // Must be true for SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokers := strings.Split(brokerList, ",")
	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	log.Printf("Sarama producer created successfully with brokers %v", brokers)
	return &SaramaPublisher{producer: producer, topic: topic}, nil
}

func (s *SaramaPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding order event: %w", err)
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.PhoneNumber),
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		log.Printf("Failed to send order event to topic %s: %v", s.topic, err)
		return err
	}
	return nil
}

func (s *SaramaPublisher) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
