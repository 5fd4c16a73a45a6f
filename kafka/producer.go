package kafka

import (
	"context"
	"encoding/json"
	"log"

	"order-service/models"

	"github.com/segmentio/kafka-go"
)

// ProducerAPI is the producer surface used by the service layer.
type ProducerAPI interface {
	Publish(key string, message []byte) error
	SendOrderEvent(evt models.OrderEvent) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Printf("[OrderService][KafkaProducer] initialized topic=%s brokers=%v", topic, brokers)
	return &Producer{writer: w, topic: topic}
}

func (p *Producer) Publish(key string, message []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: message,
	}
	return p.writer.WriteMessages(context.Background(), msg)
}

// SendOrderEvent publishes a lifecycle event keyed by order id so every event
// for the same order lands on the same partition.
func (p *Producer) SendOrderEvent(evt models.OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := p.Publish(evt.OrderID, data); err != nil {
		log.Printf("[OrderService][KafkaProducer] failed to publish %s order=%s topic=%s err=%v", evt.Event, evt.OrderID, p.topic, err)
		return err
	}
	log.Printf("[OrderService][KafkaProducer] %s published order=%s topic=%s", evt.Event, evt.OrderID, p.topic)
	return nil
}

func (p *Producer) Close() error {
	log.Printf("[OrderService][KafkaProducer] closing writer topic=%s", p.topic)
	return p.writer.Close()
}
