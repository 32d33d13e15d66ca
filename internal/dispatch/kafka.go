package dispatch

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"fermmon/internal/structures"
)

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes alert payloads keyed by fermentation id.
type KafkaNotifier struct {
	writer kafkaMessageWriter
}

func NewKafkaNotifier(conf structures.KafkaConfig) *KafkaNotifier {
	return newKafkaNotifier(&kafka.Writer{
		Addr:         kafka.TCP(conf.Brokers...),
		Topic:        conf.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	})
}

func newKafkaNotifier(writer kafkaMessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

func (k *KafkaNotifier) Name() string {
	return "kafka"
}

func (k *KafkaNotifier) Notify(ctx context.Context, msg Message) error {
	payload, err := msg.Payload()
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.Record.FermentationID, 10)),
		Value: payload,
		Time:  msg.Record.CreatedAt,
	})
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
