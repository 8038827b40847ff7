// Package messaging adapts IBM/sarama to ports.MessagingClient, grounded
// on the teacher pack's sarama.SyncProducer wrapper
// (service/reporting/regulatory/internal/messaging/kafka.go): JSON-encode
// the payload, WaitForAll acks, bounded retries.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/domain"
)

// KafkaPublisher publishes completed divergence reports to a Kafka topic.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a synchronous producer to brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaPublisher{producer: producer, topic: topic}, nil
}

type reportMessage struct {
	IndexerA            string `json:"indexerA"`
	IndexerB            string `json:"indexerB"`
	Deployment          string `json:"deployment"`
	FirstDivergentBlock uint64 `json:"firstDivergentBlock"`
	LastCommonBlock     *uint64 `json:"lastCommonBlock,omitempty"`
	Status              string `json:"status"`
}

func (p *KafkaPublisher) PublishDivergenceReport(ctx context.Context, report domain.DivergenceInvestigationReport) error {
	var lastCommon *uint64
	if report.LastCommonBlock != nil {
		n := report.LastCommonBlock.Number
		lastCommon = &n
	}

	payload, err := json.Marshal(reportMessage{
		IndexerA:            report.IndexerA.Key(),
		IndexerB:            report.IndexerB.Key(),
		Deployment:          string(report.Deployment),
		FirstDivergentBlock: report.FirstDivergentBlock.Number,
		LastCommonBlock:     lastCommon,
		Status:              report.Status.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal divergence report: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(string(report.Deployment)),
		Value: sarama.ByteEncoder(payload),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send divergence report: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

var _ ports.MessagingClient = (*KafkaPublisher)(nil)
