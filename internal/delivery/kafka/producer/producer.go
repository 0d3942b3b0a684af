package producer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/spacehost/internal/delivery/kafka"
	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/pkg/logger"
)

const lifecycleBuffer = 256

type Producer interface {
	AnnounceSpace(ctx context.Context, a models.SpaceAnnouncement) error
	// OnSpaceEvent queues a lifecycle event and returns immediately.
	OnSpaceEvent(ctx context.Context, ev models.SpaceEvent)
	Close() error
}

type implProducer struct {
	l         logger.Logger
	prod      sarama.SyncProducer
	lifecycle chan models.SpaceEvent
	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	p := &implProducer{
		l:         l,
		prod:      prod,
		lifecycle: make(chan models.SpaceEvent, lifecycleBuffer),
	}
	p.wg.Go(p.publishLifecycle)
	return p
}

func (p *implProducer) AnnounceSpace(ctx context.Context, a models.SpaceAnnouncement) error {
	event := kafka.SpaceAnnouncedEvent{
		SpaceID:   a.SpaceID,
		AgentID:   a.AgentID,
		Title:     a.Title,
		ShareURL:  a.ShareURL,
		StartedAt: a.StartedAt,
		Timestamp: time.Now(),
	}

	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.AnnounceSpace: %v", err)
		return err
	}

	_, _, err = p.prod.SendMessage(newMessage(kafka.TopicSpaceAnnounced, a.SpaceID, val))
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.AnnounceSpace: %v", err)
	}
	return err
}

func (p *implProducer) OnSpaceEvent(ctx context.Context, ev models.SpaceEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	select {
	case p.lifecycle <- ev:
	default:
		p.l.Warnf(ctx, "delivery.kafka.producer.OnSpaceEvent: buffer full, dropping %s for %s", ev.Type, ev.SpaceID)
	}
}

func (p *implProducer) publishLifecycle() {
	ctx := context.Background()
	for ev := range p.lifecycle {
		event := kafka.SpaceLifecycleEvent{
			Type:       string(ev.Type),
			SpaceID:    ev.SpaceID,
			AgentID:    ev.AgentID,
			Status:     string(ev.Status),
			UserID:     ev.UserID,
			Username:   ev.Username,
			Reason:     ev.Reason,
			OccurredAt: ev.Timestamp,
			Timestamp:  time.Now(),
		}

		val, err := json.Marshal(event)
		if err != nil {
			p.l.Errorf(ctx, "delivery.kafka.producer.publishLifecycle: %v", err)
			continue
		}

		// Keyed by agent so one agent's events stay ordered.
		if _, _, err := p.prod.SendMessage(newMessage(kafka.TopicSpaceLifecycle, ev.AgentID, val)); err != nil {
			p.l.Errorf(ctx, "delivery.kafka.producer.publishLifecycle: %v", err)
		}
	}
}

func (p *implProducer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.lifecycle)
		p.mu.Unlock()

		p.wg.Wait()
		err = p.prod.Close()
	})
	return err
}

func newMessage(topic, key string, val []byte) *sarama.ProducerMessage {
	return &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}
}
