package consumer

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/spacehost/internal/delivery/kafka"
	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/pkg/logger"
)

// Controller is the subset of space.Manager driven by control commands.
type Controller interface {
	StartSpace(ctx context.Context) (*models.SpaceSnapshot, error)
	Stop(ctx context.Context)
	JoinSpace(ctx context.Context, spaceID string) (*models.Participation, error)
	Leave(ctx context.Context) error
}

type Consumer struct {
	consGr  sarama.ConsumerGroup
	ctrl    Controller
	agentID string
	l       logger.Logger
	wg      sync.WaitGroup
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	ctrl Controller,
	agentID string,
	l logger.Logger,
) *Consumer {
	return &Consumer{
		consGr:  consGr,
		ctrl:    ctrl,
		agentID: agentID,
		l:       l,
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	switch msg.Topic {
	case kafka.TopicSpaceControl:
		return c.HandleSpaceControl(ctx, msg)
	default:
		c.l.Warnf(ctx, "Unknown topic: %s", msg.Topic)
		return nil
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	topics := []string{kafka.TopicSpaceControl}
	c.wg.Go(func() {
		for {
			if err := c.consGr.Consume(ctx, topics, c); err != nil {
				c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
			}

			if ctx.Err() != nil {
				c.l.Infof(ctx, "delivery.kafka.consumer.consumer.Start: %v", ctx.Err())
				return
			}
		}
	})

	c.wg.Go(func() {
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
		}
	})

	c.l.Infof(ctx, "Consumer is consuming topics: %v", topics)
	return nil
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session started")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session ended")
	return nil
}

func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := c.processMessage(ss.Context(), message); err != nil {
				c.l.Errorf(ss.Context(), "delivery.kafka.consumer.consumer.ConsumeClaim: topic=%s offset=%d: %v",
					message.Topic, message.Offset, err)
			}

			// Control commands are not retried; a failed command is logged and committed.
			ss.MarkMessage(message, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}
