package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/spacehost/internal/delivery/kafka"
)

var ErrUnknownAction = errors.New("unknown control action")

func (c *Consumer) HandleSpaceControl(ctx context.Context, message *sarama.ConsumerMessage) error {
	var cmd kafka.SpaceControlCommand
	if err := json.Unmarshal(message.Value, &cmd); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleSpaceControl: %v", err)
		return err
	}

	if cmd.AgentID != "" && cmd.AgentID != c.agentID {
		c.l.Debugf(ctx, "delivery.kafka.consumer.handlers.HandleSpaceControl: skipping command for agent %s", cmd.AgentID)
		return nil
	}

	c.l.Infof(ctx, "HandleSpaceControl consumed: action=%s requested_by=%s", cmd.Action, cmd.RequestedBy)

	var err error
	switch cmd.Action {
	case kafka.ControlActionStart:
		_, err = c.ctrl.StartSpace(ctx)
	case kafka.ControlActionStop:
		c.ctrl.Stop(ctx)
	case kafka.ControlActionJoin:
		_, err = c.ctrl.JoinSpace(ctx, cmd.SpaceID)
	case kafka.ControlActionLeave:
		err = c.ctrl.Leave(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}

	if err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleSpaceControl: %v", err)
		return err
	}

	return nil
}
