package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UnendingLoop/BgRemover/internal/model"
	"github.com/wb-go/wbf/retry"
)

// Sender - контракт продюсера; его реализует wbf/kafka.Producer
type Sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, value []byte) error
}

// Стратегия ретрая отправки события; клиент ждет ответа, поэтому держим ее короткой
var retryStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    200 * time.Millisecond,
	Backoff:  2,
}

var ErrNilEvent = errors.New("nil event")

// EventPublisher sends ProcessedEvent messages keyed by the storage key.
type EventPublisher struct {
	sender   Sender
	strategy retry.Strategy
}

func NewEventPublisher(s Sender) *EventPublisher {
	return &EventPublisher{sender: s, strategy: retryStrategy}
}

func (p *EventPublisher) Publish(ctx context.Context, event *model.ProcessedEvent) error {
	if event == nil {
		return ErrNilEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %q: %w", event.Key, err)
	}

	if err := p.sender.SendWithRetry(ctx, p.strategy, []byte(event.Key), value); err != nil {
		return fmt.Errorf("send event %q: %w", event.Key, err)
	}
	return nil
}
