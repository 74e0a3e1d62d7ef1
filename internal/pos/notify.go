package pos

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event announces that a collection changed. It is advisory only: a
// subscriber reacts by re-reading state, never by reconciling writes.
type Event struct {
	Collection string    `json:"collection"`
	At         time.Time `json:"at"`
}

// Notifier publishes change events to interested observers. This replaces
// the browser storage-change mechanism with an explicit pub/sub contract.
type Notifier interface {
	Publish(ctx context.Context, event Event)
	Subscribe() (<-chan Event, func())
}

// Broker is an in-process Notifier.
type Broker struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBroker constructs an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Publish delivers the event to every subscriber without blocking; a slow
// subscriber misses events rather than stalling a commit.
func (b *Broker) Publish(_ context.Context, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers an observer. The returned func cancels it.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

const notifyChannel = "lababil:changes"

// RedisNotifier fans events out across instances over Redis pub/sub, the
// way one browser tab observed another's cache flush.
type RedisNotifier struct {
	client *redis.Client
	logger *slog.Logger
	local  *Broker
}

// NewRedisNotifier constructs the notifier and starts its receive loop.
// Cancel ctx to stop it.
func NewRedisNotifier(ctx context.Context, client *redis.Client, logger *slog.Logger) *RedisNotifier {
	n := &RedisNotifier{client: client, logger: logger, local: NewBroker()}
	sub := client.Subscribe(ctx, notifyChannel)
	go func() {
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Warn("notify: bad payload", slog.Any("error", err))
					continue
				}
				n.local.Publish(ctx, event)
			}
		}
	}()
	return n
}

func (n *RedisNotifier) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("notify: marshal", slog.Any("error", err))
		return
	}
	if err := n.client.Publish(ctx, notifyChannel, payload).Err(); err != nil {
		n.logger.Warn("notify: publish", slog.Any("error", err))
	}
}

func (n *RedisNotifier) Subscribe() (<-chan Event, func()) {
	return n.local.Subscribe()
}
