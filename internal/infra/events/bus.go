package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler はイベントを受け取る
type Handler func(Envelope)

// Sink はプロセス外への配信先（Kafkaなど）
type Sink interface {
	Publish(e Envelope)
}

// Bus はプロセス内のpub/sub。購読者は同期で呼ばれる。
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	sinks    []Sink
	log      *zap.Logger
}

func NewBus(log *zap.Logger, sinks ...Sink) *Bus {
	return &Bus{handlers: map[string][]Handler{}, sinks: sinks, log: log}
}

// Subscribe は eventType の購読者を追加する
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish はEnvelopeを作って配信する
func (b *Bus) Publish(eventType, sessionID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.log.Error("marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	e := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		SessionID:  sessionID,
		Payload:    raw,
	}

	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[eventType]...)
	sinks := b.sinks
	b.mu.RUnlock()

	for _, h := range hs {
		h(e)
	}
	for _, s := range sinks {
		s.Publish(e)
	}
	b.log.Debug("event published", zap.String("event_type", eventType), zap.String("event_id", e.EventID))
}
