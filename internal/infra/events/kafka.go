package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaSink はイベントをKafkaへ非同期に流す
type KafkaSink struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *zap.Logger
}

func NewKafkaSink(brokers []string, topic string, buf int, log *zap.Logger) *KafkaSink {
	return &KafkaSink{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Start は送信ループを起動する。ctxが終わったら残りを流して閉じる。
func (k *KafkaSink) Start(ctx context.Context) {
	go func() {
		defer close(k.closeCh)
		for {
			select {
			case <-ctx.Done():
				k.drain()
				return
			case m := <-k.inbox:
				k.write(m)
			}
		}
	}()
}

func (k *KafkaSink) drain() {
	for {
		select {
		case m := <-k.inbox:
			k.write(m)
		default:
			if err := k.w.Close(); err != nil {
				k.log.Warn("close kafka writer", zap.Error(err))
			}
			return
		}
	}
}

func (k *KafkaSink) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.w.WriteMessages(ctx, m); err != nil {
		k.log.Error("kafka write", zap.String("topic", k.w.Topic), zap.Error(err))
	}
}

// Publish はキューに積む。いっぱいなら捨ててログだけ残す。
func (k *KafkaSink) Publish(e Envelope) {
	b, err := json.Marshal(e)
	if err != nil {
		k.log.Error("marshal envelope", zap.Error(err))
		return
	}
	// 同じセッションのイベントは同じパーティションへ
	key := e.SessionID
	if key == "" {
		key = e.EventID
	}
	m := kafka.Message{
		Key:   []byte(key),
		Value: b,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	}
	select {
	case k.inbox <- m:
	default:
		k.log.Warn("kafka inbox full, event dropped", zap.String("event_type", e.EventType))
	}
}

// WaitClosed は送信ループの終了を待つ
func (k *KafkaSink) WaitClosed() { <-k.closeCh }
