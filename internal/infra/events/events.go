package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// guest_id が初めて作られた（1セッションに1回）
	EventGuestIDSet = "guest_id_set"
	// 注文が確定した
	EventOrderPlaced = "order_placed"
	// 在庫の確保が切れてチェックアウトを閉じた
	EventHoldExpired = "hold_expired"
)

// Envelope は配信するイベントの共通形
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	SessionID  string          `json:"session_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

type GuestIDSetPayload struct {
	GuestID string `json:"guest_id"`
}

type OrderPlacedPayload struct {
	OrderID     int64  `json:"order_id"`
	GuestID     string `json:"guest_id,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	TotalAmount string `json:"total_amount"`
}

type HoldExpiredPayload struct {
	Mode string `json:"mode"`
	Step int    `json:"step"`
}

// Decode はPayloadを型に戻す
func Decode[T any](e Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(e.Payload, &t); err != nil {
		return t, fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return t, nil
}
