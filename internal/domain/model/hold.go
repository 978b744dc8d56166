package model

// /cart/hold の応答
// 期限はサーバーが管理し、クライアントは表示用の秒数だけ持つ
type HoldResult struct {
	Success                 bool `json:"success"`
	IsHoldExpired           bool `json:"is_hold_expired"`
	HoldExpiryTimeInSeconds int  `json:"hold_expiry_time_in_seconds"`
}
