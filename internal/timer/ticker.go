package timer

import "time"

// Ticker は time.Ticker の差し替え可能な形（テストで手動で進める）
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory は周期dのTickerを作る
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// RealTicker は time.NewTicker を使う
func RealTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}
