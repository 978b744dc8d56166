package timer

import (
	"sync"
	"time"
)

// ManualTicker はテストで Tick を呼んだ分だけ進むTicker。
type ManualTicker struct {
	ch      chan time.Time
	once    sync.Once
	stopped chan struct{}
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }

func (m *ManualTicker) Stop() {
	m.once.Do(func() { close(m.stopped) })
}

// Tick は1回進める。止まっていたらfalse。
func (m *ManualTicker) Tick() bool {
	select {
	case <-m.stopped:
		return false
	default:
	}
	select {
	case m.ch <- time.Now():
		return true
	case <-m.stopped:
		return false
	}
}

// ManualTickers は作られたTickerのうち最新のものを進める。
// Reset のたびに新しいTickerが作られるケースのテスト用。
type ManualTickers struct {
	mu      sync.Mutex
	current *ManualTicker
	created int
}

func (m *ManualTickers) Factory() TickerFactory {
	return func(time.Duration) Ticker {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.current = NewManualTicker()
		m.created++
		return m.current
	}
}

// Tick は最新のTickerを1回進める
func (m *ManualTickers) Tick() bool {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur == nil {
		return false
	}
	return cur.Tick()
}

// Created は作られたTickerの数
func (m *ManualTickers) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}

// Stopped は最新のTickerが止まっているか
func (m *ManualTickers) Stopped() bool {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur == nil {
		return true
	}
	select {
	case <-cur.stopped:
		return true
	default:
		return false
	}
}
