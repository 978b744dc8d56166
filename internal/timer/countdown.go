package timer

import (
	"sync"
	"time"
)

// Countdown は1秒ごとに残り秒数を減らし、0になったら onExpire を1回だけ呼ぶ。
// 権限は持たない（表示とクライアント側の後始末だけ）。
// Reset と Stop は前のインターバルを必ず止める。
type Countdown struct {
	mu        sync.Mutex
	remaining int
	onExpire  func()
	newTicker TickerFactory

	// 実行中のインターバル。nilなら止まっている
	stop chan struct{}
	done chan struct{}
}

type CountdownOption func(*Countdown)

// WithTicker はテスト用のTickerを使う
func WithTicker(f TickerFactory) CountdownOption {
	return func(c *Countdown) {
		c.newTicker = f
	}
}

func NewCountdown(onExpire func(), opts ...CountdownOption) *Countdown {
	c := &Countdown{
		onExpire:  onExpire,
		newTicker: RealTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reset は前のインターバルを止めて seconds から数え直す。
// 0以下なら即座に期限切れ扱い。
func (c *Countdown) Reset(seconds int) {
	c.Stop()

	c.mu.Lock()
	if seconds <= 0 {
		c.remaining = 0
		c.mu.Unlock()
		c.expire()
		return
	}

	c.remaining = seconds
	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done = stop, done
	t := c.newTicker(time.Second)
	c.mu.Unlock()

	go c.run(t, stop, done)
}

func (c *Countdown) run(t Ticker, stop, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C():
			c.mu.Lock()
			// Stopと競合したら何もしない
			select {
			case <-stop:
				c.mu.Unlock()
				return
			default:
			}
			if c.remaining > 0 {
				c.remaining--
			}
			expired := c.remaining == 0
			if expired {
				c.stop, c.done = nil, nil
			}
			c.mu.Unlock()

			if expired {
				c.expire()
				return
			}
		}
	}
}

func (c *Countdown) expire() {
	if c.onExpire != nil {
		c.onExpire()
	}
}

// Remaining は残り秒数（負にならない）
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running はインターバルが動いているか
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// Stop はインターバルを止めて終了を待つ。期限切れコールバックは呼ばない。
// onExpire の中から呼んでもよい。
func (c *Countdown) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
