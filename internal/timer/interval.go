package timer

import (
	"sync"
	"time"
)

// Interval は d ごとに fn を呼ぶ。Stop の後は fn を呼ばない。
// スライダーの自動送りに使う。
type Interval struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func Every(d time.Duration, fn func(), newTicker TickerFactory) *Interval {
	if newTicker == nil {
		newTicker = RealTicker
	}
	iv := &Interval{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	t := newTicker(d)

	go func() {
		defer close(iv.done)
		defer t.Stop()
		for {
			select {
			case <-iv.stop:
				return
			case <-t.C():
				select {
				case <-iv.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return iv
}

// Stop は何度呼んでもよい
func (iv *Interval) Stop() {
	iv.once.Do(func() {
		close(iv.stop)
	})
	<-iv.done
}
